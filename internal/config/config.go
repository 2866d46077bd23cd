package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yourusername/interview-api/internal/pkg/logger"
)

// Драйверы хранилища
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Interview InterviewConfig
	LLM       LLMConfig
	Archive   ArchiveConfig
	Log       logger.Config
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout int      `mapstructure:"write_timeout"` // секунды
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// StorageConfig выбирает реализацию хранилища сессий
type StorageConfig struct {
	Driver string // postgres или memory
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Enabled: без Redis кеш и блокировки работают локально в процессе
	Enabled bool `mapstructure:"enabled"`

	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт)
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// KeyPrefix добавляется ко всем ключам кеша
	KeyPrefix string `mapstructure:"key_prefix"`
}

// InterviewConfig содержит настройки движка интервью
type InterviewConfig struct {
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`
	CollaboratorRetries int           `mapstructure:"collaborator_retries"`
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
	ViewCacheTTL        time.Duration `mapstructure:"view_cache_ttl"`
	IdempotencyTTL      time.Duration `mapstructure:"idempotency_ttl"`
	MaxUploadBytes      int64         `mapstructure:"max_upload_bytes"`
}

// LLMConfig содержит настройки генеративной модели
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// ArchiveConfig содержит настройки хранилища исходных резюме (MinIO)
type ArchiveConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Location        string `mapstructure:"location"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// RateLimitConfig содержит лимиты запросов на IP в минуту
type RateLimitConfig struct {
	UploadsPerMinute int `mapstructure:"uploads_per_minute"`
	AnswersPerMinute int `mapstructure:"answers_per_minute"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// setDefaults задает значения по умолчанию
func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 30)
	vip.SetDefault("server.write_timeout", 60)
	vip.SetDefault("server.cors_origins", []string{"*"})
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("storage.driver", StorageDriverPostgres)
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "interview:")
	vip.SetDefault("interview.collaborator_timeout", 20*time.Second)
	vip.SetDefault("interview.collaborator_retries", 1)
	vip.SetDefault("interview.lock_ttl", 30*time.Second)
	vip.SetDefault("interview.view_cache_ttl", 5*time.Second)
	vip.SetDefault("interview.idempotency_ttl", 24*time.Hour)
	vip.SetDefault("interview.max_upload_bytes", 10<<20)
	vip.SetDefault("llm.model", "gemini-1.5-flash")
	vip.SetDefault("llm.temperature", 0.7)
	vip.SetDefault("archive.bucket", "resumes")
	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "json")
	vip.SetDefault("rate_limit.uploads_per_minute", 10)
	vip.SetDefault("rate_limit.answers_per_minute", 60)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	bindings := map[string]string{
		"server.port":                    "SERVER_PORT",
		"database.host":                  "DATABASE_HOST",
		"database.port":                  "DATABASE_PORT",
		"database.user":                  "DATABASE_USER",
		"database.password":              "DATABASE_PASSWORD",
		"database.dbname":                "DATABASE_DBNAME",
		"database.sslmode":               "DATABASE_SSLMODE",
		"storage.driver":                 "STORAGE_DRIVER",
		"redis.enabled":                  "REDIS_ENABLED",
		"redis.mode":                     "REDIS_MODE",
		"redis.addrs":                    "REDIS_ADDRS",
		"redis.addr":                     "REDIS_ADDR",
		"redis.password":                 "REDIS_PASSWORD",
		"redis.db":                       "REDIS_DB",
		"redis.master_name":              "REDIS_MASTER_NAME",
		"interview.collaborator_timeout": "INTERVIEW_COLLABORATOR_TIMEOUT",
		"interview.collaborator_retries": "INTERVIEW_COLLABORATOR_RETRIES",
		"llm.api_key":                    "GEMINI_API_KEY",
		"llm.model":                      "LLM_MODEL",
		"archive.enabled":                "ARCHIVE_ENABLED",
		"archive.endpoint":               "ARCHIVE_ENDPOINT",
		"archive.access_key_id":          "ARCHIVE_ACCESS_KEY_ID",
		"archive.secret_access_key":      "ARCHIVE_SECRET_ACCESS_KEY",
		"archive.bucket":                 "ARCHIVE_BUCKET",
		"log.level":                      "LOG_LEVEL",
		"log.format":                     "LOG_FORMAT",
	}
	for key, env := range bindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Файл конфигурации не обязателен: переменных окружения может быть достаточно
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				logger.Warn().Str("path", configPath).Msg("Файл конфигурации не найден, используются переменные окружения/умолчания")
			} else {
				logger.Warn().Err(err).Str("path", configPath).Msg("Не удалось прочитать файл конфигурации")
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS может прийти одной строкой через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}

	if os.Getenv("GIN_MODE") != "release" {
		logger.Info().
			Str("storage_driver", cfg.Storage.Driver).
			Str("database_host", cfg.Database.Host).
			Str("database_name", cfg.Database.DBName).
			Bool("redis_enabled", cfg.Redis.Enabled).
			Str("redis_mode", cfg.Redis.Mode).
			Bool("llm_key_set", cfg.LLM.APIKey != "").
			Str("llm_model", cfg.LLM.Model).
			Bool("archive_enabled", cfg.Archive.Enabled).
			Str("server_port", cfg.Server.Port).
			Msg("Загруженные значения конфигурации")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (expected %s or %s)", c.Storage.Driver, StorageDriverPostgres, StorageDriverMemory)
	}
	if c.Redis.Enabled && len(c.Redis.Addrs) == 0 && c.Redis.Addr == "" {
		return fmt.Errorf("redis is enabled but neither redis.addrs nor redis.addr is set")
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("archive is enabled but endpoint or bucket is missing")
	}
	if c.Interview.CollaboratorTimeout <= 0 {
		return fmt.Errorf("interview.collaborator_timeout must be positive")
	}
	if c.Interview.CollaboratorRetries < 0 {
		return fmt.Errorf("interview.collaborator_retries must not be negative")
	}
	return nil
}
