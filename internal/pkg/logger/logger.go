package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger - глобальный логгер приложения
var Logger = log.Logger

// Config - настройки логирования
type Config struct {
	Level        string `mapstructure:"level"`  // debug, info, warn, error
	Format       string `mapstructure:"format"` // json или pretty
	TimeFormat   string `mapstructure:"time_format"`
	ReportCaller bool   `mapstructure:"report_caller"`
}

// Init настраивает глобальный логгер
func Init(cfg Config) {
	Logger = New(cfg, os.Stdout)
	log.Logger = Logger
}

// New создает логгер с указанным выводом
func New(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	output := out
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Component возвращает логгер с полем component
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Info начинает событие уровня info
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn начинает событие уровня warn
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error начинает событие уровня error
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal начинает событие уровня fatal, после записи процесс завершается
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}
