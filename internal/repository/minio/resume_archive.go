package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yourusername/interview-api/internal/config"
	"github.com/yourusername/interview-api/internal/pkg/logger"
)

// ResumeArchive реализует repository.ResumeArchive поверх MinIO
type ResumeArchive struct {
	client *minio.Client
	bucket string
}

// NewResumeArchive создает клиент MinIO и проверяет наличие бакета
func NewResumeArchive(ctx context.Context, cfg config.ArchiveConfig) (*ResumeArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Location}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("Создан бакет для резюме")
	}

	return &ResumeArchive{client: client, bucket: cfg.Bucket}, nil
}

// Store загружает документ и возвращает имя объекта
func (a *ResumeArchive) Store(ctx context.Context, candidateID, fileName, contentType string, data []byte) (string, error) {
	objectName := ObjectName(candidateID, fileName)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", a.bucket, objectName, err)
	}
	return objectName, nil
}

// ObjectName строит ключ объекта resumes/<candidateID>/<file>
func ObjectName(candidateID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "resume"
	}
	return path.Join("resumes", candidateID, base)
}
