package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// CVStore хранилище загруженных резюме
type CVStore interface {
	// Save сохраняет файл и возвращает путь/ключ для cv_applications
	Save(ctx context.Context, r io.Reader, size int64, ext, contentType string) (string, error)
	// Delete удаляет ранее сохраненный файл
	Delete(ctx context.Context, path string) error
}

// cvObjectName имя файла: cvs/<uuid><ext>
func cvObjectName(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return "cvs/" + uuid.NewString() + strings.ToLower(ext)
}

// DiskStore резюме на локальном диске
type DiskStore struct {
	root   string
	logger *zap.Logger
}

// NewDiskStore создает каталог root при необходимости
func NewDiskStore(root string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "cvs"), 0o755); err != nil {
		return nil, fmt.Errorf("create cv storage dir: %w", err)
	}
	return &DiskStore{root: root, logger: logger}, nil
}

func (s *DiskStore) Save(ctx context.Context, r io.Reader, size int64, ext, contentType string) (string, error) {
	name := cvObjectName(ext)
	full := filepath.Join(s.root, filepath.FromSlash(name))

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create cv file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write cv file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close cv file: %w", err)
	}

	s.logger.Debug("CV stored on disk", zap.String("path", name), zap.Int64("size", size))
	return name, nil
}

func (s *DiskStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.Path(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cv file: %w", err)
	}
	return nil
}

// Path абсолютный путь к сохраненному файлу
func (s *DiskStore) Path(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+path)))
}

// MinioStore резюме в S3-совместимом хранилище
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinioStore подключается к S3 и создает бакет, если его нет
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	logger.Info("S3 storage ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &MinioStore{client: client, bucket: bucket, logger: logger}, nil
}

func (s *MinioStore) Save(ctx context.Context, r io.Reader, size int64, ext, contentType string) (string, error) {
	name := cvObjectName(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return name, nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3 remove object: %w", err)
	}
	return nil
}
