package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PhotoStorage отвечает за хранение изображений в S3.
type PhotoStorage struct {
	client         *s3.Client
	presignClient  *s3.PresignClient
	bucket         string
	region         string
	maxUploadBytes int64
}

// NewPhotoStorage создаёт хранилище поверх S3. Учётные данные берутся
// стандартной цепочкой AWS SDK (переменные окружения, профиль, IAM роль).
func NewPhotoStorage(ctx context.Context, bucket, region string, maxUploadMB int64) (*PhotoStorage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось загрузить конфигурацию AWS: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &PhotoStorage{
		client:         client,
		presignClient:  s3.NewPresignClient(client),
		bucket:         bucket,
		region:         region,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save загружает файл в S3 и возвращает ключ объекта и размер.
func (s *PhotoStorage) Save(ctx context.Context, userID uuid.UUID, originalName, contentType string, r io.Reader) (string, int64, error) {
	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}

	var buf bytes.Buffer
	written, err := io.Copy(&buf, &limitedReader)
	if err != nil {
		return "", 0, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}

	if written > s.maxUploadBytes {
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	ext := filepath.Ext(sanitizeFilename(originalName))
	key := fmt.Sprintf("%s/%d%s", userID.String(), time.Now().UnixNano(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось загрузить файл в S3: %w", err)
	}

	return key, written, nil
}

// Delete удаляет объект из S3.
func (s *PhotoStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось удалить объект %s: %w", key, err)
	}
	return nil
}

// PublicURL возвращает постоянный URL объекта.
func (s *PhotoStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// PresignedURL возвращает временный подписанный URL объекта. Используется
// для передачи изображения vision-модели, когда бакет закрыт.
func (s *PhotoStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("storage: не удалось подписать URL: %w", err)
	}

	return request.URL, nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "photo"
	}
	return name
}
