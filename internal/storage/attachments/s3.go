package attachments

import (
	"context"
	"fmt"
	"strings"
	"time"
	"todoTracker/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type Config struct {
	Bucket string
	Region string
	// Endpoint задаёт S3-совместимое хранилище (minio, localstack); пусто - AWS
	Endpoint      string
	URLExpiration time.Duration
}

// S3Store строит публичные адреса вложений и подписывает ссылки на загрузку
type S3Store struct {
	bucket     string
	endpoint   string
	expiration time.Duration
	presigner  *s3.PresignClient
}

// New берёт учётные данные из стандартной цепочки AWS (env, профиль, роль)
func New(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("загрузка конфигурации AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg), nil
}

func NewWithClient(client *s3.Client, cfg Config) *S3Store {
	return &S3Store{
		bucket:     cfg.Bucket,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		expiration: cfg.URLExpiration,
		presigner:  s3.NewPresignClient(client),
	}
}

// AttachmentURL собирает адрес объекта без обращения к хранилищу
func (s *S3Store) AttachmentURL(objectKey string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, objectKey)
}

// UploadURL - подписанная PUT-ссылка, живёт s.expiration
func (s *S3Store) UploadURL(ctx context.Context, objectKey string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expiration))
	if err != nil {
		logger.Error("Storage: Не удалось подписать ссылку на загрузку", err, zap.String("key", objectKey))
		return "", fmt.Errorf("подпись ссылки на загрузку: %w", err)
	}

	logger.Debug("Storage: Ссылка на загрузку подписана",
		zap.String("key", objectKey),
		zap.Duration("expires_in", s.expiration))
	return req.URL, nil
}
