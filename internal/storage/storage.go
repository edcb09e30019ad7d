package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cycup_backend/internal/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Storage - хранилище загруженных фото товаров
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL возвращает публичный адрес: абсолютный (S3) или относительный (local)
	URL(key string) string
}

type Config struct {
	Type           string // local, s3
	BasePath       string
	BaseURL        string
	Bucket         string
	Region         string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	ForcePathStyle bool
	PublicRead     bool
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Type:           cfg.Storage.Type,
		BasePath:       cfg.Storage.BasePath,
		BaseURL:        cfg.Storage.BaseURL,
		Bucket:         cfg.Storage.Bucket,
		Region:         cfg.Storage.Region,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		Endpoint:       cfg.Storage.Endpoint,
		ForcePathStyle: cfg.Storage.ForcePathStyle,
		PublicRead:     cfg.Storage.PublicRead,
	}
}

func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey не дает выйти за пределы хранилища ("../")
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
