package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"cycup_backend/internal/config"
	"cycup_backend/internal/imageprocessor"
	"cycup_backend/internal/logger"
	"cycup_backend/internal/storage"
	"cycup_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const photoKeyPrefix = "item-images"

type PhotoConfig struct {
	MaxSize      int64
	MaxFiles     int
	AllowedTypes []string
	MaxImageSide int
	JPEGQuality  int
}

func PhotoConfigFrom(cfg *config.Config) PhotoConfig {
	return PhotoConfig{
		MaxSize:      cfg.Upload.MaxSize,
		MaxFiles:     cfg.Upload.MaxFiles,
		AllowedTypes: cfg.Upload.AllowedTypes,
		MaxImageSide: cfg.Upload.MaxImageSide,
		JPEGQuality:  cfg.Upload.JPEGQuality,
	}
}

// StoredPhoto - сохраненный файл: Key для удаления, URL для записи в БД
type StoredPhoto struct {
	Key string
	URL string
}

// PhotoService проверяет и сохраняет фото объявлений
type PhotoService interface {
	StorePhotos(ctx context.Context, files []*multipart.FileHeader, minFiles int) ([]StoredPhoto, error)
	DiscardPhotos(ctx context.Context, photos []StoredPhoto)
}

type photoService struct {
	storage storage.Storage
	images  *imageprocessor.Processor
	cfg     PhotoConfig
}

func NewPhotoService(store storage.Storage, cfg PhotoConfig) PhotoService {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 3
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 3 * 1024 * 1024
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = []string{"image/jpeg", "image/png"}
	}
	return &photoService{
		storage: store,
		images:  imageprocessor.NewProcessor(cfg.MaxImageSide, cfg.JPEGQuality),
		cfg:     cfg,
	}
}

type checkedPhoto struct {
	header   *multipart.FileHeader
	mimeType string
	ext      string
}

// StorePhotos сначала проверяет все файлы, потом сохраняет.
// Если сохранение упало на середине, уже сохраненные файлы удаляются.
func (s *photoService) StorePhotos(ctx context.Context, files []*multipart.FileHeader, minFiles int) ([]StoredPhoto, error) {
	if len(files) < minFiles || len(files) > s.cfg.MaxFiles {
		return nil, apperrors.ValidationError(map[string]string{
			"photos": fmt.Sprintf("Between %d and %d photos are required", minFiles, s.cfg.MaxFiles),
		})
	}

	checked := make([]checkedPhoto, 0, len(files))
	for _, fh := range files {
		photo, err := s.checkFile(fh)
		if err != nil {
			return nil, err
		}
		checked = append(checked, photo)
	}

	stored := make([]StoredPhoto, 0, len(checked))
	for _, photo := range checked {
		key := fmt.Sprintf("%s/%s%s", photoKeyPrefix, uuid.NewString(), photo.ext)
		if err := s.save(ctx, key, photo); err != nil {
			s.DiscardPhotos(ctx, stored)
			return nil, apperrors.InternalError(err)
		}
		stored = append(stored, StoredPhoto{Key: key, URL: s.storage.URL(key)})
	}
	return stored, nil
}

func (s *photoService) DiscardPhotos(ctx context.Context, photos []StoredPhoto) {
	for _, photo := range photos {
		if err := s.storage.Delete(ctx, photo.Key); err != nil {
			logger.CtxWithError(ctx, "failed to discard uploaded photo", err, "key", photo.Key)
		}
	}
}

// checkFile - тип определяется по содержимому, заголовку клиента не доверяем
func (s *photoService) checkFile(fh *multipart.FileHeader) (checkedPhoto, error) {
	if fh.Size > s.cfg.MaxSize {
		return checkedPhoto{}, apperrors.ValidationError(map[string]string{
			"photos": fmt.Sprintf("File %s exceeds the maximum size of %d MB", fh.Filename, s.cfg.MaxSize/(1024*1024)),
		})
	}

	f, err := fh.Open()
	if err != nil {
		return checkedPhoto{}, apperrors.InternalError(err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return checkedPhoto{}, apperrors.InternalError(err)
	}
	if !mimetype.EqualsAny(mtype.String(), s.cfg.AllowedTypes...) {
		return checkedPhoto{}, apperrors.ValidationError(map[string]string{
			"photos": fmt.Sprintf("File %s must be a JPEG or PNG image", fh.Filename),
		})
	}

	return checkedPhoto{header: fh, mimeType: mtype.String(), ext: mtype.Extension()}, nil
}

func (s *photoService) save(ctx context.Context, key string, photo checkedPhoto) error {
	f, err := photo.header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	// Читаем не больше лимита, даже если Size в заголовке врет
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxSize))
	if err != nil {
		return err
	}

	// Тип уже проверен по сигнатуре; если картинку не удалось разобрать, храним как есть
	fitted, resized, err := s.images.Fit(data)
	switch {
	case err != nil:
		logger.CtxWarn(ctx, "photo kept without resizing", "key", key, "error", err.Error())
	case resized:
		logger.CtxDebug(ctx, "photo downscaled", "key", key, "from_bytes", len(data), "to_bytes", len(fitted))
		data = fitted
	}

	return s.storage.Save(ctx, key, bytes.NewReader(data), photo.mimeType)
}
