package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bluewhale-protocol/api-go/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MaxPDFSize    = 10 * 1024 * 1024
	MaxAvatarSize = 5 * 1024 * 1024
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file size exceeds limit")
)

// FileStore persists uploaded files and returns their public URL.
type FileStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// New returns the store selected by STORAGE_DRIVER.
func New(cfg config.StorageConfig, log zerolog.Logger) (FileStore, error) {
	switch cfg.Driver {
	case config.StorageS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("S3 storage requires a bucket")
		}
		log.Info().Str("endpoint", cfg.ResolvedEndpoint()).Str("bucket", cfg.Bucket).Msg("Using S3 file storage")
		return NewS3Store(config.NewS3Client(cfg), cfg.Bucket, cfg.PublicURL), nil
	case "", config.StorageLocal:
		log.Info().Str("dir", cfg.LocalDir).Msg("Using local file storage")
		return NewLocalStore(cfg.LocalDir, cfg.LocalPublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ContentFileKey builds the object key for a content attachment. The
// extension is always .pdf whatever the client named the file.
func ContentFileKey(userID uint) string {
	return fmt.Sprintf("uploads/pdf/%d/%d_%s.pdf", userID, time.Now().Unix(), uuid.New().String())
}

// AvatarKey builds the object key for an avatar of a validated image type.
func AvatarKey(userID uint, contentType string) string {
	return fmt.Sprintf("users/%d/avatar/%d_%s%s", userID, time.Now().Unix(), uuid.New().String(), avatarTypes[contentType])
}

// ValidatePDF accepts application/pdf or a .pdf file name up to MaxPDFSize.
func ValidatePDF(contentType, fileName string, size int64) error {
	if contentType != "application/pdf" && strings.ToLower(filepath.Ext(fileName)) != ".pdf" {
		return ErrInvalidFileType
	}
	if size > MaxPDFSize {
		return ErrFileTooLarge
	}
	return nil
}

// avatarTypes maps accepted image types to the extension they are stored with.
var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func ValidateAvatar(contentType string, size int64) error {
	if _, ok := avatarTypes[contentType]; !ok {
		return ErrInvalidFileType
	}
	if size > MaxAvatarSize {
		return ErrFileTooLarge
	}
	return nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
