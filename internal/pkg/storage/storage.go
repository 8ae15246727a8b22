package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	appcfg "github.com/mapa-cultural/core/internal/config"
)

// ErrInvalidKey is returned for empty or escaping object keys.
var ErrInvalidKey = errors.New("invalid object key")

// Storage uploads a blob and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.Driver.
// publicBase is the absolute URL prefix under which the local static dir is served.
func New(cfg appcfg.StorageConfig, staticDir, publicBase string) (Storage, error) {
	switch cfg.Driver {
	case appcfg.StorageS3:
		return NewS3(cfg.S3)
	case appcfg.StorageLocal, "":
		return NewLocal(staticDir, publicBase)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// SanitizeName lowercases a file name and replaces anything outside [a-z0-9._-] with '-'.
func SanitizeName(name string) string {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "file"
	}
	if len(base) > 80 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:80-len(ext)] + ext
	}
	return base
}

// ObjectKey builds a randomized key: folder/YYYY/MM/<uuid>-<sanitized name>.
func ObjectKey(folder, originalName string, now time.Time) string {
	folder = strings.Trim(SanitizeFolder(folder), "/")
	if folder == "" {
		folder = "uploads"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("%s/%s/%s/%s-%s", folder, now.Format("2006"), now.Format("01"), id, SanitizeName(originalName))
}

// SanitizeFolder keeps folder segments made of safe characters only.
func SanitizeFolder(folder string) string {
	parts := strings.Split(strings.ReplaceAll(folder, "\\", "/"), "/")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(p)), "-"), "-.")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func normalizeObjectKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
