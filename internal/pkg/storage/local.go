package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects under a directory served as static files.
type Local struct {
	root       string
	publicBase string
}

// NewLocal creates the root directory if needed.
func NewLocal(root, publicBase string) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create static dir: %w", err)
	}
	publicBase = strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if publicBase == "" {
		publicBase = "/static"
	}
	return &Local{root: root, publicBase: publicBase}, nil
}

func (l *Local) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key, err := normalizeObjectKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return l.publicBase + "/" + key, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	key, err := normalizeObjectKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
