package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// LocalConfig holds configuration for disk storage
type LocalConfig struct {
	BasePath string
	BaseURL  string
}

// LocalProvider writes objects below BasePath
type LocalProvider struct {
	basePath string
	baseURL  string
}

func NewLocalProvider(config LocalConfig) (*LocalProvider, error) {
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalProvider{
		basePath: config.BasePath,
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
	}, nil
}

func (p *LocalProvider) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	target, err := p.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (p *LocalProvider) Delete(_ context.Context, key string) error {
	target, err := p.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (p *LocalProvider) URL(key string) string {
	return p.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(key), "/")
}

// resolve keeps every key inside basePath
func (p *LocalProvider) resolve(key string) (string, error) {
	target := filepath.Join(p.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(p.basePath, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return target, nil
}

// generateUniqueFilename keeps a readable stem and appends a random suffix
func generateUniqueFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if stem == "" {
		stem = "file"
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext)
	}
	return fmt.Sprintf("%s-%s%s", stem, hex.EncodeToString(suffix), ext)
}
