package file

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
)

const ext = ".yaml"

// Store implements ports.ConfigurationStore using the local filesystem.
// Each configuration is a YAML document that options.Load can read back.
// Keys are query-escaped into file names.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".transit/configurations".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".transit", "configurations")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, url.QueryEscape(key)+ext)
}

// Save writes the configuration atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, key string, cfg *domain.Configuration) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure store directory: %w", err)
	}

	var buf bytes.Buffer
	if err := options.Encode(&buf, cfg); err != nil {
		return err
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the configuration stored under key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Configuration, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	defer f.Close()

	cfg, err := options.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("configuration %s: %w", key, err)
	}
	return cfg, nil
}

// Delete removes the configuration file.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete configuration file: %w", err)
	}
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}
