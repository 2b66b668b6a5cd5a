// Package file keeps API keys in one TOML file readable only by its owner,
// for machines without a password store.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/pelletier/go-toml/v2"
)

const (
	FileName = "keys.toml"

	currentVersion = 1
	dirMode        = 0o700
	fileMode       = 0o600
)

type keyFile struct {
	Version int               `toml:"version"`
	Keys    map[string]string `toml:"keys"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

var _ ports.SecretStore = (*Store)(nil)

// NewStore keeps its file in root.
func NewStore(root string) *Store {
	return &Store{path: filepath.Join(filepath.Clean(root), FileName)}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(keys.Keys[key])
	if value == "" {
		return "", fmt.Errorf("file secret %q: %w", key, domain.ErrSecretNotFound)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	keys.Keys[key] = value
	return s.write(keys)
}

// Delete removes key; a key that is not stored is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := keys.Keys[key]; !ok {
		return nil
	}
	delete(keys.Keys, key)
	return s.write(keys)
}

func (s *Store) load() (keyFile, error) {
	keys := keyFile{Version: currentVersion, Keys: map[string]string{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return keyFile{}, fmt.Errorf("read key file: %w", err)
	}

	if err := toml.Unmarshal(data, &keys); err != nil {
		return keyFile{}, fmt.Errorf("decode key file: %w", err)
	}
	if keys.Version > currentVersion {
		return keyFile{}, fmt.Errorf("unsupported key file version %d (current %d)", keys.Version, currentVersion)
	}
	if keys.Keys == nil {
		keys.Keys = map[string]string{}
	}
	return keys, nil
}

func (s *Store) write(keys keyFile) (err error) {
	keys.Version = currentVersion
	data, err := toml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keys-*.toml")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp key file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}

func validateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errors.New("secret key is empty")
	case key != strings.TrimSpace(key), strings.ContainsAny(key, "\r\n"):
		return fmt.Errorf("invalid secret key %q", key)
	}
	return nil
}
