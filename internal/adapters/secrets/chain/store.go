package chain

import (
	"context"
	"errors"
	"fmt"

	envstore "github.com/bnema/sage/internal/adapters/secrets/env"
	filestore "github.com/bnema/sage/internal/adapters/secrets/file"
	passstore "github.com/bnema/sage/internal/adapters/secrets/pass"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
)

// Store tries its backends in order. Reads return the first hit; writes and
// deletes stop at the first backend that accepts them.
type Store struct {
	backends []ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret chain has no backends")

func NewStore(backends ...ports.SecretStore) *Store {
	store, err := NewStoreChecked(backends...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(backends ...ports.SecretStore) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("secret backend %d is nil", i)
		}
	}

	return &Store{backends: backends}, nil
}

// NewDefault resolves keys from OPENAI_API_KEY, then pass, then files below
// fileRoot. Keys are written to pass when available, otherwise to files.
func NewDefault(fileRoot string) (*Store, error) {
	return NewStoreChecked(envstore.NewStore(envstore.DefaultVariable), passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	return s.each(ctx, "put", func(backend ports.SecretStore) error {
		return backend.Put(ctx, key, value)
	})
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.each(ctx, "get", func(backend ports.SecretStore) error {
		v, err := backend.Get(ctx, key)
		if err == nil {
			value = v
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.each(ctx, "delete", func(backend ports.SecretStore) error {
		return backend.Delete(ctx, key)
	})
}

// each runs op against the backends until one succeeds. When all fail and
// every failure was a missing secret, the result is ErrSecretNotFound alone.
func (s *Store) each(ctx context.Context, verb string, op func(ports.SecretStore) error) error {
	var errs []error
	allMissing := true
	for i, backend := range s.backends {
		err := op(backend)
		if err == nil {
			return nil
		}
		if shouldSkipFallback(err) {
			return err
		}
		if !errors.Is(err, domain.ErrSecretNotFound) {
			allMissing = false
		}
		errs = append(errs, fmt.Errorf("backend %d %s failed: %w", i+1, verb, err))
	}

	if allMissing {
		return domain.ErrSecretNotFound
	}
	return errors.Join(errs...)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
