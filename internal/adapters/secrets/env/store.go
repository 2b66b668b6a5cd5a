// Package env reads API keys from the process environment.
package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
)

const DefaultVariable = "OPENAI_API_KEY"

var ErrReadOnly = errors.New("environment secret store is read-only")

// Store answers every api key lookup with one environment variable.
type Store struct {
	variable string
	lookup   func(string) (string, bool)
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(variable string) *Store {
	if variable == "" {
		variable = DefaultVariable
	}
	return &Store{variable: variable, lookup: os.LookupEnv}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.HasSuffix(key, "/api_key") {
		return "", fmt.Errorf("env secret %q: %w", key, domain.ErrSecretNotFound)
	}

	value, ok := s.lookup(s.variable)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("env secret %s: %w", s.variable, domain.ErrSecretNotFound)
	}
	return strings.TrimSpace(value), nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrReadOnly
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrReadOnly
}
