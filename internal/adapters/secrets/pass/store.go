// Package pass stores API keys as pass(1) entries named after the secret key,
// such as sage/default/api_key.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

const (
	binary     = "pass"
	notInStore = "is not in the password store"
)

type execFunc func(ctx context.Context, path, input string, args ...string) (stdout, stderr string, err error)

type Store struct {
	lookPath func(string) (string, error)
	exec     execFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{lookPath: exec.LookPath, exec: execCommand}
}

// Get returns the first line of the entry; further lines are notes. A
// missing pass binary counts as a missing secret so the chain moves on.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := s.run(ctx, "", "show", key)
	switch {
	case errors.Is(err, ErrUnavailable):
		return "", fmt.Errorf("pass get %q: %w", key, errors.Join(err, domain.ErrSecretNotFound))
	case err != nil:
		return "", fmt.Errorf("pass get %q: %w", key, err)
	}

	first, _, _ := strings.Cut(out, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", fmt.Errorf("pass get %q: %w", key, domain.ErrSecretNotFound)
	}
	return first, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.run(ctx, value+"\n", "insert", "--multiline", "--force", key); err != nil {
		return fmt.Errorf("pass put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.run(ctx, "", "rm", "--force", key)
	if err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("pass delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) run(ctx context.Context, input string, args ...string) (string, error) {
	path, err := s.lookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	stdout, stderr, err := s.exec(ctx, path, input, args...)
	switch {
	case err == nil:
		return stdout, nil
	case strings.Contains(stderr, notInStore):
		return "", domain.ErrSecretNotFound
	case stderr != "":
		return "", fmt.Errorf("%w: %s", err, stderr)
	default:
		return "", err
	}
}

func execCommand(ctx context.Context, path, input string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
