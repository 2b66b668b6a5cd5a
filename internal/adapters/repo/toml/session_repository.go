package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const sessionExt = ".toml"

// SessionRepository stores each session as <dir>/<name>.toml. Cached token
// counts are not persisted.
type SessionRepository struct {
	dir string
	mu  *sync.RWMutex
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(cfg *viper.Viper) (*SessionRepository, error) {
	paths, err := ResolvePaths(cfg)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{dir: paths.Sessions, mu: lockForPath(paths.Sessions)}, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathFor(session.Name)
	if err != nil {
		return err
	}

	file := toSessionSchema(session)
	file.applyDefaults()
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return writeAtomic(path, data, ".session-*.toml.tmp")
}

func (r *SessionRepository) Load(ctx context.Context, name string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.pathFor(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := readSession(path)
	if err != nil {
		return nil, err
	}
	return fromSessionSchema(name, file)
}

// List returns stored sessions, most recently updated first. Files that
// cannot be decoded are left out.
func (r *SessionRepository) List(ctx context.Context) ([]domain.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions directory: %w", err)
	}

	var infos []domain.SessionInfo
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), sessionExt)
		if !ok || entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		file, err := readSession(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			continue
		}
		infos = append(infos, domain.SessionInfo{
			Name:      name,
			Profile:   file.Profile,
			Messages:  len(file.Messages),
			UpdatedAt: parseTime(file.UpdatedAt),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

func (r *SessionRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathFor(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (r *SessionRepository) pathFor(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("session name %q: %w", name, domain.ErrInvalidName)
	}
	return filepath.Join(r.dir, name+sessionExt), nil
}

func readSession(path string) (sessionSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessionSchema{}, domain.ErrSessionNotFound
		}
		return sessionSchema{}, fmt.Errorf("read session file: %w", err)
	}

	var file sessionSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return sessionSchema{}, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return sessionSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toSessionSchema(session *domain.Session) sessionSchema {
	messages := session.Messages()
	out := make([]messageSchema, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageSchema{
			Role:        string(m.Role),
			Content:     m.Content,
			CreatedAt:   formatTime(m.CreatedAt),
			Interrupted: m.Interrupted,
			Reasoning:   m.Reasoning,
		})
	}

	return sessionSchema{
		Version:   currentSessionVersion,
		Name:      session.Name,
		Profile:   session.Profile,
		CreatedAt: formatTime(session.CreatedAt),
		UpdatedAt: formatTime(session.UpdatedAt),
		Messages:  out,
	}
}

func fromSessionSchema(name string, file sessionSchema) (*domain.Session, error) {
	messages := make([]domain.Message, 0, len(file.Messages))
	for i, m := range file.Messages {
		role := domain.Role(m.Role)
		switch role {
		case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		default:
			return nil, fmt.Errorf("decode session file: message %d has unknown role %q", i, m.Role)
		}

		message := domain.NewMessage(role, m.Content, parseTime(m.CreatedAt))
		message.Interrupted = m.Interrupted
		message.Reasoning = m.Reasoning
		messages = append(messages, message)
	}

	session := &domain.Session{
		Name:      name,
		Profile:   file.Profile,
		CreatedAt: parseTime(file.CreatedAt),
	}
	session.ReplaceMessages(messages)
	session.UpdatedAt = parseTime(file.UpdatedAt)

	return session, nil
}
