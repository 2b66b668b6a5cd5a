package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// SettingsRepository stores operator settings in a single TOML file.
type SettingsRepository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper) (*SettingsRepository, error) {
	paths, err := ResolvePaths(cfg)
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{path: paths.Settings, mu: lockForPath(paths.Settings)}, nil
}

func (r *SettingsRepository) Path() string {
	return r.path
}

// Load returns the stored settings with defaults filled in. A missing file
// yields the default settings.
func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var file settingsSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Settings{}, err
	}

	return fromSettingsSchema(file), nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := toml.Marshal(toSettingsSchema(settings))
	if err != nil {
		return fmt.Errorf("encode settings file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeAtomic(r.path, data, ".settings-*.toml.tmp")
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeAtomic replaces path with data through a temp file in the same
// directory, so readers never observe a partial file.
func writeAtomic(path string, data []byte, pattern string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(fileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	cleanup = false

	if err := os.Chmod(path, fileMode); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}

	return nil
}

func toSettingsSchema(settings domain.Settings) settingsSchema {
	profiles := make([]profileSchema, 0, len(settings.Profiles))
	for _, p := range settings.Profiles {
		profiles = append(profiles, profileSchema{
			Alias:           p.Alias,
			Model:           p.Model,
			Endpoint:        p.Endpoint,
			ContextLength:   p.ContextLength,
			RetainReasoning: boolPtr(p.RetainReasoning),
		})
	}

	return settingsSchema{
		Version:               currentSettingsVersion,
		ActiveProfile:         settings.ActiveProfile,
		RefreshRate:           settings.RefreshRate,
		CodeTheme:             settings.CodeTheme,
		ConsumeReasoningPanel: boolPtr(settings.ConsumeReasoningPanel),
		SystemPrompt:          settings.SystemPrompt,
		TruncationThreshold:   settings.TruncationThreshold,
		ResponseReserve:       settings.ResponseReserve,
		Profiles:              profiles,
	}
}

// fromSettingsSchema fills every missing field with its default, so older
// or hand-edited files stay loadable.
func fromSettingsSchema(file settingsSchema) domain.Settings {
	defaults := domain.DefaultSettings()
	settings := domain.Settings{
		ActiveProfile:         file.ActiveProfile,
		RefreshRate:           orInt(file.RefreshRate, defaults.RefreshRate),
		CodeTheme:             orString(file.CodeTheme, defaults.CodeTheme),
		ConsumeReasoningPanel: orBool(file.ConsumeReasoningPanel, defaults.ConsumeReasoningPanel),
		SystemPrompt:          orString(file.SystemPrompt, defaults.SystemPrompt),
		TruncationThreshold:   file.TruncationThreshold,
		ResponseReserve:       file.ResponseReserve,
	}
	if settings.TruncationThreshold <= 0 || settings.TruncationThreshold > 1 {
		settings.TruncationThreshold = defaults.TruncationThreshold
	}
	if settings.ResponseReserve < 0 {
		settings.ResponseReserve = defaults.ResponseReserve
	}

	fallback := domain.DefaultProfile()
	for _, p := range file.Profiles {
		if p.Alias == "" {
			continue
		}
		settings.Profiles = append(settings.Profiles, domain.Profile{
			Alias:           p.Alias,
			Model:           orString(p.Model, fallback.Model),
			Endpoint:        orString(p.Endpoint, fallback.Endpoint),
			ContextLength:   orInt(p.ContextLength, fallback.ContextLength),
			RetainReasoning: orBool(p.RetainReasoning, fallback.RetainReasoning),
		})
	}
	if len(settings.Profiles) == 0 {
		settings.Profiles = []domain.Profile{fallback}
	}
	if _, err := settings.Profile(settings.ActiveProfile); err != nil {
		settings.ActiveProfile = settings.Profiles[0].Alias
	}

	return settings
}

func boolPtr(v bool) *bool {
	return &v
}

func orBool(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func orInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
