package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"go.uber.org/zap"
)

// FallbackAPIKey is sent when no key is stored; local endpoints ignore it.
const FallbackAPIKey = "dummy-key"

const (
	minRefreshRate = 1
	maxRefreshRate = 120
)

// SettingKeys lists the keys accepted by Set, in display order.
var SettingKeys = []string{
	"active_profile",
	"refresh_rate",
	"code_theme",
	"consume_reasoning_panel",
	"system_prompt",
	"truncation_threshold",
	"response_reserve",
	"model",
	"endpoint",
	"context_length",
	"retain_reasoning",
}

// ProfileService owns operator settings. Each mutation is applied to a copy
// and only becomes visible once the copy was saved.
type ProfileService struct {
	repo    ports.SettingsRepository
	secrets ports.SecretStore
	logger  *zap.Logger
}

func NewProfileService(repo ports.SettingsRepository, secrets ports.SecretStore, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProfileService{repo: repo, secrets: secrets, logger: logger}
}

func (s *ProfileService) Load(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (s *ProfileService) Add(ctx context.Context, settings *domain.Settings, profile domain.Profile) error {
	return s.update(ctx, settings, func(next *domain.Settings) error {
		if err := ValidateName(profile.Alias); err != nil {
			return err
		}
		if _, err := next.Profile(profile.Alias); err == nil {
			return fmt.Errorf("add profile %q: %w", profile.Alias, domain.ErrProfileExists)
		}
		if err := validateProfile(profile); err != nil {
			return err
		}
		next.Profiles = append(next.Profiles, profile)
		return nil
	})
}

func (s *ProfileService) Remove(ctx context.Context, settings *domain.Settings, alias string) error {
	return s.update(ctx, settings, func(next *domain.Settings) error {
		i := slices.IndexFunc(next.Profiles, func(p domain.Profile) bool { return p.Alias == alias })
		if i < 0 {
			return fmt.Errorf("remove profile %q: %w", alias, domain.ErrProfileNotFound)
		}
		if len(next.Profiles) == 1 {
			return fmt.Errorf("remove profile %q: %w", alias, domain.ErrLastProfile)
		}
		next.Profiles = slices.Delete(next.Profiles, i, i+1)
		if next.ActiveProfile == alias {
			next.ActiveProfile = next.Profiles[0].Alias
		}
		return nil
	})
}

func (s *ProfileService) Switch(ctx context.Context, settings *domain.Settings, alias string) error {
	return s.update(ctx, settings, func(next *domain.Settings) error {
		if _, err := next.Profile(alias); err != nil {
			return fmt.Errorf("switch profile: %w", err)
		}
		next.ActiveProfile = alias
		return nil
	})
}

func (s *ProfileService) SetContextLength(ctx context.Context, settings *domain.Settings, n int) error {
	return s.Set(ctx, settings, "context_length", strconv.Itoa(n))
}

func (s *ProfileService) SetRefreshRate(ctx context.Context, settings *domain.Settings, hz int) error {
	return s.Set(ctx, settings, "refresh_rate", strconv.Itoa(hz))
}

func (s *ProfileService) SetTheme(ctx context.Context, settings *domain.Settings, name string) error {
	return s.Set(ctx, settings, "code_theme", name)
}

func (s *ProfileService) SetSystemPrompt(ctx context.Context, settings *domain.Settings, prompt string) error {
	return s.Set(ctx, settings, "system_prompt", prompt)
}

// ToggleConsume flips reasoning panel consumption and returns the new value.
func (s *ProfileService) ToggleConsume(ctx context.Context, settings *domain.Settings) (bool, error) {
	err := s.Set(ctx, settings, "consume_reasoning_panel", strconv.FormatBool(!settings.ConsumeReasoningPanel))
	return settings.ConsumeReasoningPanel, err
}

// Set assigns one setting by key. Profile keys apply to the active profile.
func (s *ProfileService) Set(ctx context.Context, settings *domain.Settings, key, value string) error {
	return s.update(ctx, settings, func(next *domain.Settings) error {
		if err := assign(next, key, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Values returns every setting as display text keyed like Set.
func Values(settings domain.Settings) map[string]string {
	active := settings.Active()
	return map[string]string{
		"active_profile":          active.Alias,
		"refresh_rate":            strconv.Itoa(settings.RefreshRate),
		"code_theme":              settings.CodeTheme,
		"consume_reasoning_panel": strconv.FormatBool(settings.ConsumeReasoningPanel),
		"system_prompt":           settings.SystemPrompt,
		"truncation_threshold":    strconv.FormatFloat(settings.TruncationThreshold, 'f', -1, 64),
		"response_reserve":        strconv.Itoa(settings.ResponseReserve),
		"model":                   active.Model,
		"endpoint":                active.Endpoint,
		"context_length":          strconv.Itoa(active.ContextLength),
		"retain_reasoning":        strconv.FormatBool(active.RetainReasoning),
	}
}

func (s *ProfileService) SetAPIKey(ctx context.Context, alias, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	if err := s.secrets.Put(ctx, SecretKey(alias), key); err != nil {
		return fmt.Errorf("store api key for %q: %w", alias, err)
	}
	return nil
}

// APIKey resolves the key for alias through the secret chain and falls back
// to FallbackAPIKey.
func (s *ProfileService) APIKey(ctx context.Context, alias string) string {
	key, err := s.secrets.Get(ctx, SecretKey(alias))
	if err != nil || strings.TrimSpace(key) == "" {
		if err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			s.logger.Warn("resolve api key", zap.String("profile", alias), zap.Error(err))
		}
		return FallbackAPIKey
	}
	return strings.TrimSpace(key)
}

func SecretKey(alias string) string {
	return "sage/" + alias + "/api_key"
}

func (s *ProfileService) update(ctx context.Context, settings *domain.Settings, mutate func(*domain.Settings) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next := *settings
	next.Profiles = slices.Clone(settings.Profiles)
	if err := mutate(&next); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	*settings = next
	return nil
}

func assign(next *domain.Settings, key, value string) error {
	active := slices.IndexFunc(next.Profiles, func(p domain.Profile) bool { return p.Alias == next.Active().Alias })

	switch key {
	case "active_profile":
		if _, err := next.Profile(value); err != nil {
			return err
		}
		next.ActiveProfile = value
	case "refresh_rate":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse refresh rate: %w", err)
		}
		if n < minRefreshRate || n > maxRefreshRate {
			return fmt.Errorf("refresh rate %d outside %d-%d", n, minRefreshRate, maxRefreshRate)
		}
		next.RefreshRate = n
	case "code_theme":
		if _, ok := styles.Registry[value]; !ok {
			return fmt.Errorf("unknown code theme %q", value)
		}
		next.CodeTheme = value
	case "consume_reasoning_panel":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse flag: %w", err)
		}
		next.ConsumeReasoningPanel = b
	case "system_prompt":
		if value == "" {
			return errors.New("system prompt is empty")
		}
		next.SystemPrompt = value
	case "truncation_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parse threshold: %w", err)
		}
		if f <= 0 || f > 1 {
			return fmt.Errorf("threshold %v outside (0, 1]", f)
		}
		next.TruncationThreshold = f
	case "response_reserve":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse reserve: %w", err)
		}
		if n < 0 {
			return errors.New("reserve must not be negative")
		}
		next.ResponseReserve = n
	case "model", "endpoint", "context_length", "retain_reasoning":
		if active < 0 {
			return domain.ErrProfileNotFound
		}
		profile := next.Profiles[active]
		if err := assignProfile(&profile, key, value); err != nil {
			return err
		}
		next.Profiles[active] = profile
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func assignProfile(profile *domain.Profile, key, value string) error {
	switch key {
	case "model":
		profile.Model = value
	case "endpoint":
		profile.Endpoint = value
	case "context_length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse context length: %w", err)
		}
		profile.ContextLength = n
	case "retain_reasoning":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse flag: %w", err)
		}
		profile.RetainReasoning = b
	}
	return validateProfile(*profile)
}

func validateProfile(profile domain.Profile) error {
	switch {
	case strings.TrimSpace(profile.Model) == "":
		return errors.New("model is empty")
	case !strings.HasPrefix(profile.Endpoint, "http://") && !strings.HasPrefix(profile.Endpoint, "https://"):
		return fmt.Errorf("endpoint %q is not an http url", profile.Endpoint)
	case profile.ContextLength <= 0:
		return fmt.Errorf("context length %d must be positive", profile.ContextLength)
	}
	return nil
}
