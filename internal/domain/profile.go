package domain

import "fmt"

const (
	DefaultProfileAlias  = "default"
	DefaultModel         = "Sage"
	DefaultEndpoint      = "http://localhost:8080/v1"
	DefaultContextLength = 131072
	DefaultRefreshRate   = 30
	DefaultCodeTheme     = "monokai"
	DefaultSystemPrompt  = "You are Sage, a conversational AI assistant."
)

type Profile struct {
	Alias           string
	Model           string
	Endpoint        string
	ContextLength   int
	RetainReasoning bool
}

type Settings struct {
	ActiveProfile         string
	RefreshRate           int
	CodeTheme             string
	ConsumeReasoningPanel bool
	SystemPrompt          string
	TruncationThreshold   float64
	ResponseReserve       int
	Profiles              []Profile
}

func DefaultProfile() Profile {
	return Profile{
		Alias:           DefaultProfileAlias,
		Model:           DefaultModel,
		Endpoint:        DefaultEndpoint,
		ContextLength:   DefaultContextLength,
		RetainReasoning: true,
	}
}

func DefaultSettings() Settings {
	return Settings{
		ActiveProfile:         DefaultProfileAlias,
		RefreshRate:           DefaultRefreshRate,
		CodeTheme:             DefaultCodeTheme,
		ConsumeReasoningPanel: true,
		SystemPrompt:          DefaultSystemPrompt,
		TruncationThreshold:   DefaultTruncationThreshold,
		ResponseReserve:       DefaultResponseReserve,
		Profiles:              []Profile{DefaultProfile()},
	}
}

func (s Settings) Profile(alias string) (Profile, error) {
	for _, p := range s.Profiles {
		if p.Alias == alias {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q: %w", alias, ErrProfileNotFound)
}

// Active returns the active profile, falling back to the first configured one.
func (s Settings) Active() Profile {
	if p, err := s.Profile(s.ActiveProfile); err == nil {
		return p
	}
	if len(s.Profiles) > 0 {
		return s.Profiles[0]
	}
	return DefaultProfile()
}

func (s Settings) Budget() ContextBudget {
	return ContextBudget{
		MaxTokens: s.Active().ContextLength,
		Threshold: s.TruncationThreshold,
		Reserve:   s.ResponseReserve,
	}
}
