package toml

import "fmt"

const (
	currentSettingsVersion = 1
	currentSessionVersion  = 1
)

type settingsSchema struct {
	Version               int             `toml:"version"`
	ActiveProfile         string          `toml:"active_profile"`
	RefreshRate           int             `toml:"refresh_rate"`
	CodeTheme             string          `toml:"code_theme"`
	ConsumeReasoningPanel *bool           `toml:"consume_reasoning_panel"`
	SystemPrompt          string          `toml:"system_prompt"`
	TruncationThreshold   float64         `toml:"truncation_threshold"`
	ResponseReserve       int             `toml:"response_reserve"`
	Profiles              []profileSchema `toml:"profiles"`
}

type profileSchema struct {
	Alias           string `toml:"alias"`
	Model           string `toml:"model"`
	Endpoint        string `toml:"endpoint"`
	ContextLength   int    `toml:"context_length"`
	RetainReasoning *bool  `toml:"retain_reasoning"`
}

func (s settingsSchema) validateVersion() error {
	if s.Version > currentSettingsVersion {
		return fmt.Errorf("unsupported settings schema version %d (current %d)", s.Version, currentSettingsVersion)
	}

	return nil
}

type sessionSchema struct {
	Version   int             `toml:"version"`
	Name      string          `toml:"name"`
	Profile   string          `toml:"profile"`
	CreatedAt string          `toml:"created_at"`
	UpdatedAt string          `toml:"updated_at"`
	Messages  []messageSchema `toml:"messages"`
}

type messageSchema struct {
	Role        string `toml:"role"`
	Content     string `toml:"content"`
	CreatedAt   string `toml:"created_at"`
	Interrupted bool   `toml:"interrupted,omitempty"`
	Reasoning   bool   `toml:"reasoning,omitempty"`
}

func (s *sessionSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionVersion
	}
}

func (s sessionSchema) validateVersion() error {
	if s.Version > currentSessionVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSessionVersion)
	}

	return nil
}
