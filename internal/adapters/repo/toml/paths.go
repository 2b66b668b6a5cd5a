package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "SAGE"
	configDir  = ".sage"

	settingsPathKey = "settings.path"
	sessionsDirKey  = "sessions.dir"
	logsDirKey      = "logs.dir"
	logLevelKey     = "log.level"
	secretsDirKey   = "secrets.dir"

	defaultLogLevel = "warn"
)

// Paths are the bootstrap locations read from config.toml and SAGE_*
// environment variables.
type Paths struct {
	Settings string
	Sessions string
	Logs     string
	Secrets  string
	LogLevel string
}

func ResolvePaths(cfg *viper.Viper) (Paths, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, configDir)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(base)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(settingsPathKey, filepath.Join(base, "settings.toml"))
	cfg.SetDefault(sessionsDirKey, filepath.Join(base, "sessions"))
	cfg.SetDefault(logsDirKey, filepath.Join(base, "logs"))
	cfg.SetDefault(secretsDirKey, filepath.Join(base, "secrets"))
	cfg.SetDefault(logLevelKey, defaultLogLevel)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Paths{}, fmt.Errorf("read config file: %w", err)
		}
	}

	paths := Paths{LogLevel: cfg.GetString(logLevelKey)}
	for key, target := range map[string]*string{
		settingsPathKey: &paths.Settings,
		sessionsDirKey:  &paths.Sessions,
		logsDirKey:      &paths.Logs,
		secretsDirKey:   &paths.Secrets,
	} {
		raw := cfg.GetString(key)
		if raw == "" {
			return Paths{}, fmt.Errorf("%s is empty", key)
		}
		normalized, err := normalizePath(raw)
		if err != nil {
			return Paths{}, err
		}
		*target = normalized
	}

	return paths, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}

	return filepath.Clean(absPath), nil
}
