package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/sage/internal/adapters/clipboard"
	"github.com/bnema/sage/internal/adapters/llm/openaichat"
	tomlrepo "github.com/bnema/sage/internal/adapters/repo/toml"
	chainstore "github.com/bnema/sage/internal/adapters/secrets/chain"
	"github.com/bnema/sage/internal/adapters/source/fs"
	"github.com/bnema/sage/internal/adapters/tokenizer/tiktoken"
	"github.com/bnema/sage/internal/adapters/web/webtext"
	"github.com/bnema/sage/internal/application"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/logging"
	"github.com/bnema/sage/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const maxRetries = 2

// app carries every long-lived collaborator. settings is the single loaded
// copy; services mutate it through a pointer and save it.
type app struct {
	paths       tomlrepo.Paths
	settings    domain.Settings
	loaded      bool
	secrets     ports.SecretStore
	profiles    *application.ProfileService
	sessions    *application.SessionService
	ledger      *application.Ledger
	registry    *application.Registry
	attachments *application.AttachmentService
	chat        *application.ChatService
	env         *application.Environment
	clipboard   ports.Clipboard
	logger      *zap.Logger
	now         func() time.Time
}

func wireApp() (*app, error) {
	cfg := viper.New()
	paths, err := tomlrepo.ResolvePaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	logger, err := logging.New(paths.Logs, paths.LogLevel, time.Now())
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	settingsRepo, err := tomlrepo.NewSettingsRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}
	sessionRepo, err := tomlrepo.NewSessionRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	secretStore, err := chainstore.NewDefault(paths.Secrets)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	var counter ports.Tokenizer
	if tok, err := tiktoken.New(); err != nil {
		logger.Warn("tokenizer unavailable, counting bytes", zap.Error(err))
	} else {
		counter = tok
	}

	clock := ports.SystemClock{}
	ledger := application.NewLedger(counter, logger)
	registry := application.NewRegistry(ledger, clock)
	env := application.NewEnvironment()

	a := &app{
		paths:       paths,
		secrets:     secretStore,
		profiles:    application.NewProfileService(settingsRepo, secretStore, logger),
		sessions:    application.NewSessionService(sessionRepo, ledger, clock),
		ledger:      ledger,
		registry:    registry,
		attachments: application.NewAttachmentService(fs.NewReader(), webtext.NewExtractor(nil), registry),
		env:         env,
		clipboard:   clipboard.NewSystem(),
		logger:      logger,
		now:         time.Now,
	}

	client := openaichat.NewClient(a.endpoint, logger)
	a.chat = application.NewChatService(client, ledger, env, clock, logger)

	return a, nil
}

// loadSettings reads settings once per process.
func (a *app) loadSettings(ctx context.Context) (*domain.Settings, error) {
	if a.loaded {
		return &a.settings, nil
	}

	settings, err := a.profiles.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.settings = settings
	a.loaded = true
	return &a.settings, nil
}

// endpoint resolves the active profile per request, so a profile switch
// applies to the next turn.
func (a *app) endpoint(ctx context.Context) (openaichat.Config, error) {
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return openaichat.Config{}, err
	}

	profile := settings.Active()
	return openaichat.Config{
		Endpoint:   profile.Endpoint,
		APIKey:     a.profiles.APIKey(ctx, profile.Alias),
		MaxRetries: maxRetries,
	}, nil
}
