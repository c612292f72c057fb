package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nullvoyager/voyager/internal/config"
	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/internal/metrics"
	"github.com/nullvoyager/voyager/internal/runtime"
	"github.com/nullvoyager/voyager/internal/tools"
	"github.com/nullvoyager/voyager/pkg/adapters/amadeus"
	"github.com/nullvoyager/voyager/pkg/adapters/file"
	"github.com/nullvoyager/voyager/pkg/adapters/llm/anthropic"
	"github.com/nullvoyager/voyager/pkg/adapters/llm/gemini"
	"github.com/nullvoyager/voyager/pkg/adapters/llm/openai"
	"github.com/nullvoyager/voyager/pkg/adapters/memory"
	"github.com/nullvoyager/voyager/pkg/adapters/places"
	"github.com/nullvoyager/voyager/pkg/adapters/postgres"
	"github.com/nullvoyager/voyager/pkg/adapters/redis"
	"github.com/nullvoyager/voyager/pkg/persistence"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
	"github.com/nullvoyager/voyager/pkg/session"
	"github.com/spf13/cobra"
)

var errMissingAPIKey = errors.New("AI_PROVIDER_API_KEY is not set")

// app holds the components shared by the commands. close releases them in reverse order.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	sessions *session.Manager
	closers  []io.Closer
}

// newApp loads the configuration, opens the logger and the session store.
func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.Open(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	a.closers = append(a.closers, logCloser)

	store, locker, err := a.openStore()
	if err != nil {
		a.close()
		return nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	a.sessions = session.NewManager(store, opts...)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}

// openStore builds the configured state store and, for redis with distributed
// locking enabled, the matching locker.
func (a *app) openStore() (ports.StateStore, ports.DistributedLocker, error) {
	cfg := a.cfg
	codec := persistence.JSON
	enc, err := cfg.Encryption()
	if err != nil {
		return nil, nil, err
	}
	if enc != nil {
		if codec, err = persistence.NewEncryptionCodec(codec, *enc); err != nil {
			return nil, nil, err
		}
	}

	switch cfg.Store {
	case config.StoreFile:
		return file.New(cfg.StoreDir, file.WithCodec(codec)), nil, nil
	case config.StoreRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.StoreTTL),
			redis.WithCodec(codec),
		)
		a.closers = append(a.closers, store)
		var locker ports.DistributedLocker
		if cfg.DistributedLock {
			locker = redis.NewLocker(store.Client(), store.Prefix())
		}
		return store, locker, nil
	case config.StorePostgres:
		store, err := postgres.Open(cfg.DatabaseURL, postgres.WithCodec(codec))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil, nil
	default:
		return memory.NewStore(memory.WithTTL(cfg.StoreTTL), memory.WithCodec(codec)), nil, nil
	}
}

// lookupTools wires the lookup tools to the live providers that have credentials.
func (a *app) lookupTools() *registry.Registry {
	cfg := a.cfg
	tc := tools.Config{
		Timeout: cfg.ToolTimeout,
		Logger:  a.logger,
		OnProviderError: func(provider string, err error) {
			a.metrics.ProviderFailed(provider)
		},
	}
	if cfg.HasAmadeus() {
		client := amadeus.New(cfg.AmadeusClientID, cfg.AmadeusClientSecret,
			amadeus.WithBaseURL(cfg.AmadeusBaseURL),
			amadeus.WithRateLimit(cfg.ToolRatePerMinute),
			amadeus.WithLogger(a.logger),
		)
		tc.Flights = client
		tc.Destinations = client
	}
	if cfg.GooglePlacesAPIKey != "" {
		tc.Hotels = places.New(cfg.GooglePlacesAPIKey,
			places.WithRateLimit(cfg.ToolRatePerMinute),
			places.WithLogger(a.logger),
		)
	}
	return tools.NewRegistry(tc)
}

// chatModel creates the model client of the configured provider.
func (a *app) chatModel(ctx context.Context) (ports.ChatModel, error) {
	cfg := a.cfg
	if cfg.AIAPIKey == "" {
		return nil, errMissingAPIKey
	}
	switch cfg.AIProvider {
	case config.ProviderAnthropic:
		return anthropic.New(cfg.AIAPIKey, cfg.ModelID), nil
	case config.ProviderGemini:
		m, err := gemini.New(ctx, cfg.AIAPIKey, cfg.ModelID)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		a.closers = append(a.closers, m)
		return m, nil
	default:
		return openai.New(cfg.AIAPIKey, cfg.ModelID), nil
	}
}

// engine builds the conversation engine with metrics hooks.
func (a *app) engine(ctx context.Context) (*runtime.Engine, error) {
	model, err := a.chatModel(ctx)
	if err != nil {
		return nil, err
	}
	return runtime.NewEngine(model, a.sessions, a.lookupTools(),
		runtime.WithMaxSteps(a.cfg.MaxSteps),
		runtime.WithLogger(a.logger),
		runtime.WithLifecycleHooks(a.metrics.Hooks()),
	), nil
}
