package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/bot"
	"github.com/kapu/duty-rotation-bot/internal/command"
	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/iris"
	"github.com/kapu/duty-rotation-bot/internal/observability"
	"github.com/kapu/duty-rotation-bot/internal/rotation"
	"github.com/kapu/duty-rotation-bot/internal/service/cache"
	"github.com/kapu/duty-rotation-bot/internal/service/database"
	"github.com/kapu/duty-rotation-bot/internal/service/rotationlog"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing runtime components like Bot.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	botDeps       *bot.Dependencies
	store         rotationlog.LogStore
	metricsServer *observability.Server
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// Close releases the store backends and stops the metrics endpoint.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			c.Logger.Warn("Failed to stop metrics endpoint", zap.Error(err))
		}
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// Build assembles all infrastructure services and returns a container capable of
// creating fully-wired bots. Store backends are connected here so that
// bot.NewBot stays focused on orchestration logic.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	metrics := observability.NewMetrics("rotation")

	// Persistence
	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() {
		_ = store.Close()
	})

	// Messaging primitives
	irisClient := iris.NewClient(cfg.Iris.BaseURL, logger)
	irisWS := iris.NewWebSocket(cfg.Iris.WSURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		logger)
	channel := iris.NewChannel(irisClient, irisWS, constants.WebSocketConfig.InboxCapacity, logger)
	messageAdapter := adapter.NewMessageAdapter(cfg.Bot.Address, cfg.Triggers)
	formatter := adapter.NewResponseFormatter(cfg.Bot.Address, cfg.Bot.Signature, cfg.Triggers)

	// Rotation and commands
	rotator := rotation.NewRotator(store, rotation.NewSelector(nil), channel, formatter, metrics, logger)
	registry := command.NewRegistryWithDefaults(&command.Dependencies{
		Rotations:   rotator,
		Formatter:   formatter,
		SendMessage: rotator.Send,
		Logger:      logger,
	})
	dispatcher := command.NewSequentialDispatcher(registry, command.NormalizeCommand, func(cmdType domain.CommandType) {
		metrics.ObserveCommand(cmdType.String())
	})
	logger.Debug("Commands registered", zap.Int("count", registry.Count()))

	var metricsServer *observability.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = observability.NewServer(cfg.Metrics.Addr, metrics, logger)
		addHealthChecks(metricsServer, cfg, store, irisClient, irisWS)
		if err := metricsServer.Start(); err != nil {
			return nil, fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		})
	}

	deps := &bot.Dependencies{
		Config:         cfg.Rotation,
		Logger:         logger,
		Channel:        channel,
		Groups:         irisClient,
		Store:          store,
		Rotator:        rotator,
		MessageAdapter: messageAdapter,
		Dispatcher:     dispatcher,
		Stream:         irisWS,
		Metrics:        metrics,
	}

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		botDeps:       deps,
		store:         store,
		metricsServer: metricsServer,
	}, nil
}

// addHealthChecks makes /healthz report the bridge, the store backends and,
// when the run watches for commands, the event stream.
func addHealthChecks(server *observability.Server, cfg *config.Config, store rotationlog.LogStore, client *iris.Client, ws *iris.WebSocket) {
	server.AddCheck("bridge", client.Ping)
	server.AddCheck("store", func(ctx context.Context) error {
		return rotationlog.Ping(ctx, store)
	})
	if cfg.Rotation.Cycles > 0 {
		server.AddCheck("stream", func(context.Context) error {
			if !ws.IsConnected() {
				return fmt.Errorf("websocket %s", ws.GetState())
			}
			return nil
		})
	}
}

// buildStore opens the primary backend and any mirrors. With mirrors the
// result is a MirrorStore writing to all of them.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store rotationlog.LogStore, err error) {
	primary, err := OpenBackend(ctx, cfg.Store.Backend, cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(cfg.Store.Mirrors) == 0 {
		return primary, nil
	}

	opened := []rotationlog.LogStore{primary}
	defer func() {
		if err != nil {
			for _, s := range opened {
				_ = s.Close()
			}
		}
	}()

	mirrors := make([]rotationlog.NamedStore, 0, len(cfg.Store.Mirrors))
	for _, backend := range cfg.Store.Mirrors {
		mirror, err := OpenBackend(ctx, backend, cfg, logger)
		if err != nil {
			return nil, err
		}
		opened = append(opened, mirror)
		mirrors = append(mirrors, rotationlog.NamedStore{Name: backend, Store: mirror})
	}

	logger.Info("Rotation log mirrored",
		zap.String("primary", cfg.Store.Backend),
		zap.Strings("mirrors", cfg.Store.Mirrors),
	)
	return rotationlog.NewMirrorStore(rotationlog.NamedStore{Name: cfg.Store.Backend, Store: primary}, mirrors, logger), nil
}

// OpenBackend connects a single store backend by name.
func OpenBackend(ctx context.Context, backend string, cfg *config.Config, logger *zap.Logger) (rotationlog.LogStore, error) {
	switch backend {
	case config.BackendFile:
		store, err := rotationlog.NewFileStore(cfg.Store.Dir, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return rotationlog.NewMemoryStore(), nil
	case config.BackendRedis:
		cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		return rotationlog.NewRedisStore(cacheSvc, logger), nil
	case config.BackendPostgres:
		postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", err)
		}
		store, err := rotationlog.NewPostgresStore(ctx, postgresSvc, logger)
		if err != nil {
			_ = postgresSvc.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
