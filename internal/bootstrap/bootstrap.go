// Package bootstrap wires the whole server together: configuration, logging,
// storage, the model provider and the HTTP transport, with dependency-ordered
// init steps and graceful shutdown.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainchat "chopchop-server-go/internal/domain/chat"
	"chopchop-server-go/internal/domain/eventbus"
	domainimage "chopchop-server-go/internal/domain/image"
	domainmail "chopchop-server-go/internal/domain/mail"
	"chopchop-server-go/internal/domain/model"
	"chopchop-server-go/internal/domain/model/openai"
	"chopchop-server-go/internal/domain/session"
	platformconfig "chopchop-server-go/internal/platform/config"
	platformerrors "chopchop-server-go/internal/platform/errors"
	platformlogging "chopchop-server-go/internal/platform/logging"
	platformobservability "chopchop-server-go/internal/platform/observability"
	platformstorage "chopchop-server-go/internal/platform/storage"
	httptransport "chopchop-server-go/internal/transport/http"
	httpauth "chopchop-server-go/internal/transport/http/authapi"
	httpchat "chopchop-server-go/internal/transport/http/chatapi"
	httphealth "chopchop-server-go/internal/transport/http/health"
	httpuserdata "chopchop-server-go/internal/transport/http/userdata"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc

	db       *gorm.DB
	userData *platformstorage.UserDataRepository
	history  *platformstorage.ChatHistoryRepository
	recipes  *platformstorage.RecentRecipeRepository

	bus      *eventbus.AsyncEventBus
	sessions *session.Manager
	provider model.Provider
	digest   *domainmail.DigestService
}

// Run starts the whole service lifecycle: load config, initialise
// dependencies, serve HTTP and shut down cleanly on SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag("BOOT", "observability did not shut down cleanly: %v", err)
			}
		}()
	}

	defer func() {
		if state.bus != nil {
			state.bus.WaitAsync()
			state.bus.Stop()
		}
		if state.sessions != nil {
			if err := state.sessions.Close(context.Background()); err != nil {
				logger.ErrorTag("AUTH", "session store did not close cleanly: %v", err)
			}
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "server stopped")
	logger.Close()
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					"dependency "+dep+" not satisfied",
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph lists the init steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:open-database",
			Title:     "Open database and run migrations",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   openDatabaseStep,
		},
		{
			ID:        "eventbus:start",
			Title:     "Start event bus and persistence",
			DependsOn: []string{"storage:open-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   startEventBusStep,
		},
		{
			ID:        "session:init-manager",
			Title:     "Initialise session manager",
			DependsOn: []string{"storage:open-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initSessionStep,
		},
		{
			ID:        "model:init-provider",
			Title:     "Initialise model provider",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initModelProviderStep,
		},
		{
			ID:        "mail:init-digest",
			Title:     "Initialise digest mailer",
			DependsOn: []string{"storage:open-database"},
			Kind:      platformerrors.KindMail,
			Execute:   initMailStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithDotEnv(true).Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	state.slogger = logger.Slog()

	source := state.configPath
	if source == "" {
		source = "defaults"
	}
	logger.InfoTag("BOOT", "logging ready [%s] %s", state.config.Log.Level, source)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func openDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.Path)
	if err != nil {
		return err
	}

	state.db = db
	state.userData = platformstorage.NewUserDataRepository(db)
	state.history = platformstorage.NewChatHistoryRepository(db)
	state.recipes = platformstorage.NewRecentRecipeRepository(db, 0)

	state.logger.InfoTag("STORE", "database ready at %s", state.config.Database.Path)
	return nil
}

func startEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.GetAsync()

	persister := eventbus.NewPersister(state.history, state.recipes, state.logger)
	if err := persister.Register(bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "eventbus:start", "failed to register persistence handlers", err)
	}

	state.bus = bus
	return nil
}

func initSessionStep(_ context.Context, state *appState) error {
	storeCfg, err := sessionStoreConfig(state.config, state.logger)
	if err != nil {
		return err
	}

	store, err := session.New(storeCfg, session.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "session:init-manager", "failed to create session store", err)
	}

	state.sessions = session.NewManager(store, state.logger)
	state.logger.InfoTag("AUTH", "session store ready [%s]", storeCfg.Driver)
	return nil
}

func sessionStoreConfig(config *platformconfig.Config, logger *platformlogging.Logger) (session.Config, error) {
	storeType := strings.ToLower(strings.TrimSpace(config.Server.Session.Store.Type))
	cfg := session.Config{
		Driver: storeType,
		TTL:    config.Server.Session.Store.Expiry,
	}

	cleanupInterval := config.Server.Session.Store.Cleanup
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	switch storeType {
	case session.DriverMemory, "":
		cfg.Driver = session.DriverMemory
		cfg.Memory = &session.MemoryConfig{GCInterval: cleanupInterval}
	case session.DriverSQLite, "database":
		cfg.Driver = session.DriverSQLite
	case session.DriverRedis:
		cfg.Redis = &session.RedisConfig{
			Addr:     config.Server.Session.Store.Redis.Addr,
			Username: config.Server.Session.Store.Redis.Username,
			Password: config.Server.Session.Store.Redis.Password,
			DB:       config.Server.Session.Store.Redis.DB,
			Prefix:   config.Server.Session.Store.Redis.Prefix,
		}
		if cfg.Redis.Addr == "" && config.Redis.Enabled {
			cfg.Redis.Addr = config.Redis.Addr
			cfg.Redis.Username = config.Redis.Username
			cfg.Redis.Password = config.Redis.Password
			cfg.Redis.DB = config.Redis.DB
		}
		if cfg.Redis.Addr == "" {
			return session.Config{}, platformerrors.New(
				platformerrors.KindBootstrap,
				"session:init-manager",
				"redis store addr is required",
			)
		}
	default:
		logger.WarnTag("AUTH", "unsupported session store %q, falling back to memory", storeType)
		cfg.Driver = session.DriverMemory
		cfg.Memory = &session.MemoryConfig{GCInterval: cleanupInterval}
	}

	return cfg, nil
}

func initModelProviderStep(_ context.Context, state *appState) error {
	provider, err := openai.New(&state.config.Model, state.logger)
	if err != nil {
		return err
	}
	state.provider = provider

	state.logger.InfoTag("MODEL", "provider ready [%s] %s", state.config.Model.ModelName, state.config.Model.BaseURL)
	return nil
}

func initMailStep(_ context.Context, state *appState) error {
	if !state.config.Mail.Enabled {
		state.logger.InfoTag("MAIL", "mail disabled, digest endpoint will return 503")
		return nil
	}

	mailer, err := domainmail.NewSMTPMailer(&state.config.Mail, state.logger)
	if err != nil {
		return err
	}
	state.digest = domainmail.NewDigestService(state.userData, state.recipes, mailer, state.logger)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	authMiddleware := httptransport.AuthMiddleware(state.sessions, logger)

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: authMiddleware,
		StaticRoot:     config.Web.StaticDir,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		httptransport.RespondError(c, http.StatusNotFound, "not found", nil)
	})

	router.GET("/", func(c *gin.Context) {
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{
			"service": "chopchop-server",
			"endpoints": []string{
				"GET /api/health",
				"POST /api/auth/signin",
				"POST /api/auth/verify",
				"POST /api/auth/signout",
				"POST /api/chat",
				"POST /api/save-data",
				"GET /api/get-data",
				"POST /api/update-data",
				"GET /api/chat-history",
				"POST /api/recent-recipes/add",
				"GET /api/recent-recipes/get",
				"POST /api/send-email",
			},
		}, "")
	})

	normalizer := domainimage.NewNormalizer(&config.Image, logger)
	chatService := domainchat.NewService(
		state.provider,
		normalizer,
		state.history,
		state.bus,
		&config.Model,
		logger,
	)

	chatAPI, err := httpchat.NewService(chatService, logger)
	if err != nil {
		return nil, err
	}
	userdataAPI, err := httpuserdata.NewService(state.userData, state.history, state.recipes, state.digest, logger)
	if err != nil {
		return nil, err
	}
	authAPI, err := httpauth.NewService(state.sessions, logger)
	if err != nil {
		return nil, err
	}
	healthAPI := httphealth.NewService(state.sessions, logger)

	if err := authAPI.Register(groupCtx, httpRouter.API); err != nil {
		return nil, err
	}
	if err := healthAPI.Register(groupCtx, httpRouter.API); err != nil {
		return nil, err
	}
	if err := chatAPI.Register(groupCtx, httpRouter.Secured); err != nil {
		return nil, err
	}
	if err := userdataAPI.Register(groupCtx, httpRouter.Secured); err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://localhost:%d", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown signal received, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}
