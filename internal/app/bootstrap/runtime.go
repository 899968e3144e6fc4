package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/cache"
	eventadapter "github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/events"
	grpcadapter "github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/grpc"
	httpadapter "github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/http"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/memory"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/notify"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/postgres"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/scheduler"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/security"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	db         *gorm.DB
	stores     stores
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpcadapter.Server
	outbox     *eventadapter.OutboxWorker
	sweeper    *scheduler.ExpirySweeper
	dispatcher *notify.Dispatcher
	cleanupFn  func(context.Context)
}

type stores struct {
	leases     ports.LeaseRepository
	users      ports.UserDirectory
	properties ports.PropertyDirectory
	outbox     ports.OutboxRepository

	putUser     func(context.Context, domain.User) error
	putProperty func(context.Context, domain.Property) error
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewRuntimeFromConfig(ctx, cfg)
}

func NewRuntimeFromConfig(ctx context.Context, cfg Config) (*Runtime, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	var (
		st    stores
		db    *gorm.DB
		ready []func(context.Context) error
		err   error
	)
	switch cfg.StoreMode {
	case StoreModeMemory:
		outbox := memory.NewOutboxStore()
		dir := memory.NewDirectory()
		st = stores{
			leases:      memory.NewLeaseStore(outbox),
			users:       dir,
			properties:  dir,
			outbox:      outbox,
			putUser:     func(_ context.Context, u domain.User) error { dir.PutUser(u); return nil },
			putProperty: func(_ context.Context, p domain.Property) error { dir.PutProperty(p); return nil },
		}
		logger.WarnContext(ctx, "using in-memory lease store, data is not persisted", "operation", "bootstrap", "outcome", "degraded")
	default:
		db, err = postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		closers = append(closers, sqlDB)
		if cfg.RunMigrationsOnStart {
			if err := postgres.RunMigrations(ctx, db); err != nil {
				cleanup()
				return nil, err
			}
		}
		repos := postgres.NewRepositories(db)
		st = stores{
			leases:      repos.Leases,
			users:       repos.Users,
			properties:  repos.Properties,
			outbox:      repos.Outbox,
			putUser:     repos.Directory.UpsertUser,
			putProperty: repos.Directory.UpsertProperty,
		}
		ready = append(ready, sqlDB.PingContext)
	}

	var cacheStore ports.Cache
	switch {
	case cfg.RedisURL != "":
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, redisClient)
		redisCache := cache.NewRedisCache(redisClient, cfg.ServiceID+":")
		cacheStore = redisCache
		ready = append(ready, redisCache.Ping)
	case cfg.StoreMode == StoreModeMemory:
		cacheStore = memory.NewCache()
	}

	var delivery ports.Notifier = notify.NewLoggingNotifier(logger)
	if cfg.SendGridAPIKey != "" {
		sg, err := notify.NewSendGridNotifier(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
			Sandbox:   cfg.SendGridSandbox,
			AppURL:    cfg.AppURL,
		}, st.users)
		if err != nil {
			cleanup()
			return nil, err
		}
		delivery = sg
	}
	dispatcher := notify.NewDispatcher(delivery, cfg.NotifyQueueSize, cfg.NotifyTimeout, logger)

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:           cfg.ServiceID,
			SignatureWindow:       cfg.SignatureWindow,
			ExpiringSoonWindow:    cfg.ExpiringSoonWindow,
			StatsCacheTTL:         cfg.StatsCacheTTL,
			PersistTimeout:        cfg.PersistTimeout,
			MaxTransitionAttempts: cfg.MaxTransitionAttempts,
			SweepBatchSize:        cfg.SweepBatchSize,
		},
		Leases:     st.leases,
		Users:      st.users,
		Properties: st.properties,
		Cache:      cacheStore,
		Notifier:   dispatcher,
		Logger:     logger,
	})

	verifier, err := security.NewJWTVerifier(cfg.JWTSecret)
	if err != nil {
		cleanup()
		return nil, err
	}
	router := httpadapter.NewRouter(httpadapter.NewHandler(service, verifier), httpadapter.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		Ready: func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, st.outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	sweeper, err := scheduler.NewExpirySweeper(service, cfg.ExpirySweepSpec, 0, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		stores:     st,
		service:    service,
		httpServer: httpServer,
		grpcServer: grpcadapter.NewServer(),
		outbox:     outbox,
		sweeper:    sweeper,
		dispatcher: dispatcher,
		cleanupFn:  func(context.Context) { cleanup() },
	}, nil
}

func (r *Runtime) Service() *application.Service { return r.service }

func (r *Runtime) HTTPHandler() http.Handler { return r.httpServer.Handler }

func (r *Runtime) Close(ctx context.Context) { r.cleanupFn(ctx) }

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(ctx)
		return err
	}

	errCh := make(chan error, 2)
	dispatchDone := make(chan struct{})
	go func() {
		r.dispatcher.Run(ctx)
		close(dispatchDone)
	}()
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	r.logger.InfoContext(ctx, "api runtime started",
		"operation", "run_api",
		"outcome", "success",
		"http_port", r.cfg.HTTPPort,
		"grpc_port", r.cfg.GRPCPort,
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", runErr)
	}
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.grpcServer.SetServing(false)
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	<-dispatchDone
	r.cleanupFn(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	dispatchDone := make(chan struct{})
	go func() {
		r.dispatcher.Run(ctx)
		close(dispatchDone)
	}()
	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		stop()
	}
	<-dispatchDone
	r.cleanupFn(context.Background())
	return runErr
}

// Migrate applies the embedded schema migrations and returns their names.
func (r *Runtime) Migrate(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("migrations require the %s store", StoreModePostgres)
	}
	if err := postgres.RunMigrations(ctx, r.db); err != nil {
		return nil, err
	}
	return postgres.MigrationNames()
}

func (r *Runtime) SweepExpired(ctx context.Context) (application.SweepResult, error) {
	return r.sweeper.SweepOnce(ctx)
}

func (r *Runtime) RelayOutbox(ctx context.Context) (eventadapter.RelayResult, error) {
	return r.outbox.RelayOnce(ctx)
}

func (r *Runtime) Purge(ctx context.Context, actorID, leaseID string) error {
	actor, err := uuid.Parse(strings.TrimSpace(actorID))
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}
	lease, err := uuid.Parse(strings.TrimSpace(leaseID))
	if err != nil {
		return fmt.Errorf("invalid lease id: %w", err)
	}
	return r.service.PurgeLease(ctx, actor, lease)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
