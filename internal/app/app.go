package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	pb "github.com/godilite/wellbeing-server/api/v1"
	"github.com/godilite/wellbeing-server/internal/aggregator"
	"github.com/godilite/wellbeing-server/internal/classifier"
	"github.com/godilite/wellbeing-server/internal/config"
	handler "github.com/godilite/wellbeing-server/internal/grpc"
	"github.com/godilite/wellbeing-server/internal/metrics"
	"github.com/godilite/wellbeing-server/internal/repository"
	"github.com/godilite/wellbeing-server/internal/service"
	"github.com/godilite/wellbeing-server/pkg/cache"
	dbbuilder "github.com/godilite/wellbeing-server/pkg/database"
	grpcsrv "github.com/godilite/wellbeing-server/pkg/grpc/server"
	"github.com/godilite/wellbeing-server/pkg/kv"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger        *zap.Logger
	closers       []namedCloser
	grpcServer    *grpcsrv.Server
	metricsServer *http.Server
	metricsLis    net.Listener
}

type namedCloser struct {
	name string
	c    io.Closer
}

type Option func(*appOptions)

type appOptions struct {
	classifier service.Classifier
}

// WithClassifier replaces the classifier built from configuration.
func WithClassifier(c service.Classifier) Option {
	return func(o *appOptions) { o.classifier = c }
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.closeAll()
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	redisHook := metrics.NewRedisHook(reg)

	var redisClient *cache.Cache
	if cfg.DBDriver == config.DriverRedis || cfg.CacheEnabled {
		redisClient, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
			cache.WithHook(redisHook),
		)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"redis", redisClient})
		logger.Info("Redis client initialized", zap.String("addr", cfg.RedisAddr))
	}

	store, err := a.openStore(ctx, cfg, redisClient)
	if err != nil {
		return nil, err
	}

	cls := o.classifier
	if cls == nil {
		cls, err = newClassifier(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	agg := aggregator.New(loc, nil)
	ingest := service.NewIngestService(store, cls, agg, logger.Named("ingest"),
		service.WithFoldMetrics(metrics.NewFoldMetrics(reg)),
		service.WithIngestConfig(service.IngestConfig{
			FoldMaxAttempts: cfg.FoldMaxAttempts,
			MaxAnswers:      cfg.AssessmentMaxAnswers,
		}),
	)
	query := service.NewQueryService(store, loc, logger.Named("query"))

	var cacher handler.Cacher
	if cfg.CacheEnabled {
		cacher = redisClient
	}
	grpcHandlers := handler.NewGRPCHandlers(ingest, query, cacher, logger, cfg.CacheTTL,
		handler.WithCacheMetrics(metrics.NewCacheMetrics(reg)))

	a.grpcServer, err = grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithMetrics(metrics.NewRPCMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	a.grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterWellbeingServer(s, grpcHandlers)
	})

	if cfg.MetricsPort > 0 {
		a.metricsLis, err = net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.MetricsPort)))
		if err != nil {
			return nil, fmt.Errorf("failed to listen for metrics on port %d: %w", cfg.MetricsPort, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, redisClient *cache.Cache) (service.RollupRepository, error) {
	switch cfg.DBDriver {
	case config.DriverBadger:
		kvCfg := kv.DefaultConfig(cfg.BadgerPath)
		kvCfg.Logger = a.logger.Named("badger")
		db, err := kv.Open(kvCfg)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"badger", db})
		a.logger.Info("Badger store opened", zap.String("path", cfg.BadgerPath))
		return repository.NewBadgerRollupRepository(db), nil

	case config.DriverRedis:
		a.logger.Info("Using redis rollup store", zap.String("addr", cfg.RedisAddr))
		return repository.NewRedisRollupRepository(redisClient.Client(), ""), nil

	default:
		dbPool, err := dbbuilder.New(ctx,
			dbbuilder.WithDriver(config.DriverSQLite),
			dbbuilder.WithDataSource(dbbuilder.SQLiteDSN(cfg.DBPath)),
		)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"database", dbPool})

		repo := repository.NewSQLiteRollupRepository(dbPool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
		a.logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))
		return repo, nil
	}
}

func newClassifier(cfg *config.Config, logger *zap.Logger) (service.Classifier, error) {
	if cfg.ClassifierAPIKey == "" {
		logger.Warn("CLASSIFIER_API_KEY not set, journal submissions will be rejected")
		return classifier.Disabled{}, nil
	}
	c, err := classifier.NewOpenAI(classifier.OpenAIConfig{
		APIKey:  cfg.ClassifierAPIKey,
		BaseURL: cfg.ClassifierBaseURL,
		Model:   cfg.ClassifierModel,
	}, logger.Named("classifier"))
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}
	return c, nil
}

// GRPCAddr returns the address the gRPC server listens on.
func (a *App) GRPCAddr() net.Addr {
	return a.grpcServer.Addr()
}

// MetricsAddr returns the metrics listener address, or nil when disabled.
func (a *App) MetricsAddr() net.Addr {
	if a.metricsLis == nil {
		return nil
	}
	return a.metricsLis.Addr()
}

// Start serves gRPC and metrics in the background.
func (a *App) Start() {
	a.grpcServer.Start()

	if a.metricsServer != nil {
		go func() {
			a.logger.Info("metrics server started", zap.String("addr", a.metricsLis.Addr().String()))
			if err := a.metricsServer.Serve(a.metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}
}

// Shutdown stops the servers and closes every store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	a.closeAll()
	return errors.Join(errs...)
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.c.Close(); err != nil {
			a.logger.Error("shutdown error", zap.String("component", c.name), zap.Error(err))
		}
	}
	a.closers = nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.Shutdown(ctx)
	if err != nil {
		a.logger.Warn("shutdown completed with errors", zap.Error(err))
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return err
}
