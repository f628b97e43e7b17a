package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quranchallenge/server/adapters"
	mongoadapter "github.com/quranchallenge/server/adapters/mongo"
	"github.com/quranchallenge/server/domain/repositories"
	"github.com/quranchallenge/server/internal/api"
	"github.com/quranchallenge/server/internal/auth"
	"github.com/quranchallenge/server/internal/config"
	"github.com/quranchallenge/server/internal/metrics"
	"github.com/quranchallenge/server/internal/validation"
	"github.com/quranchallenge/server/usecase"
)

type stores struct {
	readings   repositories.ReadingRepository
	historical repositories.HistoricalEntryRepository
	users      repositories.UserRepository
	close      func(context.Context) error
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	metricsManager := metrics.NewManager(metrics.WithNamespace("quran_challenge"))
	validator := validation.New()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	submissions := usecase.NewSubmissionService(st.readings, st.historical, validator, metricsManager, logger)
	queries := usecase.NewQueryService(st.readings, cfg.LeaderboardLimit, cfg.ChildLeaderboardLimit, logger)
	authService, err := usecase.NewAuthService(st.users, tokens, validator, metricsManager, logger, 0)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	e := api.NewServer(api.Dependencies{
		Submissions: submissions,
		Queries:     queries,
		Auth:        authService,
		Validator:   validator,
		Metrics:     metricsManager,
		Logger:      logger,
	}, api.Options{
		StaticDir: cfg.StaticDir,
		RateLimit: cfg.RateLimit,
	})

	go func() {
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.Int("port", cfg.Port),
		zap.Bool("memory_store", cfg.UseMemoryStore))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := st.close(shutdownCtx); err != nil {
		logger.Error("Failed to close storage", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.UseMemoryStore {
		logger.Warn("Using in-memory store, data will not survive a restart")
		return &stores{
			readings:   adapters.NewMemoryReadingRepository(),
			historical: adapters.NewMemoryHistoricalEntryRepository(),
			users:      adapters.NewMemoryUserRepository(),
			close:      func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongoadapter.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, err
	}

	readings := mongoadapter.NewReadingRepository(client.Database, logger)
	users := mongoadapter.NewUserRepository(client.Database, logger)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := readings.EnsureIndexes(indexCtx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	if err := users.EnsureIndexes(indexCtx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}

	return &stores{
		readings:   readings,
		historical: mongoadapter.NewHistoricalEntryRepository(client.Database, logger),
		users:      users,
		close:      client.Close,
	}, nil
}
