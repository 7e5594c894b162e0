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

	"stickygoals/internal/completion"
	"stickygoals/internal/config"
	"stickygoals/internal/db"
	"stickygoals/internal/handlers"
	"stickygoals/internal/identity"
	"stickygoals/internal/ratelimit"
	"stickygoals/internal/services"
	"stickygoals/internal/store"
	"stickygoals/internal/store/memory"
	"stickygoals/internal/store/mongostore"
	"stickygoals/internal/store/postgres"
)

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(conn, logger), nil
	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		logger.Warn("no database configured; data lives in memory and is lost on restart")
		return memory.New(), nil
	}
}

func buildVerifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (identity.Chain, *identity.JWTIssuer, error) {
	var chain identity.Chain
	var issuer *identity.JWTIssuer
	if cfg.JWTSecret != "" {
		issuer = identity.NewJWTIssuer([]byte(cfg.JWTSecret))
		chain = append(chain, issuer)
	}
	if cfg.FirebaseCredsFile != "" {
		fb, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseCredsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, fb)
	}
	return chain, issuer, nil
}

func buildLimiter(cfg config.Config, logger *zap.Logger) (ratelimit.Limiter, func() error) {
	if cfg.RedisAddr == "" || cfg.GenerateRateLimit == 0 {
		return ratelimit.Unlimited{}, func() error { return nil }
	}
	rdb := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	logger.Info("rate limiting /generate-steps", zap.String("redis", cfg.RedisAddr), zap.Int("per_minute", cfg.GenerateRateLimit))
	return ratelimit.NewRedisLimiter(rdb, cfg.GenerateRateLimit, time.Minute), rdb.Close
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := openStore(startCtx, cfg, logger)
	if err != nil {
		cancel()
		logger.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	verifier, issuer, err := buildVerifier(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to set up identity provider", zap.Error(err))
	}

	enc, err := services.NewEncryptionServiceFromKeys(cfg.EncryptionKey, cfg.BlindIndexKey)
	if err != nil {
		logger.Fatal("invalid encryption keys", zap.Error(err))
	}
	if !enc.Enabled() {
		logger.Warn("encryption keys not set; text is stored in clear")
	}

	var steps services.StepGenerator
	if cfg.CompletionAPIKey != "" {
		var opts []completion.Option
		if cfg.CompletionURL != "" {
			opts = append(opts, completion.WithURL(cfg.CompletionURL))
		}
		if cfg.CompletionModel != "" {
			opts = append(opts, completion.WithModel(cfg.CompletionModel))
		}
		steps = completion.NewClient(cfg.CompletionAPIKey, logger, opts...)
	} else {
		logger.Warn("COMPLETION_API_KEY not set; /generate-steps will fail")
	}

	limiter, closeLimiter := buildLimiter(cfg, logger)
	svc := services.NewGoalService(st, enc, steps, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Service:     svc,
		Store:       st,
		Verifier:    verifier,
		Issuer:      issuer,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := st.Close(ctx); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	if err := closeLimiter(); err != nil {
		logger.Error("redis close", zap.Error(err))
	}
	logger.Info("server stopped")
}
