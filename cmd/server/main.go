package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sujalbistaa/scamwatch/internal/auth"
	"github.com/sujalbistaa/scamwatch/internal/config"
	"github.com/sujalbistaa/scamwatch/internal/db"
	routes "github.com/sujalbistaa/scamwatch/internal/http"
	"github.com/sujalbistaa/scamwatch/internal/moderation"
	"github.com/sujalbistaa/scamwatch/internal/store"
	"github.com/sujalbistaa/scamwatch/internal/ws"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine in production, where env vars are set directly.
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)
	if envErr != nil {
		logger.Debug("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	database, err := db.Init(ctx, cfg.DatabaseURL, cfg.LogLevel == slog.LevelDebug)
	if err != nil {
		return err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	logger.Info("running database migrations")
	if err := db.Migrate(database); err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	if err := db.Bootstrap(ctx, database, db.BootstrapOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		SeedDemo:      cfg.SeedDemo,
		Hasher:        hasher,
	}); err != nil {
		return err
	}

	// 2. Services
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	users := store.NewUserStore(database)
	warnings := store.NewWarningStore(database)
	engine := moderation.NewEngine(users, store.NewCategoryStore(database), warnings, moderation.NewMetrics(registry))
	comments := moderation.NewComments(warnings, store.NewCommentStore(database))
	accounts := auth.NewAccounts(users, hasher, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))

	// 3. Live feed
	hub := ws.NewHub()
	go hub.Run(ctx)

	// 4. Router
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(ctx, router, &routes.Env{
		Engine:   engine,
		Comments: comments,
		Accounts: accounts,
		Hub:      hub,
		DB:       sqlDB,
	}, routes.Options{
		CORSOrigin:     cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
		Registry:       registry,
	})

	// 5. Serve with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exiting")
	return nil
}
