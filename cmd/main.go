package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/opuscm/users/internal/bus"
	"github.com/opuscm/users/internal/claims"
	"github.com/opuscm/users/internal/config"
	"github.com/opuscm/users/internal/database"
	"github.com/opuscm/users/internal/httpx"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/internal/identity/embedded"
	"github.com/opuscm/users/internal/identity/rest"
	"github.com/opuscm/users/internal/middleware"
	"github.com/opuscm/users/internal/user"
	"go.uber.org/zap"
	"moul.io/chizap"
)

func main() {
	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// identity provider: built once, injected everywhere
	var provider identity.Provider
	switch cfg.ProviderConfig.Mode {
	case config.ModeRest:
		provider = rest.New(
			cfg.ProviderConfig.BaseURL,
			cfg.ProviderConfig.APIKey,
			cfg.ProviderConfig.CallTimeout,
			logger,
		)
		logger.Info("users service connected to identity provider",
			zap.String("base_url", cfg.ProviderConfig.BaseURL),
		)
	case config.ModeEmbedded:
		db, err := database.Init(database.Options{
			DSN:             cfg.DbConfig.DSN,
			MaxOpenConns:    cfg.DbConfig.MaxOpenConns,
			MaxIdleConns:    cfg.DbConfig.MaxIdleConns,
			MaxConnLifetime: cfg.DbConfig.MaxConnLifetime,
		})
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		database.SetMigrationLogger(logger)
		if err := database.Migrate(context.Background(), db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}

		provider = embedded.New(
			db,
			cfg.ProviderConfig.TokenSecret,
			cfg.ProviderConfig.TokenIssuer,
			cfg.ProviderConfig.TokenTTL,
			logger,
		)
		logger.Info("users service running with embedded identity provider")
	}

	// event bus, fire-and-forget
	publisher := bus.Noop()
	if cfg.BusConfig.URL != "" {
		publisher, err = bus.Connect(cfg.BusConfig.URL, cfg.BusConfig.ClientName, logger)
		if err != nil {
			logger.Error("failed to connect to event bus, events disabled", zap.Error(err))
			publisher = bus.Noop()
		}
	}
	defer publisher.Close()

	// wire the core
	claimsManager := claims.NewManager(provider, logger)
	factory := user.NewFactory(claimsManager, logger)
	service := user.NewService(provider, claimsManager, factory, publisher, logger)
	authMiddleware := middleware.NewAuth(provider, logger)
	handler := user.NewHandler(service, authMiddleware, logger)

	// router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chizap.New(logger, &chizap.Opts{WithReferer: false, WithUserAgent: false}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "this is the root endpoint."})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/users", handler.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("users service listening", zap.String("port", cfg.AppConfig.Port))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("users service stopped")
}
