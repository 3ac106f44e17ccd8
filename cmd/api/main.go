package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/account"
	"storefront/internal/cache"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/consul"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/server"
	"storefront/internal/token"
	"storefront/internal/users"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.SetDefault(logger.New(cfg.LogLevel, cfg.LogFormat))
	slog.Info("Starting storefront API", "port", cfg.Port, "origins", cfg.AllowedOrigins)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(startCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(startCtx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()
	slog.Info("Connected to database")

	store, err := users.NewStore(users.NewPostgresRepository(db.Pool()), cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to create credential store: %v", err)
	}

	issuer, err := token.NewIssuer(cfg.SigningSecret)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	var opts []account.Option
	if cfg.CacheEnabled() {
		redisStore := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisStore.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisStore.Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Warn("Redis unreachable, profile cache entries will miss until it recovers", "addr", cfg.RedisAddr, "error", err)
		} else {
			slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		}
		opts = append(opts, account.WithProfileCache(cache.NewProfiles(redisStore, cfg.ProfileCacheTTL)))
	}

	if cfg.StripeKey == "" {
		slog.Warn("STRIPE_SECRET_KEY is not set, checkout requests will fail")
	}

	m := metrics.New()
	srv := server.NewServer(cfg, server.Deps{
		Database:  db,
		Accounts:  account.NewService(store, issuer, cfg.TokenTTL, opts...),
		Verifier:  issuer,
		Processor: checkout.NewStripeProcessor(cfg.StripeKey, cfg.SuccessURL, cfg.CancelURL),
		Metrics:   m,
	})

	var registrar consul.ServiceRegistrar
	var serviceID string
	if cfg.ConsulEnabled() {
		client, err := consul.NewClient(cfg.ConsulAddr, cfg.ConsulToken)
		if err != nil {
			log.Fatalf("Failed to create Consul client: %v", err)
		}
		svc := consul.APIService(cfg.ServiceHost, cfg.Port)

		// Clean up a registration left behind by a crashed instance.
		_ = client.Deregister(svc.ID)

		if err := client.Register(svc); err != nil {
			log.Fatalf("Failed to register service with Consul: %v", err)
		}
		registrar, serviceID = client, svc.ID
		slog.Info("Registered with Consul", "service_id", serviceID)
	}

	go func() {
		slog.Info("Storefront API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down storefront API")

	if registrar != nil {
		if err := registrar.Deregister(serviceID); err != nil {
			slog.Error("Failed to deregister from Consul", "error", err)
		} else {
			slog.Info("Deregistered from Consul")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}

	slog.Info("Storefront API stopped")
}
