package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Vast-Academy/codeonwork-checkout/internal/cache"
	"github.com/Vast-Academy/codeonwork-checkout/internal/cart"
	"github.com/Vast-Academy/codeonwork-checkout/internal/checkout"
	h "github.com/Vast-Academy/codeonwork-checkout/internal/http"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/publisher"
	"github.com/Vast-Academy/codeonwork-checkout/internal/repository"
	"github.com/Vast-Academy/codeonwork-checkout/internal/session"
	"github.com/Vast-Academy/codeonwork-checkout/pkg/logger"
)

type Config struct {
	HTTPPort        string
	PlatformBaseURL string
	RedisAddr       string
	KafkaBrokers    string
	UpstreamTimeout time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "http://localhost:3000"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		UpstreamTimeout: 5 * time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	log := logger.New(logger.Options{
		Service:   "checkoutd",
		Env:       getEnv("APP_ENV", "dev"),
		Level:     getEnv("LOG_LEVEL", "info"),
		AddSource: false,
	})
	log.Info("checkoutd starting")

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Error("invalid DB_PORT", "error", err)
		os.Exit(1)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "checkout"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	store, err := repository.NewStore(creds)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.RunMigrations(creds); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database migrations completed")

	// Redis-backed session counters
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	sessionCache := cache.NewRedisCache(redisClient)

	// Upstream platform API
	platformClient := platform.NewClient(cfg.PlatformBaseURL, cfg.UpstreamTimeout)

	state := session.New(sessionCache, platformClient, log)
	cartService := cart.NewService(platformClient, state, log)
	checkoutService := checkout.NewService(platformClient, store, state, log)

	cartHandler := h.NewCartHandler(cartService, cfg.UpstreamTimeout)
	checkoutHandler := h.NewCheckoutHandler(cartService, checkoutService, state, cfg.RequestTimeout)

	// Outbox poller publishes completed attempts to kafka
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	poller := publisher.NewOutboxPoller(store, log, cfg.KafkaBrokers)
	go poller.Run(pollerCtx)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.SessionMiddleware)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/{line_id}/increase", cartHandler.IncreaseQuantity)
			r.Post("/{line_id}/decrease", cartHandler.DecreaseQuantity)
			r.Post("/{line_id}/delete", cartHandler.DeleteLine)
		})
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/session", checkoutHandler.SessionCounters)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("checkoutd listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := poller.Close(); err != nil {
		log.Warn("closing kafka writer", "error", err)
	}

	log.Info("checkoutd stopped")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
