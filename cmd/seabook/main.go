package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"seabook/internal/app/policies"
	"seabook/internal/app/services/reservation"
	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/infra/broker/kafka"
	"seabook/internal/infra/config"
	"seabook/internal/infra/db/mongo"
	ginserver "seabook/internal/infra/http/gin"
	"seabook/internal/infra/obs"
	"seabook/internal/infra/security"
	"seabook/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	bookings, readyChecks, err := buildBookingStorage(cfg)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	var publisher policies.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = &kafka.EventPublisher{
			Producer:    producer,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Logger:      logger,
		}
		logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Warn("no kafka brokers configured, events will not be published")
	}

	pricingStore := memory.NewPricingStore()
	inventoryStore := memory.NewInventoryStore()
	service := &reservation.Service{
		Bookings:        bookings,
		Pricing:         pricingStore,
		Inventory:       inventoryStore,
		Events:          publisher,
		Logger:          logger,
		DefaultCapacity: cfg.DefaultCapacity,
	}

	handlers := ginserver.Handlers{
		Quote:         ginserver.QuoteHandler{Service: service},
		Booking:       ginserver.BookingHandler{Service: service},
		DefaultTenant: cfg.DefaultTenant,
	}
	if cfg.AdminJWTSecret != "" {
		tokens := security.TokenManager{Secret: []byte(cfg.AdminJWTSecret)}
		handlers.Admin = ginserver.AdminHandler{Store: pricingStore, Inventory: inventoryStore}
		handlers.AdminMiddleware = ginserver.RequireAdmin(tokens)
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set, admin API disabled")
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: readyChecks}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildBookingStorage(cfg config.Config) (domainbooking.Repository, map[string]func(ctx context.Context) error, error) {
	if cfg.StorageMode != "mongo" {
		return memory.NewBookingRepository(), nil, nil
	}
	client, err := mongo.New(cfg.MongoURI, cfg.MongoDB, cfg.MongoConnectWait)
	if err != nil {
		return nil, nil, err
	}
	checks := map[string]func(ctx context.Context) error{
		"mongo": func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return client.Ping(ctx)
		},
	}
	return mongo.NewBookingRepository(client.DB), checks, nil
}
