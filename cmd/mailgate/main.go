package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/layer-3/mailgate/adapters/events"
	"github.com/layer-3/mailgate/adapters/mailer"
	"github.com/layer-3/mailgate/adapters/store"
	"github.com/layer-3/mailgate/config"
	"github.com/layer-3/mailgate/gate"
	"github.com/layer-3/mailgate/ratelimit"
	"github.com/layer-3/mailgate/secure"
	"github.com/layer-3/mailgate/service"
	"github.com/layer-3/mailgate/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Parse Redis URL and create the shared client.
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	// The durable store is best-effort: the client connects lazily, so a
	// Redis outage at startup only means the limiter runs on the in-memory
	// fallback until the store becomes reachable.
	memoryStore := store.NewMemoryStore(cfg.RateLimitWindow, cfg.RateLimitWindow)
	limiterStore := store.NewFallbackStore(store.NewRedisStore(redisClient), memoryStore, logger)
	defer limiterStore.Close()

	limiter := ratelimit.NewLimiter(limiterStore, ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxRequests: cfg.RateLimitMax,
	}, logger)

	mode := gate.ModeLenient
	if cfg.Production() {
		mode = gate.ModeStrict
	}
	contentGate := gate.NewGate(gate.Config{
		Mode:                 mode,
		AllowedSenderDomains: cfg.AllowedSenderDomains,
		VerifyMX:             cfg.VerifyMX,
	}, logger)

	smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create mailer", zap.Error(err))
	}

	// Initialize the Watermill Redis publisher for audit events.
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	eventPub := events.NewWatermillPublisher(publisher, cfg.HMACKey)

	dispatch, err := service.NewDispatchService(limiter, contentGate, smtpMailer, eventPub, service.Config{
		From: cfg.MailFrom,
		To:   cfg.MailTo,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create dispatch service", zap.Error(err))
	}

	twoFactor := secure.NewTwoFactor("mailgate")

	router := http.SetupRouter(dispatch, twoFactor)

	logger.Info("starting mailgate", zap.String("port", cfg.HTTPPort))
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
