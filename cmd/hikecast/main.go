package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/hikecast-alerts/internal/adapter/email"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/gemini"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/hikecast-alerts/internal/adapter/kafka"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/openmeteo"
	redisadapter "github.com/couchcryptid/hikecast-alerts/internal/adapter/redis"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/sqlite"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/telegram"
	"github.com/couchcryptid/hikecast-alerts/internal/adapter/whatsapp"
	"github.com/couchcryptid/hikecast-alerts/internal/config"
	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/notify"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
	"github.com/couchcryptid/hikecast-alerts/internal/pipeline"
	"github.com/couchcryptid/hikecast-alerts/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open user store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	// Weather gateway with an in-process geocode cache and an optional
	// shared snapshot cache (REDIS_ADDR).
	weatherClient := openmeteo.NewClient(cfg.GeocodingURL, cfg.ForecastURL, cfg.ForecastDays, cfg.WeatherTimeout, logger)
	geocoder := openmeteo.NewCachedGeocoder(weatherClient, cfg.GeocodeCacheSize, metrics)
	var snapshots openmeteo.SnapshotCache
	if cfg.RedisEnabled() {
		client, err := redisadapter.NewClient(ctx, cfg)
		if err != nil {
			logger.Warn("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			defer client.Close()
			snapshots = redisadapter.NewSnapshotCache(client, "")
			logger.Info("redis snapshot cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.WeatherCacheTTL)
		}
	}
	gateway := openmeteo.NewGateway(geocoder, weatherClient, snapshots, cfg.WeatherCacheTTL, metrics, logger)

	senders := make(map[domain.Channel]notify.Sender)
	if cfg.TelegramEnabled() {
		senders[domain.ChannelTelegram] = telegram.NewSender(cfg.TelegramBotToken, cfg.WeatherTimeout, logger)
	}
	if cfg.EmailEnabled() {
		senders[domain.ChannelEmail] = email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	}
	if cfg.WhatsAppEnabled() {
		senders[domain.ChannelWhatsApp] = whatsapp.NewSender(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WeatherTimeout, logger)
	}
	if len(senders) == 0 {
		logger.Warn("no notification channels configured, deliveries will fail")
	}

	var enricher notify.Enricher
	if cfg.GeminiEnabled() {
		enricher = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
		logger.Info("gemini enrichment enabled", "model", cfg.GeminiModel)
	}
	notifier := notify.New(senders, enricher, metrics, logger)

	var (
		publisher pipeline.AlertPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("alert events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	}

	p := pipeline.New(gateway, domain.NewAnalyzer(domain.DefaultThresholds()), notifier, publisher, store,
		pipeline.Options{Concurrency: cfg.CheckConcurrency, StatusUpdates: cfg.StatusUpdatesEnabled},
		logger, metrics)

	extreme := scheduler.New(scheduler.Plan{
		Kind:     string(pipeline.KindExtreme),
		Include:  func(u domain.User) bool { return u.EnableExtremeWeatherAlerts },
		Spec:     domain.User.CheckInterval,
		Job:      func(ctx context.Context, runID string, users []domain.User) { p.CheckUsers(ctx, runID, users) },
		Timeout:  cfg.CheckTimeout,
		Location: time.UTC,
	}, store, metrics, logger)
	routine := scheduler.New(scheduler.Plan{
		Kind:    string(pipeline.KindRoutine),
		Spec:    domain.User.NotificationSchedule,
		Job:     func(ctx context.Context, runID string, users []domain.User) { p.NotifyUsers(ctx, runID, users) },
		Timeout: cfg.CheckTimeout,
	}, store, metrics, logger)

	for _, s := range []*scheduler.Scheduler{extreme, routine} {
		if err := s.Reschedule(ctx); err != nil {
			logger.Error("initial schedule failed", "error", err)
		}
	}

	features := map[string]bool{
		string(domain.ChannelTelegram): cfg.TelegramEnabled(),
		string(domain.ChannelEmail):    cfg.EmailEnabled(),
		string(domain.ChannelWhatsApp): cfg.WhatsAppEnabled(),
		"gemini":                       cfg.GeminiEnabled(),
		"redis":                        snapshots != nil,
		"kafka":                        cfg.KafkaEnabled(),
	}
	api := httpadapter.NewAPI(store, p, map[string]httpadapter.Rescheduler{
		string(pipeline.KindExtreme): extreme,
		string(pipeline.KindRoutine): routine,
	}, features, cfg.CheckTimeout, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	extreme.Stop(shutdownCtx)
	routine.Stop(shutdownCtx)
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("user store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
