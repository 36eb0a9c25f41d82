package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabasePath string

	// Open-Meteo weather gateway.
	GeocodingURL     string
	ForecastURL      string
	WeatherTimeout   time.Duration
	ForecastDays     int
	GeocodeCacheSize int

	// Redis snapshot cache, enabled when RedisAddr is set.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	WeatherCacheTTL time.Duration

	// Alert event stream, enabled when KafkaBrokers is non-empty.
	KafkaBrokers    []string
	KafkaAlertTopic string

	// Channel credentials. A channel is enabled when its credentials are set.
	TelegramBotToken      string
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	SMTPFrom              string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string

	// Gemini enrichment, enabled when GeminiAPIKey is set.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	CheckConcurrency     int
	CheckTimeout         time.Duration
	StatusUpdatesEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	geminiTimeout, err := parsePositiveDuration("GEMINI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	checkTimeout, err := parsePositiveDuration("CHECK_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}

	forecastDays, err := parseInt("FORECAST_DAYS", 7)
	if err != nil {
		return nil, err
	}
	smtpPort, err := parseInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("CHECK_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	smtpUser := os.Getenv("SMTP_USER")
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabasePath: sharedcfg.EnvOrDefault("DATABASE_PATH", "hikecast.db"),

		GeocodingURL:     sharedcfg.EnvOrDefault("OPEN_METEO_GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		ForecastURL:      sharedcfg.EnvOrDefault("OPEN_METEO_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:   weatherTimeout,
		ForecastDays:     forecastDays,
		GeocodeCacheSize: parseGeocodeCacheSize(),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,
		WeatherCacheTTL: cacheTTL,

		KafkaBrokers:    brokers,
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "extreme-weather-alerts"),

		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		SMTPHost:              sharedcfg.EnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:              smtpPort,
		SMTPUser:              smtpUser,
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:              sharedcfg.EnvOrDefault("SMTP_FROM", smtpUser),
		WhatsAppAccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout: geminiTimeout,

		CheckConcurrency:     concurrency,
		CheckTimeout:         checkTimeout,
		StatusUpdatesEnabled: os.Getenv("STATUS_UPDATES_ENABLED") == "true",
	}

	if cfg.ForecastDays < 1 || cfg.ForecastDays > 16 {
		return nil, errors.New("FORECAST_DAYS must be between 1 and 16")
	}
	if cfg.CheckConcurrency < 1 {
		return nil, errors.New("CHECK_CONCURRENCY must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}
	if (cfg.WhatsAppAccessToken == "") != (cfg.WhatsAppPhoneNumberID == "") {
		return nil, errors.New("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set together")
	}

	return cfg, nil
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool { return c.TelegramBotToken != "" }

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool { return c.SMTPUser != "" && c.SMTPPassword != "" }

// WhatsAppEnabled reports whether WhatsApp delivery is configured.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppAccessToken != "" && c.WhatsAppPhoneNumberID != ""
}

// GeminiEnabled reports whether AI enrichment is configured.
func (c *Config) GeminiEnabled() bool { return c.GeminiAPIKey != "" }

// RedisEnabled reports whether the snapshot cache is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// KafkaEnabled reports whether alert events are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
