package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Checkin       CheckinConfig
	Notifications NotificationsConfig
	Dashboard     DashboardConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CheckinConfig tunes the bag lifecycle manager.
type CheckinConfig struct {
	TagPrefix      string
	MaxTagAttempts int
	StreakHistory  int
}

// NotificationsConfig governs the outbox workers and the email sender.
type NotificationsConfig struct {
	Enabled       bool
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
	ResendAPIKey  string
	ResendBaseURL string
	FromAddress   string
	ReplyTo       string
}

// DashboardConfig governs active-list caching and the live event feed.
type DashboardConfig struct {
	CacheTTL     time.Duration
	EventChannel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Checkin = CheckinConfig{
		TagPrefix:      v.GetString("TAG_PREFIX"),
		MaxTagAttempts: v.GetInt("TAG_MAX_ATTEMPTS"),
		StreakHistory:  v.GetInt("STREAK_HISTORY_LIMIT"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:       v.GetBool("ENABLE_NOTIFICATIONS"),
		Workers:       v.GetInt("NOTIFICATION_WORKERS"),
		MaxRetries:    v.GetInt("NOTIFICATION_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("NOTIFICATION_RETRY_DELAY"), 5*time.Second),
		ResendAPIKey:  v.GetString("RESEND_API_KEY"),
		ResendBaseURL: v.GetString("RESEND_BASE_URL"),
		FromAddress:   v.GetString("NOTIFICATION_FROM"),
		ReplyTo:       v.GetString("NOTIFICATION_REPLY_TO"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 15*time.Second),
		EventChannel: v.GetString("DASHBOARD_EVENT_CHANNEL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "unilibrary_bagdesk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "bagdesk-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TAG_PREFIX", "LIB")
	v.SetDefault("TAG_MAX_ATTEMPTS", 50)
	v.SetDefault("STREAK_HISTORY_LIMIT", 30)

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATION_RETRY_DELAY", "5s")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("NOTIFICATION_FROM", "bagdesk@unilibrary.app")
	v.SetDefault("NOTIFICATION_REPLY_TO", "support@unilibrary.app")

	v.SetDefault("DASHBOARD_CACHE_TTL", "15s")
	v.SetDefault("DASHBOARD_EVENT_CHANNEL", "bagdesk:events")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
