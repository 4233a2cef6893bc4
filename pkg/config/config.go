package config

import (
	"errors"
	"fmt"
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
	Matching      MatchingConfig
	Maps          MapsConfig
	IoT           IoTConfig
	Payments      PaymentsConfig
	Notifications NotificationsConfig
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

// MatchingConfig tunes the plumber search and ranking engine.
type MatchingConfig struct {
	BaseRadiusKm      float64
	HighRadiusKm      float64
	EmergencyRadiusKm float64
	MaxCandidates     int
	CacheTTL          time.Duration
}

// MapsConfig configures the external distance-matrix provider.
type MapsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// IoTConfig guards the sensor ingestion endpoints.
type IoTConfig struct {
	APIKey string
}

// PaymentsConfig holds processor credentials for the gating reads.
type PaymentsConfig struct {
	Currency string
}

// NotificationsConfig tunes the status-event dispatcher.
type NotificationsConfig struct {
	Channel    string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Matching = MatchingConfig{
		BaseRadiusKm:      v.GetFloat64("MATCHING_BASE_RADIUS_KM"),
		HighRadiusKm:      v.GetFloat64("MATCHING_HIGH_RADIUS_KM"),
		EmergencyRadiusKm: v.GetFloat64("MATCHING_EMERGENCY_RADIUS_KM"),
		MaxCandidates:     v.GetInt("MATCHING_MAX_CANDIDATES"),
		CacheTTL:          parseDuration(v.GetString("MATCHING_CACHE_TTL"), 30*time.Second),
	}
	if cfg.Matching.EmergencyRadiusKm < cfg.Matching.HighRadiusKm ||
		cfg.Matching.HighRadiusKm < cfg.Matching.BaseRadiusKm {
		return nil, fmt.Errorf("matching radii must satisfy emergency >= high >= base")
	}

	cfg.Maps = MapsConfig{
		BaseURL: v.GetString("MAPS_BASE_URL"),
		APIKey:  v.GetString("MAPS_API_KEY"),
		Timeout: parseDuration(v.GetString("MAPS_TIMEOUT"), 3*time.Second),
	}

	cfg.IoT = IoTConfig{
		APIKey: v.GetString("IOT_API_KEY"),
	}

	cfg.Payments = PaymentsConfig{
		Currency: v.GetString("PAYMENTS_CURRENCY"),
	}

	cfg.Notifications = NotificationsConfig{
		Channel:    v.GetString("NOTIFICATIONS_CHANNEL"),
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), time.Second),
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
	v.SetDefault("DB_NAME", "aquaflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "aquaflow-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATCHING_BASE_RADIUS_KM", 10.0)
	v.SetDefault("MATCHING_HIGH_RADIUS_KM", 15.0)
	v.SetDefault("MATCHING_EMERGENCY_RADIUS_KM", 25.0)
	v.SetDefault("MATCHING_MAX_CANDIDATES", 10)
	v.SetDefault("MATCHING_CACHE_TTL", "30s")

	v.SetDefault("MAPS_BASE_URL", "https://maps.googleapis.com/maps/api/distancematrix/json")
	v.SetDefault("MAPS_API_KEY", "")
	v.SetDefault("MAPS_TIMEOUT", "3s")

	v.SetDefault("IOT_API_KEY", "dev_iot_key")

	v.SetDefault("PAYMENTS_CURRENCY", "usd")

	v.SetDefault("NOTIFICATIONS_CHANNEL", "aquaflow:events")
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "1s")
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
