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

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Config struct {
	Env  string
	Port int

	Upstream UpstreamConfig
	Session  SessionConfig
	Redis    RedisConfig
	Log      LogConfig
	Exports  ExportsConfig
}

// UpstreamConfig points at the remote performance API.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig governs the browser session cookie and token storage.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Store      string
	Secure     bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig toggles score-history downloads.
type ExportsConfig struct {
	Enabled bool
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

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		CookieName: v.GetString("SESSION_COOKIE"),
		Store:      v.GetString("SESSION_STORE"),
		Secure:     v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_COOKIE", "spt_session")
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORTS", true)
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
