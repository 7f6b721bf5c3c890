package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Database drivers supported by Connect.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the gradebook service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	GradebookCacheTTL time.Duration
	GradebookLocale   language.Tag
	GradingRateLimit  int
	EventsChannel     string
	StreamKeepAlive   time.Duration
	SeedEnabled       bool
	SeedToken         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs in a development environment.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Gradebook API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("gradebook.cache_ttl", "2m")
	v.SetDefault("gradebook.locale", "en")
	v.SetDefault("gradebook.stream_keepalive", "15s")
	v.SetDefault("grading.rate_limit", 60)
	v.SetDefault("events.channel", "gradebook")
	v.SetDefault("seed.enabled", false)

	ttl, err := time.ParseDuration(v.GetString("gradebook.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid gradebook cache ttl: %w", err)
	}

	keepAlive, err := time.ParseDuration(v.GetString("gradebook.stream_keepalive"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid gradebook stream keepalive: %w", err)
	}

	locale, err := language.Parse(v.GetString("gradebook.locale"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid gradebook locale: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		GradebookCacheTTL: ttl,
		GradebookLocale:   locale,
		GradingRateLimit:  v.GetInt("grading.rate_limit"),
		EventsChannel:     v.GetString("events.channel"),
		StreamKeepAlive:   keepAlive,
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.GradingRateLimit <= 0 {
		cfg.GradingRateLimit = 60
	}

	return cfg, nil
}
