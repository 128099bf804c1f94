package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
)

type Config struct {
	Server   ServerConfig
	Sources  SourcesConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	GinMode         string
}

type SourcesConfig struct {
	Enabled             []string
	HololiveAPIURL      string
	HololiveScheduleURL string
	EnableScraper       bool
	NijisanjiAPIBase    string
	LiverFile           string
	IconFile            string
	IconBaseURL         string
	DefaultIcon         string
	RequestTimeout      time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RefreshConfig struct {
	Interval time.Duration
	Timezone string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Sources: SourcesConfig{
			Enabled:             parseCommaSeparated(getEnv("SOURCES", "hololive,nijisanji")),
			HololiveAPIURL:      getEnv("HOLOLIVE_API_URL", constants.APIConfig.HololiveScheduleAPI),
			HololiveScheduleURL: getEnv("HOLOLIVE_SCHEDULE_URL", constants.APIConfig.HololiveScheduleHTML),
			EnableScraper:       getEnvBool("HOLOLIVE_SCRAPER_FALLBACK", true),
			NijisanjiAPIBase:    getEnv("NIJISANJI_API_BASE", constants.APIConfig.NijisanjiAPIBase),
			LiverFile:           getEnv("NIJISANJI_LIVER_FILE", "data/livers.json"),
			IconFile:            getEnv("ICON_FILE", ""),
			IconBaseURL:         getEnv("ICON_BASE_URL", ""),
			DefaultIcon:         getEnv("DEFAULT_ICON", constants.Placeholder.DefaultIcon),
			RequestTimeout:      getEnvDuration("SOURCE_TIMEOUT", constants.APIConfig.RequestTimeout),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "liver"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "liver_streams"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Refresh: RefreshConfig{
			Interval: getEnvDuration("REFRESH_INTERVAL", constants.RefreshConfig.DefaultInterval),
			Timezone: getEnv("SCHEDULE_TIMEZONE", "Asia/Tokyo"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Sources.Enabled) == 0 {
		return fmt.Errorf("SOURCES must name at least one agency")
	}
	for _, name := range c.Sources.Enabled {
		if !domain.Affiliation(name).IsValid() {
			return fmt.Errorf("unknown source %q in SOURCES (known: %v)", name, domain.Affiliations())
		}
	}
	if c.SourceEnabled("hololive") && c.Sources.HololiveAPIURL == "" {
		return fmt.Errorf("HOLOLIVE_API_URL is required")
	}
	if c.SourceEnabled("nijisanji") && c.Sources.NijisanjiAPIBase == "" {
		return fmt.Errorf("NIJISANJI_API_BASE is required")
	}
	if c.Refresh.Interval < constants.RefreshConfig.MinInterval {
		return fmt.Errorf("REFRESH_INTERVAL must be at least %s", constants.RefreshConfig.MinInterval)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	return nil
}

func (c *Config) SourceEnabled(name string) bool {
	for _, enabled := range c.Sources.Enabled {
		if enabled == name {
			return true
		}
	}
	return false
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, strings.ToLower(trimmed))
		}
	}
	return result
}
