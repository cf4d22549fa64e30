package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reminder ReminderConfig
	Hub      HubConfig
	Firebase FirebaseConfig
	Admin    AdminConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Driver selects the project store: "postgres" or "memory".
	Driver   string
	DSN      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// QueueKey is the list notification intents are pushed onto.
	QueueKey string
}

type ReminderConfig struct {
	Cron      string
	Lookahead time.Duration
	Timezone  string
}

type HubConfig struct {
	SendBuffer      int
	RateLimit       float64
	RateBurst       int
	MaxMessageBytes int64
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AdminConfig struct {
	// UserIDs may call the /admin routes. Empty means nobody can.
	UserIDs []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFile     string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", "postgres"),
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			QueueKey: getEnv("NOTIFY_QUEUE_KEY", "notify:intents"),
		},
		Reminder: ReminderConfig{
			Cron:      getEnv("REMINDER_CRON", "@daily"),
			Lookahead: getEnvAsDuration("REMINDER_LOOKAHEAD", 48*time.Hour),
			Timezone:  getEnv("REMINDER_TIMEZONE", "UTC"),
		},
		Hub: HubConfig{
			SendBuffer:      getEnvAsInt("HUB_SEND_BUFFER", 64),
			RateLimit:       getEnvAsFloat("HUB_RATE_LIMIT", 20),
			RateBurst:       getEnvAsInt("HUB_RATE_BURST", 40),
			MaxMessageBytes: int64(getEnvAsInt("HUB_MAX_MESSAGE_BYTES", 16*1024)),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Admin: AdminConfig{
			UserIDs: getEnvAsList("ADMIN_USER_IDS", nil),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFile:     getEnv("LOG_FILE", ""),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required when STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Database.Driver)
	}

	if c.Reminder.Lookahead <= 0 {
		return fmt.Errorf("REMINDER_LOOKAHEAD must be positive")
	}
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		return fmt.Errorf("invalid REMINDER_TIMEZONE: %w", err)
	}

	if c.Hub.SendBuffer <= 0 {
		return fmt.Errorf("HUB_SEND_BUFFER must be positive")
	}

	return nil
}

// Location returns the time zone reminder days are counted in.
func (r ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
