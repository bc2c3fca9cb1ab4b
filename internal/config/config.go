package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ClinicConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Sentry struct {
		DSN         string `yaml:"dsn"`
		Environment string `yaml:"environment"`
		Release     string `yaml:"release"`
	} `yaml:"sentry"`
	PDF struct {
		FontPath string `yaml:"font_path"`
	} `yaml:"pdf"`

	Clinic   ClinicConfig   `yaml:"clinic"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Telegram TelegramConfig `yaml:"telegram"`

	location *time.Location
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and resolves the clinic time zone. A missing file is not an
// error: everything can come from the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("CONFIG_PATH", DefaultPath)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	loc, err := time.LoadLocation(cfg.Clinic.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clinic timezone %q: %w", cfg.Clinic.Timezone, err)
	}
	cfg.location = loc

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	return &cfg, nil
}

// Location is the clinic's time zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Email.SMTPPassword = getEnv("SMTP_PASSWORD", c.Email.SMTPPassword)
	c.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	c.Sentry.DSN = getEnv("SENTRY_DSN", c.Sentry.DSN)
	c.Clinic.Timezone = getEnv("CLINIC_TIMEZONE", c.Clinic.Timezone)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Clinic.Name == "" {
		c.Clinic.Name = "Dental Clinic"
	}
	if c.Clinic.Timezone == "" {
		c.Clinic.Timezone = "UTC"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "clinicdesk.changes"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Sentry.Environment == "" {
		c.Sentry.Environment = getEnv("APP_ENV", "development")
	}
	if c.Sentry.Release == "" {
		c.Sentry.Release = getEnv("APP_VERSION", "dev")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
