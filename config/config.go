package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "mess_management_dev_secret"

// Config holds all configuration for the application
type Config struct {
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`
	Discord  DiscordConfig  `yaml:"discord"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // sqlite or postgres
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	SessionDuration time.Duration `yaml:"session_duration"`
	SecureCookies   bool          `yaml:"secure_cookies"`
}

type MailConfig struct {
	Provider  string `yaml:"provider"` // log or ses
	From      string `yaml:"from"`
	AWSRegion string `yaml:"aws_region"`
}

type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

type LogConfig struct {
	Level           string        `yaml:"level"`
	Dir             string        `yaml:"dir"`
	Retention       time.Duration `yaml:"retention"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Environment: "development",
		Port:        "8080",
		Database: DatabaseConfig{
			Driver:      "sqlite",
			URL:         "mess.db",
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			JWTSecret:       defaultJWTSecret,
			SessionDuration: 7 * 24 * time.Hour,
		},
		Mail: MailConfig{
			Provider: "log",
			From:     "mess@localhost",
		},
		Log: LogConfig{
			Level:           "info",
			Retention:       30 * 24 * time.Hour,
			CleanupSchedule: "@daily",
		},
	}
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then .env and process environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.Port = getEnv("PORT", c.Port)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.AutoMigrate = getBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.SessionDuration = getDuration("SESSION_DURATION", c.Auth.SessionDuration)
	c.Auth.SecureCookies = getBool("SECURE_COOKIES", c.Auth.SecureCookies)

	c.Mail.Provider = getEnv("MAIL_PROVIDER", c.Mail.Provider)
	c.Mail.From = getEnv("MAIL_FROM", c.Mail.From)
	c.Mail.AWSRegion = getEnv("AWS_REGION", c.Mail.AWSRegion)

	c.Discord.Token = getEnv("DISCORD_TOKEN", c.Discord.Token)
	c.Discord.ChannelID = getEnv("DISCORD_CHANNEL_ID", c.Discord.ChannelID)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Dir = getEnv("LOG_DIR", c.Log.Dir)
	c.Log.Retention = getDuration("LOG_RETENTION", c.Log.Retention)
	c.Log.CleanupSchedule = getEnv("CLEANUP_SCHEDULE", c.Log.CleanupSchedule)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}
	if c.Auth.SessionDuration <= 0 {
		errs = append(errs, errors.New("SESSION_DURATION must be positive"))
	}

	switch c.Mail.Provider {
	case "log":
	case "ses":
		if c.Mail.From == "" {
			errs = append(errs, errors.New("MAIL_FROM is required for the ses provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported MAIL_PROVIDER %q (want log or ses)", c.Mail.Provider))
	}

	if (c.Discord.Token == "") != (c.Discord.ChannelID == "") {
		errs = append(errs, errors.New("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together"))
	}

	if c.Log.Retention <= 0 {
		errs = append(errs, errors.New("LOG_RETENTION must be positive"))
	}
	if _, err := cron.ParseStandard(c.Log.CleanupSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid CLEANUP_SCHEDULE: %w", err))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
