// Package config assembles server settings from .env, an optional YAML
// file, the environment and command-line flags, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"pharmacy_backend/internal/database"
	"pharmacy_backend/internal/jobs"
	"pharmacy_backend/pkg/utils"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "development-only-secret"
)

type Config struct {
	Port        string
	AppEnv      string
	DB          database.Config
	SchemaApply bool

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string
	Log                utils.LoggerOptions

	StockAlertSchedule string
	ExpiryWarningDays  int
}

// IsDevelopment reports whether internal error details may be exposed.
// Development must be chosen explicitly through APP_ENV or app_env.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// fileConfig is the YAML layout. Zero values leave the default in place.
type fileConfig struct {
	Port   string `yaml:"port"`
	AppEnv string `yaml:"app_env"`
	DB     struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		User        string `yaml:"user"`
		Password    string `yaml:"password"`
		Name        string `yaml:"name"`
		SSLMode     string `yaml:"sslmode"`
		SchemaApply *bool  `yaml:"schema_apply"`
	} `yaml:"db"`
	JWT struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
	} `yaml:"jwt"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	Log                struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
	StockAlertSchedule string `yaml:"stock_alert_schedule"`
	ExpiryWarningDays  int    `yaml:"expiry_warning_days"`
}

func defaults() *Config {
	return &Config{
		Port:   "8080",
		AppEnv: EnvProduction,
		DB: database.Config{
			Host:     "localhost",
			Port:     "5432",
			User:     "pharmacy_user",
			Password: "pharmacy_password",
			Name:     "pharmacy_db",
			SSLMode:  "disable",
		},
		JWTTTL:             time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		Log:                utils.LoggerOptions{Level: "info", Format: "console"},
		StockAlertSchedule: jobs.DefaultStockAlertSchedule,
		ExpiryWarningDays:  jobs.DefaultExpiryWarningDays,
	}
}

// Load builds the configuration. args are the command-line arguments without
// the program name.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (env: CONFIG_FILE)")
	port := flags.String("port", "", "HTTP listen port (env: PORT)")
	logLevel := flags.String("log-level", "", "debug, info, warn or error (env: LOG_LEVEL)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.Port, f.Port)
	setString(&c.AppEnv, f.AppEnv)
	setString(&c.DB.Host, f.DB.Host)
	setString(&c.DB.Port, f.DB.Port)
	setString(&c.DB.User, f.DB.User)
	setString(&c.DB.Password, f.DB.Password)
	setString(&c.DB.Name, f.DB.Name)
	setString(&c.DB.SSLMode, f.DB.SSLMode)
	if f.DB.SchemaApply != nil {
		c.SchemaApply = *f.DB.SchemaApply
	}
	setString(&c.JWTSecret, f.JWT.Secret)
	if f.JWT.TTL != "" {
		ttl, err := time.ParseDuration(f.JWT.TTL)
		if err != nil {
			return fmt.Errorf("config file jwt.ttl: %w", err)
		}
		c.JWTTTL = ttl
	}
	if len(f.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = f.CORSAllowedOrigins
	}
	setString(&c.Log.Level, f.Log.Level)
	setString(&c.Log.Format, f.Log.Format)
	setString(&c.Log.File, f.Log.File)
	setString(&c.StockAlertSchedule, f.StockAlertSchedule)
	if f.ExpiryWarningDays > 0 {
		c.ExpiryWarningDays = f.ExpiryWarningDays
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = utils.Getenv("PORT", c.Port)
	c.AppEnv = utils.Getenv("APP_ENV", c.AppEnv)
	c.DB.Host = utils.Getenv("DB_HOST", c.DB.Host)
	c.DB.Port = utils.Getenv("DB_PORT", c.DB.Port)
	c.DB.User = utils.Getenv("DB_USER", c.DB.User)
	c.DB.Password = utils.Getenv("DB_PASSWORD", c.DB.Password)
	c.DB.Name = utils.Getenv("DB_NAME", c.DB.Name)
	c.DB.SSLMode = utils.Getenv("DB_SSLMODE", c.DB.SSLMode)
	c.SchemaApply = utils.GetenvBool("DB_SCHEMA_APPLY", c.SchemaApply)
	c.JWTSecret = utils.Getenv("JWT_SECRET", c.JWTSecret)
	c.JWTTTL = utils.GetenvDuration("JWT_TTL", c.JWTTTL)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}
	c.Log.Level = utils.Getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.Getenv("LOG_FORMAT", c.Log.Format)
	c.Log.File = utils.Getenv("LOG_FILE", c.Log.File)
	c.Log.MaxSizeMB = utils.GetenvInt("LOG_MAX_SIZE_MB", c.Log.MaxSizeMB)
	c.Log.MaxBackups = utils.GetenvInt("LOG_MAX_BACKUPS", c.Log.MaxBackups)
	c.Log.MaxAgeDays = utils.GetenvInt("LOG_MAX_AGE_DAYS", c.Log.MaxAgeDays)
	c.StockAlertSchedule = utils.Getenv("STOCK_ALERT_SCHEDULE", c.StockAlertSchedule)
	c.ExpiryWarningDays = utils.GetenvInt("EXPIRY_WARNING_DAYS", c.ExpiryWarningDays)
}

func (c *Config) validate() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("config: port must not be empty")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("config: JWT_SECRET is required outside development")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.ExpiryWarningDays <= 0 {
		c.ExpiryWarningDays = jobs.DefaultExpiryWarningDays
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
