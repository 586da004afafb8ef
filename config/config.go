package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/quizblog/config.yaml",
}

const (
	productionClientURL  = "http://www.quizblog.rw"
	developmentClientURL = "http://localhost:3000"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	Mail     MailConfig     `koanf:"mail"`
	Storage  StorageConfig  `koanf:"storage"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Environment string        `koanf:"environment"`
	ClientURL   string        `koanf:"client_url"`
	CORSOrigins []string      `koanf:"cors_origins"`
	RateLimit   int           `koanf:"rate_limit"`
	Timeout     time.Duration `koanf:"timeout"`
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	// LegacyRoleGate lets any authenticated caller through a role gate.
	LegacyRoleGate bool `koanf:"legacy_role_gate"`
}

type MailConfig struct {
	Host          string  `koanf:"host"`
	Port          int     `koanf:"port"`
	User          string  `koanf:"user"`
	Password      string  `koanf:"password"`
	From          string  `koanf:"from"`
	FromName      string  `koanf:"from_name"`
	ImplicitTLS   bool    `koanf:"implicit_tls"`
	RatePerSecond float64 `koanf:"rate_per_second"`
}

type StorageConfig struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	// LocalDir keeps notes on disk when no bucket is configured.
	LocalDir string `koanf:"local_dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        4000,
			Host:        "0.0.0.0",
			Environment: "development",
			CORSOrigins: []string{"*"},
			RateLimit:   300,
			Timeout:     30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          "host=localhost user=quizblog password=quizblog dbname=quizblog port=5432 sslmode=disable TimeZone=UTC",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Mail: MailConfig{
			Host:          "smtp.gmail.com",
			Port:          465,
			From:          "quizblog.rw@gmail.com",
			FromName:      "quizblog.rw(Quiz Blog)",
			ImplicitTLS:   true,
			RatePerSecond: 5,
		},
		Storage: StorageConfig{
			Region:   "us-east-1",
			LocalDir: "uploads/notes",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment, in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Server.ClientURL == "" {
		cfg.Server.ClientURL = developmentClientURL
		if cfg.IsProduction() {
			cfg.Server.ClientURL = productionClientURL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Mail.RatePerSecond <= 0 {
		errs = append(errs, errors.New("mail rate_per_second must be positive"))
	}
	return errors.Join(errs...)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":                  "server.port",
	"host":                  "server.host",
	"node_env":              "server.environment",
	"environment":           "server.environment",
	"client_url":            "server.client_url",
	"cors_origins":          "server.cors_origins",
	"rate_limit":            "server.rate_limit",
	"http_timeout":          "server.timeout",
	"database_url":          "database.dsn",
	"db_max_open_conns":     "database.max_open_conns",
	"db_max_idle_conns":     "database.max_idle_conns",
	"redis_addr":            "redis.addr",
	"redis_password":        "redis.password",
	"redis_db":              "redis.db",
	"jwt_secret":            "auth.jwt_secret",
	"legacy_role_gate":      "auth.legacy_role_gate",
	"smtp_host":             "mail.host",
	"smtp_port":             "mail.port",
	"smtp_user":             "mail.user",
	"smtp_password":         "mail.password",
	"smtp_from":             "mail.from",
	"smtp_from_name":        "mail.from_name",
	"smtp_implicit_tls":     "mail.implicit_tls",
	"mail_rate":             "mail.rate_per_second",
	"s3_bucket_notes":       "storage.bucket",
	"aws_region":            "storage.region",
	"s3_endpoint":           "storage.endpoint",
	"aws_access_key_id":     "storage.access_key_id",
	"aws_secret_access_key": "storage.secret_access_key",
	"notes_dir":             "storage.local_dir",
	"log_level":             "log.level",
	"log_format":            "log.format",
}

// envTransform maps known environment variables onto config keys; anything else is ignored.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok || s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
