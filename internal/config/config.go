// Package config loads runtime settings for the gosession binaries from a
// YAML file and GOSESSION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOSESSION_REDIS_ADDR.
const EnvPrefix = "GOSESSION"

// Config is the file/env view of the engine and its infrastructure.
type Config struct {
	Store      string         `mapstructure:"store" validate:"required,oneof=redis sql"`
	Production bool           `mapstructure:"production"`
	LogLevel   string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	HTTPAddr   string         `mapstructure:"http_addr" validate:"omitempty,hostname_port"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Database   DatabaseConfig `mapstructure:"database"`
	Session    SessionConfig  `mapstructure:"session"`
	Seal       SealConfig     `mapstructure:"seal"`
	Cookie     CookieConfig   `mapstructure:"cookie"`
	Audit      AuditConfig    `mapstructure:"audit"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"min=0"`
}

type SessionConfig struct {
	TTL            time.Duration `mapstructure:"ttl" validate:"gt=0"`
	SlidingRenewal bool          `mapstructure:"sliding_renewal"`
	KeyLength      int           `mapstructure:"key_length" validate:"min=22,max=4096"`
	Encoding       string        `mapstructure:"encoding" validate:"oneof=json binary cbor msgpack"`
	Prefix         string        `mapstructure:"prefix" validate:"required"`
}

type SealConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
	Issuer  string `mapstructure:"issuer"`
}

type CookieConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Domain string `mapstructure:"domain"`
	Secure bool   `mapstructure:"secure"`
}

type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size" validate:"min=1"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var keys = []string{
	"store", "production", "log_level", "http_addr",
	"redis.addr", "redis.password", "redis.db",
	"database.url", "database.max_open_conns",
	"session.ttl", "session.sliding_renewal", "session.key_length", "session.encoding", "session.prefix",
	"seal.enabled", "seal.secret", "seal.issuer",
	"cookie.name", "cookie.domain", "cookie.secure",
	"audit.enabled", "audit.buffer_size",
	"metrics.enabled",
}

func setDefaults(v *viper.Viper) {
	d := goSession.DefaultConfig()
	v.SetDefault("store", "redis")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", "localhost:8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.key_length", d.Session.KeyLength)
	v.SetDefault("session.encoding", d.Session.Encoding)
	v.SetDefault("session.prefix", d.Session.RedisPrefix)
	v.SetDefault("cookie.name", d.Cookie.Name)
	v.SetDefault("cookie.secure", d.Cookie.Secure)
	v.SetDefault("audit.buffer_size", d.Audit.BufferSize)
}

// Load reads configFile (optional) and the environment into a validated
// Config. A missing file is not an error when configFile is empty.
func Load(configFile string) (*Config, error) {
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	if c.Store == "redis" && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when store is redis")
	}
	if c.Store == "sql" && strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("database.url is required when store is sql")
	}
	if c.Production && c.Seal.Secret == "" {
		return errors.New("seal.secret is required in production")
	}
	return nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", e.Namespace(), e.Param()))
		case "min", "max", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", e.Namespace(), e.Tag(), e.Param()))
		case "hostname_port":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid host:port", e.Namespace()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Engine converts c into an engine Config. Outside production, enabling the
// seal without a secret falls back to goSession.DevelopmentSecret and logs a
// warning.
func (c *Config) Engine(logger *slog.Logger) goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Session.TTL = c.Session.TTL
	cfg.Session.SlidingRenewal = c.Session.SlidingRenewal
	cfg.Session.KeyLength = c.Session.KeyLength
	cfg.Session.Encoding = c.Session.Encoding
	cfg.Session.RedisPrefix = c.Session.Prefix

	cfg.Seal.Enabled = c.Seal.Enabled || c.Production
	cfg.Seal.Issuer = c.Seal.Issuer
	switch {
	case c.Seal.Secret != "":
		cfg.Seal.PrivateKey = []byte(c.Seal.Secret)
	case cfg.Seal.Enabled && !c.Production:
		if logger != nil {
			logger.Warn("seal secret not configured, using the development secret")
		}
		cfg.Seal.PrivateKey = goSession.DevelopmentSecret
	}

	cfg.Cookie.Name = c.Cookie.Name
	cfg.Cookie.Domain = c.Cookie.Domain
	cfg.Cookie.Secure = c.Cookie.Secure

	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled

	cfg.Security.ProductionMode = c.Production
	return cfg
}

// Level parses LogLevel for slog handlers.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
