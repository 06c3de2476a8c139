package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	iauth "github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/database"
	"github.com/lcraddock/lexdraft/pkg/mail"
)

// Config represents the runtime configuration for the LexDraft backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Storage     StorageConfig     `mapstructure:"storage"`
	AI          AIConfig          `mapstructure:"ai"`
	Email       EmailConfig       `mapstructure:"email"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ConnectionConfig converts configuration into the database package config type.
func (d DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: d.Driver,
		Path:   d.Path,
		DSN:    d.DSN,
	}

	switch strings.ToLower(strings.TrimSpace(d.Driver)) {
	case "postgres", "postgresql":
		cfg.Host = d.Postgres.Host
		cfg.Port = d.Postgres.Port
		cfg.Name = d.Postgres.Database
		cfg.User = d.Postgres.Username
		cfg.Password = d.Postgres.Password
	case "mysql":
		cfg.Host = d.MySQL.Host
		cfg.Port = d.MySQL.Port
		cfg.Name = d.MySQL.Database
		cfg.User = d.MySQL.Username
		cfg.Password = d.MySQL.Password
	}

	return cfg
}

// AuthConfig groups authentication settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures JWT access and refresh tokens.
type JWTSettings struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// JWTServiceConfig converts settings into the auth package configuration type.
func (a AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:          a.JWT.Secret,
		Issuer:          a.JWT.Issuer,
		AccessTokenTTL:  a.JWT.AccessTTL,
		RefreshTokenTTL: a.JWT.RefreshTTL,
	}
}

// StorageConfig selects and configures the blob-store backend for uploads.
type StorageConfig struct {
	Backend string             `mapstructure:"backend"` // local | s3
	Local   LocalStorageConfig `mapstructure:"local"`
	S3      S3StorageConfig    `mapstructure:"s3"`
}

// LocalStorageConfig configures filesystem-backed storage.
type LocalStorageConfig struct {
	Path string `mapstructure:"path"`
}

// S3StorageConfig configures the S3-backed storage.
type S3StorageConfig struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// AIConfig points at the external extraction/drafting service.
type AIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EmailConfig wraps SMTP settings for invitation notifications.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig mirrors pkg/mail settings.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SMTPSettings converts configuration into the mail package settings type.
func (e EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  e.SMTP.Enabled,
		Host:     e.SMTP.Host,
		Port:     e.SMTP.Port,
		Username: e.SMTP.Username,
		Password: e.SMTP.Password,
		From:     e.SMTP.From,
		UseTLS:   e.SMTP.UseTLS,
		Timeout:  e.SMTP.Timeout,
	}
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig controls background cleanup jobs.
type MaintenanceConfig struct {
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
	AuditSchedule      string `mapstructure:"audit_schedule"`
}

// Validate reports configuration errors that should stop start-up.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch backend {
	case "", "local":
	case "s3":
		if strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return errors.New("storage.s3.bucket must be configured when the s3 backend is selected")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	return nil
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("LEXDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/lexdraft.sqlite")

	v.SetDefault("auth.jwt.issuer", "lexdraft")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.jwt.refresh_token_ttl", "168h") // 7 days

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.path", "./data/uploads")
	v.SetDefault("storage.s3.prefix", "pdfs")

	v.SetDefault("ai.base_url", "http://localhost:8000")
	v.SetDefault("ai.timeout", "120s")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.audit_retention_days", 365)
	v.SetDefault("maintenance.audit_schedule", "@daily")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
