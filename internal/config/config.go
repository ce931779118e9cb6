// Package config loads server settings from an optional YAML file and then
// applies environment variable overrides on top.
//
// Precedence (lowest to highest): DefaultConfig → config file → environment.
// A missing config file is not an error; the defaults plus environment are
// enough to run locally.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	GitHub    GitHubConfig    `yaml:"github"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxUploadMB caps multipart request bodies (file upload, CSV import).
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
	// SetCookie also returns the token as an HttpOnly cookie on login.
	SetCookie bool `yaml:"set_cookie"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // local, s3
	// Root is the base directory of the local driver.
	Root string `yaml:"root"`
	// ScratchDir holds temporary ZIP archives. Empty means os.TempDir().
	ScratchDir string   `yaml:"scratch_dir"`
	S3         S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// GitHubConfig enables GitHub login when both ClientID and ClientSecret are set.
type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// RateLimitConfig limits login attempts per client IP.
type RateLimitConfig struct {
	LoginPerMinute float64 `yaml:"login_per_minute"`
	LoginBurst     int     `yaml:"login_burst"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadMB:     64,
		},
		Database: DatabaseConfig{
			Path: "data/projectdesk.db",
		},
		JWT: JWTConfig{
			TTL: time.Hour,
		},
		Storage: StorageConfig{
			Driver: StorageLocal,
			Root:   "data/uploads",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
	}
}

// Load reads configPath (default "config.yaml") over the defaults and
// applies environment overrides. The result is not validated; call Validate.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	setString("DB_PATH", &c.Database.Path)
	setString("JWT_SECRET", &c.JWT.Secret)
	if v := os.Getenv("JWT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid JWT_TTL %q: %w", v, err)
		}
		c.JWT.TTL = ttl
	}

	setString("STORAGE_DRIVER", &c.Storage.Driver)
	setString("STORAGE_ROOT", &c.Storage.Root)
	setString("STORAGE_SCRATCH_DIR", &c.Storage.ScratchDir)
	setString("S3_BUCKET", &c.Storage.S3.Bucket)
	setString("S3_PREFIX", &c.Storage.S3.Prefix)
	setString("S3_REGION", &c.Storage.S3.Region)
	setString("S3_ENDPOINT", &c.Storage.S3.Endpoint)
	setString("S3_ACCESS_KEY", &c.Storage.S3.AccessKey)
	setString("S3_SECRET_KEY", &c.Storage.S3.SecretKey)
	if v := os.Getenv("S3_USE_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid S3_USE_PATH_STYLE %q: %w", v, err)
		}
		c.Storage.S3.UsePathStyle = b
	}

	setString("GITHUB_CLIENT_ID", &c.GitHub.ClientID)
	setString("GITHUB_CLIENT_SECRET", &c.GitHub.ClientSecret)
	setString("GITHUB_CALLBACK_URL", &c.GitHub.CallbackURL)

	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	return nil
}

// Validate reports the first setting that would stop the server from working.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("config: database.path is required")
	}
	if len(c.JWT.Secret) < 16 {
		return errors.New("config: jwt.secret (JWT_SECRET) must be at least 16 characters")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("config: jwt.ttl must be positive")
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.Root == "" {
			return errors.New("config: storage.root is required for the local driver")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("config: storage.s3.bucket (S3_BUCKET) is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// SlogLevel maps Level onto slog's levels.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: unknown log.level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the slog logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("config: unknown log.format %q", l.Format)
}
