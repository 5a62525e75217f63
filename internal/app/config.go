package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Constants
const (
	DefaultPort         = 5000
	DefaultSnapshotFile = "treatment_program.json"
	DefaultSQLiteFile   = "treatment_program.db"
	BackupDir           = "backup"
	BackupSuffix        = ".backup"
	TmpSuffix           = ".tmp.json"
	FilePermissions     = 0644
	MaxBodyBytes        = 1 << 20

	// Storage drivers
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"

	// Response bodies
	MsgProgramStored     = "Treatment program received and stored successfully"
	MsgNoProgram         = "No treatment program available"
	MsgUnknownUser       = "Authentication failed: user does not exist."
	MsgInvalidPassword   = "Invalid password"
	MsgTooManyRequests   = "Too many requests from this IP, please try again after a while."
	ErrInternalServer    = "Internal server error"
	ErrInvalidDateFormat = "Invalid date format"
	ErrInvalidFormat     = "Invalid format"
	ErrInvalidBody       = "Invalid request body"

	// ICS constants
	ICSProductID = "-//wb-services//Treatment Calendar//EN"
	ICSCalName   = "Treatment Program"
)

// Config is the service configuration. Values are layered as defaults, then
// the YAML file, then environment variables; command flags are applied last
// by the caller.
type Config struct {
	Port      int           `yaml:"port"`
	ServerURL string        `yaml:"server_url"`
	ClientURL string        `yaml:"client_url"`
	SecretKey string        `yaml:"secret_key"`
	AuthFile  string        `yaml:"auth_file"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	KeepAlive time.Duration `yaml:"keep_alive"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	NATS      NATSConfig      `yaml:"nats"`
}

// RateLimitConfig limits API requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// StorageConfig selects where the current snapshot is kept.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// NATSConfig enables publishing accepted snapshots to NATS.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:      DefaultPort,
		ServerURL: "http://localhost",
		TokenTTL:  time.Hour,
		KeepAlive: 20 * time.Second,
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Storage: StorageConfig{Driver: StorageMemory},
		NATS:    NATSConfig{Subject: "treatment.program"},
	}
}

// LoadConfig reads an optional YAML file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	setString(&c.SecretKey, "SECRET_KEY")
	setString(&c.AuthFile, "AUTH_FILE")
	setString(&c.ClientURL, "CLIENT_URL")
	setString(&c.ServerURL, "SERVER_URL")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Path, "STORAGE_PATH")
	setString(&c.NATS.URL, "NATS_URL")
	setString(&c.NATS.Subject, "NATS_SUBJECT")
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks the settings required to serve.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY must be defined"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL))
	}
	if c.KeepAlive <= 0 {
		errs = append(errs, fmt.Errorf("keep_alive must be positive, got %s", c.KeepAlive))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit requests and window must be positive"))
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// StoragePath returns the configured path or the driver's default file in
// the working directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	name := DefaultSnapshotFile
	if c.Storage.Driver == StorageSQLite {
		name = DefaultSQLiteFile
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, name)
	}
	return name
}

// AuthFilePath returns the credentials file: the configured path, else
// auth.secret next to the binary.
func (c *Config) AuthFilePath() (string, error) {
	if c.AuthFile != "" {
		return c.AuthFile, nil
	}
	return DefaultAuthFilePath()
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
