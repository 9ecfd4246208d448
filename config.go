package payguard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/payguard/authapi"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/signer"
)

// Session persistence backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds every tunable of the engine. Build a value with
// [DefaultConfig] and override fields, or load one with [LoadConfig].
type Config struct {
	Session SessionConfig `yaml:"session"`
	Routes  guard.Routes  `yaml:"-"`
	Signer  SignerConfig  `yaml:"signer"`
	Auth    AuthConfig    `yaml:"auth"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// SessionConfig selects where the session is persisted and how stale
// records are treated on restore.
type SessionConfig struct {
	Backend     string        `yaml:"backend"`
	FilePath    string        `yaml:"file_path"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
	RedisKey    string        `yaml:"redis_key"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`

	// DiscardExpired drops a restored session whose JWT exp has passed.
	DiscardExpired bool          `yaml:"discard_expired"`
	ExpiryLeeway   time.Duration `yaml:"expiry_leeway"`
}

// SignerConfig names the headers attached to outbound requests.
type SignerConfig struct {
	TenantHeader         string `yaml:"tenant_header"`
	IdempotencyKeyHeader string `yaml:"idempotency_key_header"`
}

// AuthConfig locates the backend's auth endpoints. An empty BaseURL means
// the caller supplies an Authenticator to the Builder.
type AuthConfig struct {
	BaseURL    string        `yaml:"base_url"`
	LoginPath  string        `yaml:"login_path"`
	LogoutPath string        `yaml:"logout_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`

	// Exclude names event kinds that are never emitted, e.g.
	// navigation_denied. Lifecycle kinds cannot be excluded.
	Exclude []string `yaml:"exclude"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// LogConfig controls the default logger built when none is supplied.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns an in-memory configuration with the standard
// dashboard route table.
func DefaultConfig() Config {
	sig := signer.DefaultConfig()
	auth := authapi.DefaultConfig()
	return Config{
		Session: SessionConfig{
			Backend:        BackendMemory,
			RedisPrefix:    "pgs",
			RedisKey:       "default",
			DiscardExpired: true,
			ExpiryLeeway:   30 * time.Second,
		},
		Routes: guard.DefaultRoutes(),
		Signer: SignerConfig{
			TenantHeader:         sig.TenantHeader,
			IdempotencyKeyHeader: sig.IdempotencyKeyHeader,
		},
		Auth: AuthConfig{
			LoginPath:  auth.LoginPath,
			LogoutPath: auth.LogoutPath,
			Timeout:    auth.Timeout,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first inconsistency in c. Every error wraps
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(c.Session.FilePath) == "" {
			return fmt.Errorf("%w: session file_path required for file backend", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Session.RedisTTL < 0 {
			return fmt.Errorf("%w: session redis_ttl must be >= 0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown session backend %q", ErrInvalidConfig, c.Session.Backend)
	}
	if c.Session.ExpiryLeeway < 0 {
		return fmt.Errorf("%w: session expiry_leeway must be >= 0", ErrInvalidConfig)
	}

	if err := c.Routes.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Auth.Timeout < 0 {
		return fmt.Errorf("%w: auth timeout must be >= 0", ErrInvalidConfig)
	}
	if c.Auth.BaseURL != "" && !strings.HasPrefix(c.Auth.BaseURL, "http://") && !strings.HasPrefix(c.Auth.BaseURL, "https://") {
		return fmt.Errorf("%w: auth base_url must be http or https", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit buffer_size must be > 0", ErrInvalidConfig)
	}
	if _, err := c.Audit.excludedKinds(); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json", ErrInvalidConfig)
	}

	return nil
}

type configFile struct {
	Config `yaml:",inline"`
	Routes yaml.Node `yaml:"routes"`
}

// DecodeConfig reads a YAML document over DefaultConfig. Unknown keys are
// rejected. A routes section is read with guard.DecodeRoutes, so omitted
// route paths keep their defaults.
func DecodeConfig(r io.Reader) (Config, error) {
	cf := configFile{Config: DefaultConfig()}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := cf.Config
	if !cf.Routes.IsZero() {
		raw, err := yaml.Marshal(&cf.Routes)
		if err != nil {
			return Config{}, fmt.Errorf("%w: routes: %w", ErrInvalidConfig, err)
		}
		routes, err := guard.DecodeRoutes(bytes.NewReader(raw))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg.Routes = routes
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(filename string) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return DecodeConfig(f)
}

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(cfg LogConfig, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if w != nil {
		logger.SetOutput(w)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func (c AuthConfig) clientConfig() authapi.Config {
	return authapi.Config{
		BaseURL:    c.BaseURL,
		LoginPath:  c.LoginPath,
		LogoutPath: c.LogoutPath,
		Timeout:    c.Timeout,
	}
}

func (c SignerConfig) signerConfig() signer.Config {
	return signer.Config{
		TenantHeader:         c.TenantHeader,
		IdempotencyKeyHeader: c.IdempotencyKeyHeader,
	}
}
