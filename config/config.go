// Package config holds the client configuration: where fails are sent, how
// long a send may block and which logger and notification factory to use.
package config

import (
	"net"
	"strconv"
	"time"

	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/logger"
	"github.com/kart-io/failurous/notification"
)

// Defaults applied by New and by the loader.
const (
	DefaultServerPort  = 80
	DefaultSendTimeout = 2 * time.Second
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "console"
	DefaultServiceName = "failurous"
	DefaultSampleRate  = 1.0
)

// HTTPS peer verification modes.
const (
	VerifyPeer = "peer"
	VerifyNone = "none"
)

// Config configures a Notifier.
type Config struct {
	// APIKey identifies the project on the collector.
	APIKey     string `mapstructure:"api_key"`
	ServerName string `mapstructure:"server_name"`
	ServerPort int    `mapstructure:"server_port"`
	// UseSSL requires the collector to accept fails over HTTPS.
	UseSSL bool `mapstructure:"use_ssl"`
	// SendTimeout bounds both connecting and the whole request.
	SendTimeout time.Duration `mapstructure:"send_timeout"`

	HTTPSCAFile     string `mapstructure:"https_ca_file"`
	HTTPSVerifyMode string `mapstructure:"https_verify_mode"`

	// ValidatePayload checks every encoded notification against the document
	// schema before it is posted.
	ValidatePayload bool `mapstructure:"validate_payload"`
	// RatePerSec caps how many fails are posted per second, with bursts of
	// the same size. Fails over the limit are dropped. Zero means unlimited.
	RatePerSec int `mapstructure:"rate_per_sec"`

	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Logger receives delivery warnings. Nil disables logging.
	Logger logger.Interface `mapstructure:"-"`
	// NotificationFactory builds notifications. Nil means notification.DefaultFactory.
	NotificationFactory notification.Factory `mapstructure:"-"`
}

// LoggingConfig selects the logger built by the loader.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string            `mapstructure:"service_name"`
	ServiceVersion string            `mapstructure:"service_version"`
	Environment    string            `mapstructure:"environment"`
	OTLPEndpoint   string            `mapstructure:"otlp_endpoint"`
	OTLPHeaders    map[string]string `mapstructure:"otlp_headers"`
	TracingEnabled bool              `mapstructure:"tracing_enabled"`
	MetricsEnabled bool              `mapstructure:"metrics_enabled"`
	// PrometheusEnabled exposes metrics through an in-process Prometheus registry.
	PrometheusEnabled bool    `mapstructure:"prometheus_enabled"`
	SampleRate        float64 `mapstructure:"sample_rate"`
	Enabled           bool    `mapstructure:"enabled"`
}

// New creates a configuration with the defaults and the given options applied.
func New(opts ...Option) *Config {
	c := &Config{Telemetry: TelemetryConfig{SampleRate: DefaultSampleRate}}
	applyDefaults(c)
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// applyDefaults fills zero values with their defaults. The sample rate is not
// touched because 0 is a valid setting.
func applyDefaults(c *Config) {
	if c.ServerPort == 0 {
		c.ServerPort = DefaultServerPort
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.HTTPSVerifyMode == "" {
		c.HTTPSVerifyMode = VerifyPeer
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "api_key is required")
	case c.ServerName == "":
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "server_name is required")
	case c.ServerPort <= 0 || c.ServerPort > 65535:
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "server_port must be between 1 and 65535").
			WithContext("server_port", c.ServerPort)
	case c.SendTimeout <= 0:
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "send_timeout must be positive").
			WithContext("send_timeout", c.SendTimeout.String())
	case c.RatePerSec < 0:
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "rate_per_sec must not be negative").
			WithContext("rate_per_sec", c.RatePerSec)
	case c.HTTPSVerifyMode != VerifyPeer && c.HTTPSVerifyMode != VerifyNone:
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "https_verify_mode must be peer or none").
			WithContext("https_verify_mode", c.HTTPSVerifyMode)
	case c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1:
		return failerrors.NewConfigError(failerrors.ErrInvalidConfig, "telemetry.sample_rate must be between 0 and 1")
	}
	return nil
}

// BaseURL returns the collector address, e.g. "https://fails.example.com:443".
func (c *Config) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(c.ServerName, strconv.Itoa(c.ServerPort))
}

// InsecureSkipVerify reports whether HTTPS peers are accepted unverified.
func (c *Config) InsecureSkipVerify() bool {
	return c.HTTPSVerifyMode == VerifyNone
}
