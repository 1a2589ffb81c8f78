package config

import (
	"time"

	"github.com/kart-io/failurous/logger"
	"github.com/kart-io/failurous/notification"
)

// Option defines a configuration option
type Option interface {
	apply(*Config)
}

// optionFunc wraps a function to implement Option interface
type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) {
	f(c)
}

// Apply runs opts against an existing configuration.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// ================================
// Collector Options
// ================================

// WithAPIKey sets the project API key
func WithAPIKey(apiKey string) Option {
	return optionFunc(func(c *Config) {
		c.APIKey = apiKey
	})
}

// WithServer sets the collector host and port
func WithServer(name string, port int) Option {
	return optionFunc(func(c *Config) {
		c.ServerName = name
		if port > 0 {
			c.ServerPort = port
		}
	})
}

// WithSSL enables HTTPS
func WithSSL(useSSL bool) Option {
	return optionFunc(func(c *Config) {
		c.UseSSL = useSSL
	})
}

// WithSendTimeout bounds how long a single send may block
func WithSendTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.SendTimeout = timeout
	})
}

// WithHTTPSCAFile trusts the certificates in a PEM file
func WithHTTPSCAFile(path string) Option {
	return optionFunc(func(c *Config) {
		c.HTTPSCAFile = path
	})
}

// WithHTTPSVerifyMode sets peer verification, VerifyPeer or VerifyNone
func WithHTTPSVerifyMode(mode string) Option {
	return optionFunc(func(c *Config) {
		c.HTTPSVerifyMode = mode
	})
}

// WithValidatePayload checks notifications against the document schema before sending
func WithValidatePayload(validate bool) Option {
	return optionFunc(func(c *Config) {
		c.ValidatePayload = validate
	})
}

// WithRateLimit drops fails beyond perSec per second; 0 disables the limit
func WithRateLimit(perSec int) Option {
	return optionFunc(func(c *Config) {
		c.RatePerSec = perSec
	})
}

// WithNotificationFactory installs a custom notification factory
func WithNotificationFactory(factory notification.Factory) Option {
	return optionFunc(func(c *Config) {
		c.NotificationFactory = factory
	})
}

// ================================
// Telemetry Options
// ================================

// WithTelemetry configures telemetry settings
func WithTelemetry(serviceName, serviceVersion, environment string, otlpEndpoint string) Option {
	return optionFunc(func(c *Config) {
		c.Telemetry = TelemetryConfig{
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			Environment:    environment,
			OTLPEndpoint:   otlpEndpoint,
			TracingEnabled: otlpEndpoint != "",
			MetricsEnabled: true,
			SampleRate:     1.0,
			Enabled:        true,
		}
	})
}

// WithPrometheus exposes metrics through a Prometheus registry
func WithPrometheus() Option {
	return optionFunc(func(c *Config) {
		c.Telemetry.Enabled = true
		c.Telemetry.MetricsEnabled = true
		c.Telemetry.PrometheusEnabled = true
	})
}

// WithTelemetryDisabled explicitly disables telemetry
func WithTelemetryDisabled() Option {
	return optionFunc(func(c *Config) {
		c.Telemetry.Enabled = false
	})
}

// ================================
// Logger Options
// ================================

// WithLogger configures a custom logger
func WithLogger(l logger.Interface) Option {
	return optionFunc(func(c *Config) {
		c.Logger = l
	})
}

// WithDefaultLogger configures the default logger with specified level
func WithDefaultLogger(level logger.LogLevel) Option {
	return optionFunc(func(c *Config) {
		c.Logger = logger.Default.LogMode(level)
	})
}

// WithSilentLogger disables logging
func WithSilentLogger() Option {
	return optionFunc(func(c *Config) {
		c.Logger = logger.Discard
	})
}
