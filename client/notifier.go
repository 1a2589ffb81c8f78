// Package client builds fail notifications from notify calls and posts them to
// the collector. Delivery problems are logged and never returned.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kart-io/failurous/config"
	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/logger"
	"github.com/kart-io/failurous/monitoring"
	"github.com/kart-io/failurous/notification"
	"github.com/kart-io/failurous/observability"
	"github.com/kart-io/failurous/transport"
	"golang.org/x/time/rate"
)

// Notifier sends fail notifications. It is safe for concurrent use.
type Notifier struct {
	config    *config.Config
	builder   *Builder
	poster    transport.Poster
	path      string
	logger    logger.Interface
	metrics   *monitoring.Metrics
	telemetry *observability.TelemetryProvider
	limiter   *rate.Limiter
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithPoster replaces the HTTP poster, mostly for tests.
func WithPoster(p transport.Poster) Option {
	return func(n *Notifier) {
		n.poster = p
	}
}

// WithTelemetry uses an existing telemetry provider.
func WithTelemetry(tp *observability.TelemetryProvider) Option {
	return func(n *Notifier) {
		n.telemetry = tp
	}
}

// WithMetrics shares a metrics instance between notifiers.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// New creates a Notifier for cfg.
func New(cfg *config.Config, opts ...Option) (*Notifier, error) {
	if cfg == nil {
		return nil, failerrors.NewConfigError(failerrors.ErrInvalidConfig, "config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Notifier{
		config:  cfg,
		builder: NewBuilder(cfg.NotificationFactory),
		path:    FailsPath(cfg.APIKey),
		logger:  logger.OrDiscard(cfg.Logger),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.poster == nil {
		poster, err := transport.NewHTTPPosterFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		n.poster = poster
	}

	if cfg.RatePerSec > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}

	if n.metrics == nil {
		n.metrics = monitoring.NewMetrics()
	}

	if n.telemetry == nil {
		tp, err := observability.NewTelemetryProvider(&cfg.Telemetry)
		if err != nil {
			n.logger.Error(context.Background(), "Failed to initialize telemetry: %v", err)
			tp, _ = observability.NewTelemetryProvider(nil)
		}
		n.telemetry = tp
	}

	n.logger.Debug(context.Background(), "Notifier initialized: server=%s, timeout=%s, telemetry=%t",
		cfg.BaseURL(), cfg.SendTimeout, cfg.Telemetry.Enabled)

	return n, nil
}

// FailsPath returns the collector path fails for apiKey are posted to.
func FailsPath(apiKey string) string {
	return "/api/projects/" + url.PathEscape(apiKey) + "/fails"
}

// Notify classifies args (see Classify) and sends the result.
func (n *Notifier) Notify(ctx context.Context, args ...any) (*notification.Notification, error) {
	return n.NotifyArgs(ctx, TraceArgs(Classify(args...), 1), notification.Caller(1))
}

// NotifyNotification sends an existing notification without modifying it.
func (n *Notifier) NotifyNotification(ctx context.Context, notif *notification.Notification) (*notification.Notification, error) {
	return n.NotifyArgs(ctx, NotificationArgs{Notification: notif}, notification.Caller(1))
}

// NotifyException builds a notification from err, and from object if given.
// An err without a backtrace gets the stack of the call site.
func (n *Notifier) NotifyException(ctx context.Context, err error, object ...any) (*notification.Notification, error) {
	return n.NotifyArgs(ctx, ExceptionArgs{Err: notification.TraceSkip(err, 1), Object: firstOf(object)}, notification.Caller(1))
}

// NotifyTitledException is NotifyException with a custom title.
func (n *Notifier) NotifyTitledException(ctx context.Context, title string, err error, object ...any) (*notification.Notification, error) {
	return n.NotifyArgs(ctx, TitledExceptionArgs{Title: title, Err: notification.TraceSkip(err, 1), Object: firstOf(object)}, notification.Caller(1))
}

// NotifyMessage sends a notification with a title, located at the caller.
func (n *Notifier) NotifyMessage(ctx context.Context, title string, object ...any) (*notification.Notification, error) {
	return n.NotifyArgs(ctx, MessageArgs{Title: title, Object: firstOf(object)}, notification.Caller(1))
}

// NotifyArgs builds and sends a notification. caller is the call site used as
// default location.
//
// The returned error is only set when no notification could be built. A
// notification that could not be delivered is still returned; the failure is
// logged as a warning. Both results are nil when the factory ignored the call.
func (n *Notifier) NotifyArgs(ctx context.Context, args Args, caller string) (*notification.Notification, error) {
	if args == nil {
		return nil, errUnknownArgs
	}
	shape := args.Shape()

	ctx, span := n.telemetry.TraceNotify(ctx, string(shape))
	defer span.End()

	notif, err := n.builder.Build(args, caller)
	if err != nil {
		n.telemetry.SetSpanError(span, err)
		return nil, err
	}
	if notif == nil {
		n.metrics.RecordIgnored(string(shape))
		n.logger.Debug(ctx, "Fail notification ignored by factory: shape=%s", shape)
		return nil, nil
	}

	if n.limiter != nil && !n.limiter.Allow() {
		n.metrics.RecordThrottled()
		n.logger.Debug(ctx, "Fail notification dropped by rate limit: shape=%s", shape)
		return notif, nil
	}

	start := time.Now()
	err = n.deliver(ctx, notif)
	duration := time.Since(start)

	if err != nil {
		code := failerrors.CodeOf(err)
		n.logger.Warn(ctx, "Could not send fail notification: %s: %s", errorKind(err), err.Error())
		n.metrics.RecordSend(string(shape), false, duration, string(code), err.Error())
		n.telemetry.RecordFailed(ctx, string(shape), duration, string(code))
		n.telemetry.SetSpanError(span, err)
		return notif, nil
	}

	n.metrics.RecordSend(string(shape), true, duration, "", "")
	n.telemetry.RecordSent(ctx, string(shape), duration)
	n.telemetry.SetSpanSuccess(span)
	return notif, nil
}

func (n *Notifier) deliver(ctx context.Context, notif *notification.Notification) error {
	body, err := notif.Encode()
	if err != nil {
		return err
	}
	if n.config.ValidatePayload {
		if err := notification.ValidateDocument(body); err != nil {
			return err
		}
	}
	return n.poster.Post(ctx, n.path, body)
}

// errorKind names an error by its code, or by its Go type when it has none.
func errorKind(err error) string {
	if code := failerrors.CodeOf(err); code != "" {
		return string(code)
	}
	return fmt.Sprintf("%T", err)
}

func firstOf(object []any) any {
	if len(object) > 0 {
		return object[0]
	}
	return nil
}

// Stats returns delivery counters.
func (n *Notifier) Stats() monitoring.Snapshot {
	return n.metrics.Snapshot()
}

// MetricsHandler serves Prometheus metrics when enabled in the telemetry config.
func (n *Notifier) MetricsHandler() http.Handler {
	return n.telemetry.MetricsHandler()
}

// Config returns the configuration the notifier was built with.
func (n *Notifier) Config() *config.Config {
	return n.config
}

// Close flushes telemetry and releases idle connections.
func (n *Notifier) Close(ctx context.Context) error {
	if c, ok := n.poster.(interface{ Close() }); ok {
		c.Close()
	}
	return n.telemetry.Shutdown(ctx)
}
