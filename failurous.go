// Package failurous reports application fails to a Failurous collector.
//
// Configure a process-wide notifier once, then report from anywhere:
//
//	err := failurous.Configure(func(c *failurous.Config) {
//		c.APIKey = "123"
//		c.ServerName = "fails.example.com"
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := checkout(); err != nil {
//		failurous.Notify(ctx, "Checkout failed", failurous.Trace(err), order)
//	}
//
// Delivery is synchronous and bounded by Config.SendTimeout. Delivery failures
// are logged through Config.Logger and never returned.
package failurous

import (
	"context"
	"sync/atomic"

	"github.com/kart-io/failurous/client"
	"github.com/kart-io/failurous/config"
	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/notification"
	"github.com/kart-io/failurous/transport"
)

// Version of the client library.
const Version = transport.ClientVersion

type (
	// Config configures the notifier.
	Config = config.Config
	// Notification is a fail report.
	Notification = notification.Notification
	// Notifier sends notifications.
	Notifier = client.Notifier
)

var current atomic.Pointer[client.Notifier]

// Configure builds a notifier from the defaults as changed by populate and
// installs it.
func Configure(populate func(*Config), opts ...client.Option) error {
	cfg := config.New()
	if populate != nil {
		populate(cfg)
	}
	return install(cfg, opts...)
}

// ConfigureWith builds a notifier from functional options and installs it.
func ConfigureWith(opts ...config.Option) error {
	return install(config.New(opts...))
}

// ConfigureFromEnv loads failurous.yaml and FAILUROUS_* variables (see
// config.Load) and installs the resulting notifier.
func ConfigureFromEnv(opts ...client.Option) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return install(cfg, opts...)
}

func install(cfg *Config, opts ...client.Option) error {
	n, err := client.New(cfg, opts...)
	if err != nil {
		return err
	}
	Install(n)
	return nil
}

// Install makes n the process-wide notifier and returns the previous one.
func Install(n *Notifier) *Notifier {
	return current.Swap(n)
}

// Current returns the installed notifier, or nil.
func Current() *Notifier {
	return current.Load()
}

// Reset uninstalls the notifier and returns it. Later calls fail with
// errors.ErrNotConfigured until a notifier is installed again.
func Reset() *Notifier {
	return current.Swap(nil)
}

func installed() (*Notifier, error) {
	n := current.Load()
	if n == nil {
		return nil, failerrors.New(failerrors.ErrNotConfigured, "no notifier configured").
			WithDetails("configure the notifier using failurous.Configure")
	}
	return n, nil
}

// Notify reports a fail through the installed notifier. args are classified
// by client.Classify.
func Notify(ctx context.Context, args ...any) (*Notification, error) {
	n, err := installed()
	if err != nil {
		return nil, err
	}
	return n.NotifyArgs(ctx, client.TraceArgs(client.Classify(args...), 1), notification.Caller(1))
}

// NotifyException reports err, and object if given.
func NotifyException(ctx context.Context, err error, object ...any) (*Notification, error) {
	n, cerr := installed()
	if cerr != nil {
		return nil, cerr
	}
	return n.NotifyArgs(ctx, client.ExceptionArgs{Err: notification.TraceSkip(err, 1), Object: first(object)}, notification.Caller(1))
}

// NotifyTitledException reports err under a custom title.
func NotifyTitledException(ctx context.Context, title string, err error, object ...any) (*Notification, error) {
	n, cerr := installed()
	if cerr != nil {
		return nil, cerr
	}
	return n.NotifyArgs(ctx, client.TitledExceptionArgs{Title: title, Err: notification.TraceSkip(err, 1), Object: first(object)}, notification.Caller(1))
}

// NotifyMessage reports a titled fail located at the caller.
func NotifyMessage(ctx context.Context, title string, object ...any) (*Notification, error) {
	n, err := installed()
	if err != nil {
		return nil, err
	}
	return n.NotifyArgs(ctx, client.MessageArgs{Title: title, Object: first(object)}, notification.Caller(1))
}

// Send delivers an existing notification through the installed notifier.
func Send(ctx context.Context, notif *Notification) error {
	n, err := installed()
	if err != nil {
		return err
	}
	_, err = n.NotifyArgs(ctx, client.NotificationArgs{Notification: notif}, notification.Caller(1))
	return err
}

// NewNotification creates a notification located at the caller.
func NewNotification(title string) *Notification {
	return notification.NewAt(notification.Caller(1), title)
}

// Trace attaches the current stack to err. See notification.Trace.
func Trace(err error) error {
	return notification.TraceSkip(err, 1)
}

func first(object []any) any {
	if len(object) > 0 {
		return object[0]
	}
	return nil
}
