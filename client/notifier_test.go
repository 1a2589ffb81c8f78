package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/failurous/config"
	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/logger"
	"github.com/kart-io/failurous/logger/adapters"
	"github.com/kart-io/failurous/notification"
	"github.com/kart-io/failurous/transport"
)

type post struct {
	path string
	body []byte
}

type recordingPoster struct {
	mu    sync.Mutex
	posts []post
	err   error
}

func (p *recordingPoster) Post(_ context.Context, path string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, post{path: path, body: append([]byte(nil), body...)})
	return p.err
}

func (p *recordingPoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (r *recordingLogger) log(level logger.LogLevel, msg string) {
	if level != logger.Warn {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func newTestNotifier(t *testing.T, poster transport.Poster, opts ...config.Option) (*Notifier, *recordingLogger) {
	t.Helper()
	rec := &recordingLogger{}
	base := []config.Option{
		config.WithAPIKey("123"),
		config.WithServer("localhost", 0),
		config.WithLogger(adapters.NewFuncAdapter(rec.log, logger.Debug)),
	}
	n, err := New(config.New(append(base, opts...)...), WithPoster(poster))
	require.NoError(t, err)
	return n, rec
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidConfig))

	_, err = New(config.New())
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidConfig))

	_, err = New(config.New(config.WithAPIKey("1"), config.WithServer("localhost", 0), config.WithHTTPSCAFile("/does/not/exist.pem")))
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidConfig))
}

func TestFailsPath(t *testing.T) {
	assert.Equal(t, "/api/projects/123/fails", FailsPath("123"))
	assert.Equal(t, "/api/projects/a%2Fb/fails", FailsPath("a/b"))
}

func TestNotify_PostsExactBody(t *testing.T) {
	poster := &recordingPoster{}
	n, _ := newTestNotifier(t, poster)

	build := func() *notification.Notification {
		return notification.NewAt("app.go:1", "X").
			MustAddField(notification.SectionSummary, "user", "alice", notification.InChecksum()).
			MustAddField("request", "path", "/checkout")
	}

	notif := build()
	got, err := n.Notify(context.Background(), notif)
	require.NoError(t, err)
	assert.Same(t, notif, got)

	want, err := build().Encode()
	require.NoError(t, err)

	require.Equal(t, 1, poster.count())
	assert.Equal(t, "/api/projects/123/fails", poster.posts[0].path)
	assert.Equal(t, want, poster.posts[0].body)

	_, err = n.NotifyNotification(context.Background(), build())
	require.NoError(t, err)
	assert.Equal(t, poster.posts[0].body, poster.posts[1].body)
}

func TestNotify_Shapes(t *testing.T) {
	poster := &recordingPoster{}
	n, _ := newTestNotifier(t, poster)
	ctx := context.Background()
	boom := notification.Trace(errors.New("boom"))

	t.Run("exception", func(t *testing.T) {
		notif, err := n.Notify(ctx, boom)
		require.NoError(t, err)
		assert.Equal(t, "*errors.errorString: boom", notif.Title())
		assert.Contains(t, notif.Location(), "notifier_test.go:")
		assert.True(t, notif.UseLocationInChecksum())
	})

	t.Run("titled exception", func(t *testing.T) {
		notif, err := n.Notify(ctx, "Checkout failed", boom)
		require.NoError(t, err)
		assert.Equal(t, "Checkout failed", notif.Title())
		assert.True(t, notif.UseTitleInChecksum())
	})

	t.Run("message", func(t *testing.T) {
		notif, err := n.Notify(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", notif.Title())
		assert.Contains(t, notif.Location(), "notifier_test.go:")
		assert.Contains(t, notif.Location(), "TestNotify_Shapes")
		assert.True(t, notif.UseLocationInChecksum())
	})

	t.Run("typed entry points", func(t *testing.T) {
		notif, err := n.NotifyMessage(ctx, "typed")
		require.NoError(t, err)
		assert.Contains(t, notif.Location(), "notifier_test.go:")

		notif, err = n.NotifyException(ctx, boom, map[string]any{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, "*errors.errorString: boom", notif.Title())

		notif, err = n.NotifyTitledException(ctx, "titled", boom)
		require.NoError(t, err)
		assert.Equal(t, "titled", notif.Title())
	})

	stats := n.Stats()
	assert.Equal(t, int64(2), stats.SendsByShape[string(ShapeMessage)])
	assert.Equal(t, int64(2), stats.SendsByShape[string(ShapeException)])
	assert.Equal(t, int64(2), stats.SendsByShape[string(ShapeTitledException)])
	assert.Equal(t, int64(0), stats.TotalFailed)
}

func TestNotify_DeliveryFailureIsAbsorbed(t *testing.T) {
	poster := &recordingPoster{err: failerrors.NewNetworkError(failerrors.ErrDeliveryFailure, "http://localhost:80", errors.New("connection refused"))}
	n, rec := newTestNotifier(t, poster)

	notif, err := n.Notify(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.Equal(t, "hello", notif.Title())

	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "Could not send fail notification: NET001: ")
	assert.Contains(t, rec.warnings[0], "connection refused")

	stats := n.Stats()
	assert.Equal(t, int64(1), stats.TotalFailed)
	assert.Equal(t, int64(1), stats.FailsByCode["NET001"])
}

func TestNotify_PlainPosterErrorKind(t *testing.T) {
	poster := transport.PosterFunc(func(context.Context, string, []byte) error {
		return errors.New("socket closed")
	})
	n, rec := newTestNotifier(t, poster)

	_, err := n.NotifyMessage(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, rec.warnings, 1)
	assert.Equal(t, "Could not send fail notification: *errors.errorString: socket closed", rec.warnings[0])
}

func TestNotify_WithoutLogger(t *testing.T) {
	poster := &recordingPoster{err: errors.New("down")}
	n, err := New(config.New(config.WithAPIKey("1"), config.WithServer("localhost", 0)), WithPoster(poster))
	require.NoError(t, err)

	notif, err := n.NotifyMessage(context.Background(), "x")
	assert.NoError(t, err)
	assert.NotNil(t, notif)
}

func TestNotify_IgnoredByFactory(t *testing.T) {
	errSkip := errors.New("skip")
	poster := &recordingPoster{}
	n, rec := newTestNotifier(t, poster, config.WithNotificationFactory(notification.ObjectFactory{
		IgnoreFunc: func(err error, _ any) bool { return errors.Is(err, errSkip) },
	}))

	notif, err := n.NotifyException(context.Background(), errSkip)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Equal(t, 0, poster.count())
	assert.Empty(t, rec.warnings)
	assert.Equal(t, int64(1), n.Stats().TotalIgnored)
}

func TestNotify_ValidatePayload(t *testing.T) {
	poster := &recordingPoster{}
	n, rec := newTestNotifier(t, poster, config.WithValidatePayload(true))

	bad := notification.NewAt("here", "").MustAddField("", "f", 1)
	notif, err := n.NotifyNotification(context.Background(), bad)
	require.NoError(t, err)
	assert.Same(t, bad, notif)
	assert.Equal(t, 0, poster.count())
	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "MSG002")

	_, err = n.NotifyMessage(context.Background(), "fine")
	require.NoError(t, err)
	assert.Equal(t, 1, poster.count())
}

func TestNotify_RateLimit(t *testing.T) {
	poster := &recordingPoster{}
	n, rec := newTestNotifier(t, poster, config.WithRateLimit(2))

	for i := 0; i < 5; i++ {
		notif, err := n.NotifyMessage(context.Background(), "storm")
		require.NoError(t, err)
		require.NotNil(t, notif)
	}

	assert.Equal(t, 2, poster.count())
	stats := n.Stats()
	assert.Equal(t, int64(2), stats.TotalSent)
	assert.Equal(t, int64(3), stats.Throttled)
	assert.Empty(t, rec.warnings)
}

func assertLocatedAtCallSite(t *testing.T, notif *notification.Notification, function string) {
	t.Helper()
	require.NotNil(t, notif)
	assert.True(t, notif.LocationSet())
	assert.True(t, notif.UseLocationInChecksum())
	assert.Contains(t, notif.Location(), "notifier_test.go:")
	assert.Contains(t, notif.Location(), function)

	topmost, ok := notif.Field(notification.SectionSummary, notification.FieldTopmostLine)
	require.True(t, ok)
	assert.Equal(t, notif.Location(), topmost.Value)
	assert.True(t, topmost.Options.UseInChecksum)

	full, ok := notif.Field(notification.SectionDetails, notification.FieldFullBacktrace)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(full.Value.(string), notif.Location()))
}

func TestNotify_UntracedErrorUsesCallSite(t *testing.T) {
	poster := &recordingPoster{}
	n, _ := newTestNotifier(t, poster)
	ctx := context.Background()

	notif, err := n.NotifyException(ctx, errors.New("boom"))
	require.NoError(t, err)
	assertLocatedAtCallSite(t, notif, "TestNotify_UntracedErrorUsesCallSite")
	assert.Equal(t, "*errors.errorString: boom", notif.Title())

	notif, err = n.NotifyTitledException(ctx, "Checkout failed", fmt.Errorf("charge: %s", "declined"))
	require.NoError(t, err)
	assertLocatedAtCallSite(t, notif, "TestNotify_UntracedErrorUsesCallSite")

	notif, err = n.Notify(ctx, errors.New("boom"))
	require.NoError(t, err)
	assertLocatedAtCallSite(t, notif, "TestNotify_UntracedErrorUsesCallSite")

	notif, err = n.Notify(ctx, "Checkout failed", errors.New("boom"))
	require.NoError(t, err)
	assertLocatedAtCallSite(t, notif, "TestNotify_UntracedErrorUsesCallSite")

	assert.Equal(t, 4, poster.count())
}

func TestNotify_TracedErrorKeepsItsStack(t *testing.T) {
	n, _ := newTestNotifier(t, &recordingPoster{})
	boom := tracedHere()

	notif, err := n.NotifyException(context.Background(), boom)
	require.NoError(t, err)
	assert.Contains(t, notif.Location(), "tracedHere")
}

func tracedHere() error {
	return notification.Trace(errors.New("boom"))
}

func TestNotify_NilNotificationArgument(t *testing.T) {
	poster := &recordingPoster{}
	n, _ := newTestNotifier(t, poster)

	notif, err := n.Notify(context.Background(), (*notification.Notification)(nil))
	assert.Nil(t, notif)
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidArgs))
	assert.Equal(t, 0, poster.count())
}

func TestNotify_ConstructionErrorPropagates(t *testing.T) {
	factory := notification.FactoryFunc(func(notification.Spec) (*notification.Notification, error) {
		return nil, errors.New("factory broke")
	})
	poster := &recordingPoster{}
	n, rec := newTestNotifier(t, poster, config.WithNotificationFactory(factory))

	_, err := n.NotifyMessage(context.Background(), "x")
	assert.EqualError(t, err, "factory broke")
	assert.Equal(t, 0, poster.count())
	assert.Empty(t, rec.warnings)

	_, err = n.NotifyNotification(context.Background(), nil)
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidArgs))

	_, err = n.NotifyArgs(context.Background(), nil, "x")
	assert.True(t, failerrors.IsCode(err, failerrors.ErrInvalidArgs))
}

func TestNotify_Concurrent(t *testing.T) {
	poster := &recordingPoster{}
	n, _ := newTestNotifier(t, poster)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = n.Notify(context.Background(), "concurrent", map[string]int{"i": i})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, poster.count())
	assert.Equal(t, int64(20), n.Stats().TotalSent)
}

func TestNotify_OverHTTP(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	n, err := New(config.New(config.WithAPIKey("123"), config.WithServer(host, port)))
	require.NoError(t, err)
	defer func() { _ = n.Close(context.Background()) }()

	_, err = n.NotifyMessage(context.Background(), "over http")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/api/projects/123/fails"}, paths)
	assert.Equal(t, int64(1), n.Stats().TotalSent)
}
