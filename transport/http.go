package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kart-io/failurous/config"
	failerrors "github.com/kart-io/failurous/errors"
)

// ClientVersion is reported in the User-Agent header.
const ClientVersion = "1.0.0"

// Request headers set on every POST.
const (
	HeaderRequestID = "X-Request-ID"
	UserAgent       = "failurous-go/" + ClientVersion
)

// maxDrain caps how much of a response body is read before closing it.
const maxDrain = 64 << 10

// HTTPConfig configures an HTTPPoster.
type HTTPConfig struct {
	// BaseURL is scheme, host and port of the collector.
	BaseURL string
	// Timeout bounds connecting and the whole request.
	Timeout time.Duration
	// CAFile, when set, replaces the system roots with the certificates in a
	// PEM bundle.
	CAFile             string
	InsecureSkipVerify bool
}

// HTTPPoster posts JSON documents over HTTP(S).
type HTTPPoster struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPosterFromConfig builds a poster for the collector described by cfg.
func NewHTTPPosterFromConfig(cfg *config.Config) (*HTTPPoster, error) {
	return NewHTTPPoster(HTTPConfig{
		BaseURL:            cfg.BaseURL(),
		Timeout:            cfg.SendTimeout,
		CAFile:             cfg.HTTPSCAFile,
		InsecureSkipVerify: cfg.InsecureSkipVerify(),
	})
}

// NewHTTPPoster creates an HTTPPoster. It fails only when the CA file cannot
// be used.
func NewHTTPPoster(cfg HTTPConfig) (*HTTPPoster, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultSendTimeout
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // https_verify_mode none
	}
	if cfg.CAFile != "" {
		pool, err := loadCertPool(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: cfg.Timeout,
	}

	return &HTTPPoster{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, failerrors.Wrap(err, failerrors.ErrInvalidConfig, "failed to read https_ca_file").
			WithContext("path", path)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, failerrors.New(failerrors.ErrInvalidConfig, "https_ca_file contains no certificates").
			WithContext("path", path)
	}
	return pool, nil
}

// Post sends body to path. Any status outside 2xx is an error.
func (p *HTTPPoster) Post(ctx context.Context, path string, body []byte) error {
	endpoint := p.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failerrors.NewNetworkError(failerrors.ErrDeliveryFailure, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := p.client.Do(req)
	if err != nil {
		return mapNetworkError(err, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failerrors.NewNetworkError(failerrors.ErrUnexpectedStatus, endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))).
			WithContext("status", resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return nil
}

// Close releases idle connections.
func (p *HTTPPoster) Close() {
	p.client.CloseIdleConnections()
}

func mapNetworkError(err error, endpoint string) error {
	if isTimeoutError(err) {
		return failerrors.NewNetworkError(failerrors.ErrDeliveryTimeout, endpoint, err)
	}
	if isTLSError(err) {
		return failerrors.NewNetworkError(failerrors.ErrTLSFailure, endpoint, err)
	}
	return failerrors.NewNetworkError(failerrors.ErrDeliveryFailure, endpoint, err)
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
		verification     *tls.CertificateVerificationError
		header           tls.RecordHeaderError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &verification) ||
		errors.As(err, &header)
}
