// Package upstream executes provider HTTP calls behind a circuit breaker,
// with tracing and metrics. It never retries.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/telemetry"
)

const maxBodyBytes = 4 << 20

// ErrCircuitOpen is returned while the provider's breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

var errRetryable = errors.New("provider unavailable")

// Config bundles HTTP client and breaker settings for one provider
type Config struct {
	Name string
	// HTTPClient is shared across providers; if nil one is built with Timeout
	HTTPClient *http.Client
	Timeout    time.Duration
	// BreakerFailures is the consecutive-failure count that opens the breaker
	BreakerFailures uint32
	// BreakerOpenFor is how long the breaker stays open before probing
	BreakerOpenFor time.Duration
}

// Client performs requests for a single provider
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.SugaredLogger
}

type response struct {
	status int
	body   []byte
}

// New creates a provider client
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = time.Minute
	}

	log := logger.Named(cfg.Name)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		name:       cfg.Name,
		httpClient: httpClient,
		breaker:    cb,
		log:        log,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return c.name
}

// Do executes req and returns the response body. Non-2xx answers come back as
// *domain.UpstreamError; the upstream body is logged, not returned.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, c.name+" "+req.Method)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.path", req.URL.Path),
	)

	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "UrbanPulse/1.0")
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		r := &response{status: resp.StatusCode, body: body}
		// Only availability problems count against the breaker
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return r, errRetryable
		}
		return r, nil
	})
	telemetry.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		telemetry.UpstreamRequests.WithLabelValues(c.name, "breaker_open").Inc()
		span.SetStatus(codes.Error, "circuit open")
		c.log.Warnw("request rejected, circuit open", "path", req.URL.Path)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUpstreamFailure, c.name, ErrCircuitOpen)
	}

	r, _ := result.(*response)
	if err != nil && r == nil {
		err = redactURL(err)
		telemetry.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.log.Warnw("request failed", "path", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUpstreamFailure, c.name, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", r.status))
	if r.status < 200 || r.status >= 300 {
		telemetry.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		span.SetStatus(codes.Error, http.StatusText(r.status))
		c.log.Warnw("unexpected status", "path", req.URL.Path, "status", r.status, "body", truncate(r.body, 512))
		return nil, &domain.UpstreamError{Provider: c.name, StatusCode: r.status}
	}

	telemetry.UpstreamRequests.WithLabelValues(c.name, "ok").Inc()
	c.log.Debugw("request ok", "path", req.URL.Path, "status", r.status, "elapsed", time.Since(start))
	return r.body, nil
}

// Get is a convenience for GET requests
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := NewRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// NewRequest builds a request for reqURL. Parse errors omit the URL query.
func NewRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactURL(err))
	}
	return req, nil
}

// redactURL replaces a *url.Error with one whose URL has no query string.
// Provider keys travel as query parameters.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	clean := "<redacted>"
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		u.User = nil
		clean = u.String()
	}
	return &url.Error{Op: ue.Op, URL: clean, Err: ue.Err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
