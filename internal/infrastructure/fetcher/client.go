package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("saletracker/fetcher")

const defaultUserAgent = "Sale-Tracker/1.0"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestDelay   time.Duration
	Logger         *slog.Logger
}

// Client performs retried GET requests with a per-host politeness delay
type Client struct {
	http           *resty.Client
	maxRetries     int
	retryBaseDelay time.Duration
	requestDelay   time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a new fetcher client
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Client{
		http:           client,
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: opts.RetryBaseDelay,
		requestDelay:   opts.RequestDelay,
		logger:         opts.Logger,
		limiters:       make(map[string]*rate.Limiter),
	}
}

// exponentialBackoff returns the delay before the next attempt: base doubled per attempt
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// limiterFor returns the shared limiter of a host, one token per request delay
func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limit := rate.Inf
		if c.requestDelay > 0 {
			limit = rate.Every(c.requestDelay)
		}
		limiter = rate.NewLimiter(limit, 1)
		c.limiters[host] = limiter
	}
	return limiter
}

// Fetch GETs rawURL. Non-2xx responses are returned as pages; only
// connection-level failures are retried and, once exhausted, returned as
// *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*domain.Page, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", rawURL))

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		span.SetStatus(codes.Error, "invalid url")
		return nil, &domain.FetchError{Kind: domain.ErrUnreachable, URL: rawURL, Err: err}
	}
	limiter := c.limiterFor(parsed.Host)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		resp, err := c.http.R().
			SetContext(ctx).
			Get(rawURL)
		if err != nil {
			lastErr = err
			c.logger.WarnContext(ctx, "request attempt failed",
				"url", rawURL, "attempt", attempt, "err", err)
			if ctx.Err() != nil || attempt == c.maxRetries {
				break
			}
			if !sleep(ctx, exponentialBackoff(c.retryBaseDelay, attempt)) {
				lastErr = ctx.Err()
				break
			}
			continue
		}

		span.SetAttributes(
			attribute.Int("status", resp.StatusCode()),
			attribute.Int("attempts", attempt),
		)
		return &domain.Page{
			URL:        rawURL,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}, nil
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	kind := domain.ErrUnreachable
	if isTimeout(lastErr) {
		kind = domain.ErrTimeout
	}
	return nil, &domain.FetchError{Kind: kind, URL: rawURL, Err: lastErr}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleep waits for d or until ctx is done; it reports whether the full delay elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
