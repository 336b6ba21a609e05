// Package upstream builds the HTTP machinery shared by the Wikimedia API
// clients: a resty client with retry and backoff, request pacing, and
// Prometheus instrumentation.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wikiharvest/wikiharvest/internal/metrics"
	"github.com/wikiharvest/wikiharvest/internal/ratelimit"
)

// API names used in metric labels and error messages.
const (
	APIAction    = "action"
	APIPageviews = "pageviews"
)

// ErrRejected marks an in-band error payload returned by an upstream API.
// Rejections are terminal: the same request fails identically on every
// attempt, so the client never retries them.
var ErrRejected = errors.New("upstream rejected request")

// ErrExhausted marks a failure that survived the whole retry budget.
var ErrExhausted = errors.New("retry budget exhausted")

// Error describes a failed upstream call: either an in-band rejection
// payload (Code set) or a terminal HTTP status.
type Error struct {
	API    string
	Status int
	Code   string
	Info   string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s api rejected request: %s: %s", e.API, e.Code, e.Info)
	}
	return fmt.Sprintf("%s api returned status %d", e.API, e.Status)
}

// Is reports payload rejections as ErrRejected.
func (e *Error) Is(target error) bool {
	return target == ErrRejected && e.Code != ""
}

// Config holds the knobs shared by every upstream client.
type Config struct {
	BaseURL        string
	API            string
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Limiter        *ratelimit.Limiter
}

// Client is a resty client bound to one upstream API, plus the error
// helpers that encode the retry taxonomy.
type Client struct {
	*resty.Client
	API string

	maxAttempts int
}

// New builds a Client with retries, pacing, and metrics wired in. Transport
// errors, HTTP 429, and 5xx responses retry with exponential backoff up to
// MaxAttempts total attempts; every other status fails on the first try.
func New(cfg Config) *Client {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(cfg.Timeout).
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(cfg.BackoffInitial).
		SetRetryMaxWaitTime(cfg.BackoffMax)

	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return retryableStatus(resp.StatusCode())
	})
	r.AddRetryHook(func(_ *resty.Response, _ error) {
		metrics.ObserveUpstreamRetry(cfg.API)
	})

	limiter := cfg.Limiter
	api := cfg.API
	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context(), api)
	})
	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		metrics.ObserveUpstreamRequest(api, resp.StatusCode(), resp.Time())
		return nil
	})

	return &Client{Client: r, API: api, maxAttempts: attempts}
}

// StatusError converts a non-2xx response into a typed error, marking retry
// exhaustion when the final attempt still failed with a retryable status.
func (c *Client) StatusError(resp *resty.Response) error {
	uerr := &Error{API: c.API, Status: resp.StatusCode()}
	if retryableStatus(resp.StatusCode()) && resp.Request.Attempt >= c.maxAttempts {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, resp.Request.Attempt, uerr)
	}
	return uerr
}

// TransportError wraps a transport-level failure, which resty only surfaces
// after the retry budget is spent.
func (c *Client) TransportError(err error) error {
	if c.maxAttempts > 1 {
		return fmt.Errorf("%w after %d attempts: %s api: %w", ErrExhausted, c.maxAttempts, c.API, err)
	}
	return fmt.Errorf("%s api: %w", c.API, err)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
