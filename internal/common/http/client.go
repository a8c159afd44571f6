package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	apperrors "movie-dropoff/internal/common/errors"
)

// Client wraps net/http with JSON helpers. Every failure comes back as a
// StandardError coded TRANSPORT_FAILURE, STATUS_FAILURE or SCHEMA_FAILURE.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	getRetries int
	backoff    time.Duration
}

type Option func(*Client)

// WithRateLimiter makes every attempt wait for a token first.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithGetRetries sets how many extra attempts an idempotent GET gets after a
// transport failure or a 5xx/429 response.
func WithGetRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.getRetries = n
		c.backoff = backoff
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.getRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperrors.NewTransportFailureError(target(rawURL), ctx.Err())
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		lastErr = c.doJSON(ctx, http.MethodGet, rawURL, nil, out)
		if lastErr == nil || !retryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// PostJSON encodes body, POSTs it once and decodes a 2xx body into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewInvalidFeatureVectorError(err.Error())
	}
	return c.doJSON(ctx, http.MethodPost, rawURL, payload, out)
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload []byte, out interface{}) error {
	tgt := target(rawURL)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.NewTransportFailureError(tgt, err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return apperrors.NewTransportFailureError(tgt, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, query string included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return apperrors.NewTransportFailureError(tgt, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return apperrors.NewStatusFailureError(tgt, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewSchemaFailureError(tgt, fmt.Sprintf("decode: %v", err))
	}
	return nil
}

func retryable(err error) bool {
	var stdErr *apperrors.StandardError
	if !errors.As(err, &stdErr) {
		return false
	}
	switch stdErr.Code {
	case apperrors.ErrCodeTransportFailure:
		return true
	case apperrors.ErrCodeStatusFailure:
		return stdErr.Retryable
	}
	return false
}

// target is the URL without its query, safe to log.
func target(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "upstream"
	}
	return u.Host + u.Path
}
