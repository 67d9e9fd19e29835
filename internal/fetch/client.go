// Package fetch is the retrying JSON-over-HTTP client every upstream call
// goes through.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	DefaultAttempts    = 3
	DefaultBackoffUnit = 1 * time.Second
	DefaultUserAgent   = "jenv-landing-fetcher"
)

// Client performs GET requests with a bounded, linearly backing-off retry
type Client struct {
	http      *retryablehttp.Client
	userAgent string
	logger    *zap.Logger
}

type options struct {
	attempts    int
	backoffUnit time.Duration
	userAgent   string
	httpClient  *http.Client
}

// Option configures a Client
type Option func(*options)

// WithAttempts sets the total number of attempts per request
func WithAttempts(n int) Option {
	return func(o *options) {
		o.attempts = n
	}
}

// WithBackoffUnit sets the wait unit; the wait after the n-th failure is n units
func WithBackoffUnit(d time.Duration) Option {
	return func(o *options) {
		o.backoffUnit = d
	}
}

// WithUserAgent sets the User-Agent header sent on every request
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New creates a fetch client
func New(logger *zap.Logger, opts ...Option) *Client {
	o := options{
		attempts:    DefaultAttempts,
		backoffUnit: DefaultBackoffUnit,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.attempts < 1 {
		o.attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		userAgent: o.userAgent,
		logger:    logger,
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil // attempts are logged through zap in checkRetry
	rc.RetryMax = o.attempts - 1
	rc.RetryWaitMin = o.backoffUnit
	rc.RetryWaitMax = time.Duration(o.attempts) * o.backoffUnit
	rc.Backoff = linearBackoff(o.backoffUnit)
	rc.CheckRetry = c.checkRetry
	rc.RequestLogHook = countAttempt
	rc.ErrorHandler = giveUp
	if o.httpClient != nil {
		rc.HTTPClient = o.httpClient
	} else {
		rc.HTTPClient.Timeout = 30 * time.Second
	}

	c.http = rc
	return c
}

// GetJSON fetches url and decodes the JSON body into out. Non-2xx statuses,
// transport faults and truncated or malformed bodies are retried; the last
// fault is returned once the attempts are used up.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out interface{}) error {
	var attempt int
	ctx = context.WithValue(ctx, attemptKey{}, &attempt)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

type attemptKey struct{}

func countAttempt(_ retryablehttp.Logger, req *http.Request, _ int) {
	if n, ok := req.Context().Value(attemptKey{}).(*int); ok {
		*n++
	}
}

func attemptOf(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(*int); ok {
		return *n
	}
	return 0
}

func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	if err != nil {
		c.logger.Warn("attempt failed",
			zap.Int("attempt", attemptOf(ctx)),
			zap.Error(err),
		)
		return true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("attempt failed",
			zap.Int("attempt", attemptOf(ctx)),
			zap.String("url", resp.Request.URL.String()),
			zap.Int("status", resp.StatusCode),
		)
		return true, nil
	}

	if err := bufferBody(resp); err != nil {
		c.logger.Warn("attempt failed",
			zap.Int("attempt", attemptOf(ctx)),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err),
		)
		return true, nil
	}

	return false, nil
}

var errMalformedBody = errors.New("response body is not valid JSON")

// bufferBody reads a successful response completely, so a connection that
// drops mid-body counts as a failed attempt like any other transport fault.
func bufferBody(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err == nil && !json.Valid(data) {
		err = errMalformedBody
	}
	if err != nil {
		resp.Body = &failedBody{err: err}
		return err
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))
	return nil
}

// failedBody stands in for a body that could not be read
type failedBody struct {
	err error
}

func (b *failedBody) Read([]byte) (int, error) { return 0, b.err }

func (b *failedBody) Close() error { return nil }

func linearBackoff(unit time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return time.Duration(attemptNum+1) * unit
	}
}

// StatusError is returned when the final attempt got a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
	Attempts   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s): HTTP %s", e.Attempts, e.Status)
}

func giveUp(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("giving up after %d attempt(s): %w", numTries, err)
	}
	if resp != nil {
		if body, ok := resp.Body.(*failedBody); ok {
			return nil, fmt.Errorf("giving up after %d attempt(s): reading body: %w", numTries, body.err)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Attempts: numTries}
	}
	return nil, fmt.Errorf("giving up after %d attempt(s)", numTries)
}
