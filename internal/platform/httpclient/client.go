package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	stdhttp "net/http"
	"net/url"
	"time"

	"repairguide/internal/shared"
	"repairguide/pkg/retry"
)

// Client executes requests with logging and bounded retries.
type Client struct {
	hc          *stdhttp.Client
	log         *slog.Logger
	baseBackoff time.Duration
	maxJitter   time.Duration
	maxBackoff  time.Duration
	headers     map[string]string
	urlRedactor func(*url.URL) string
	maxBodySize int64
	rand        *rand.Rand
	after       func(time.Duration) <-chan time.Time
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = t }
}

// WithLogger sets logger used by client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBackoff sets the backoff unit and the jitter bound added to every wait.
func WithBackoff(base, jitter time.Duration) Option {
	return func(c *Client) {
		if base >= 0 {
			c.baseBackoff = base
		}
		if jitter >= 0 {
			c.maxJitter = jitter
		}
	}
}

// WithMaxBackoff caps a single wait.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) { c.maxBackoff = d }
}

// WithHeaders adds default headers to each request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			if c.headers == nil {
				c.headers = make(map[string]string)
			}
			c.headers[k] = v
		}
	}
}

// WithoutHeaders removes default headers.
func WithoutHeaders(keys ...string) Option {
	return func(c *Client) {
		for _, k := range keys {
			delete(c.headers, k)
		}
	}
}

// WithTransport sets custom transport.
func WithTransport(rt stdhttp.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.hc.Transport = rt
		}
	}
}

// WithMaxBodySize limits how much of a response body is read (0 disables limit).
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// WithRand sets the jitter source.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) { c.rand = r }
}

// WithAfter replaces time.After for backoff waits.
func WithAfter(f func(time.Duration) <-chan time.Time) Option {
	return func(c *Client) {
		if f != nil {
			c.after = f
		}
	}
}

// ErrBodyTooLarge indicates the response body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("http: response body too large")

// New creates configured Client.
func New(opts ...Option) *Client {
	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.MaxIdleConns = 100
	tr.MaxIdleConnsPerHost = 100
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second

	d := retry.DefaultConfig()
	c := &Client{
		hc: &stdhttp.Client{
			Timeout:   60 * time.Second,
			Transport: tr,
		},
		log:         slog.Default(),
		baseBackoff: d.BaseDelay,
		maxJitter:   d.MaxJitter,
		maxBodySize: 10 << 20,
		urlRedactor: RedactQuery("key"),
		after:       time.After,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RedactQuery returns a redactor masking the given query parameters and any
// userinfo password.
func RedactQuery(keys ...string) func(*url.URL) string {
	return func(u *url.URL) string {
		if u == nil {
			return ""
		}
		cp := *u
		if len(keys) > 0 && cp.RawQuery != "" {
			q := cp.Query()
			for _, k := range keys {
				if q.Has(k) {
					q.Set(k, "REDACTED")
				}
			}
			cp.RawQuery = q.Encode()
		}
		return cp.Redacted()
	}
}

func (c *Client) redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return c.urlRedactor(u)
}

// Execute sends req, retrying 429 responses and transport failures with
// exponential backoff plus jitter, up to maxAttempts attempts in total.
// Any other non-2xx status fails at once with *HTTPError. When attempts run out
// the error is a *retry.RetriesExceededError wrapping the last failure.
// maxAttempts <= 0 fails with retry.ErrNoAttempts without sending anything.
func (c *Client) Execute(ctx context.Context, req Request, maxAttempts int) (*Response, error) {
	var (
		out     *Response
		attempt int
	)
	u := c.redactURL(req.URL)

	cfg := retry.Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   c.baseBackoff,
		MaxJitter:   c.maxJitter,
		MaxDelay:    c.maxBackoff,
		Rand:        c.rand,
		After:       c.after,
		OnRetry: func(n int, err error, wait time.Duration) {
			c.log.WarnContext(ctx, "http request retry",
				slog.String("method", req.Method),
				slog.String("url", u),
				slog.Int("attempt", n),
				slog.Int("attempts_left", maxAttempts-n),
				slog.Duration("wait", wait),
				slog.String("kind", shared.KindOf(err).String()),
				slog.Any("error", err),
			)
		},
	}

	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		attempt++
		resp, err := c.attempt(ctx, req, u, attempt)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}, func(err error) bool {
		return ctx.Err() == nil && shared.IsRetryable(err)
	})
	if err != nil {
		c.log.WarnContext(ctx, "http request failed",
			slog.String("method", req.Method),
			slog.String("url", u),
			slog.Int("attempts", attempt),
			slog.Any("error", err),
		)
		return nil, err
	}
	return out, nil
}

// attempt performs exactly one round trip and reads the whole body.
func (c *Client) attempt(ctx context.Context, req Request, u string, attempt int) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	r, err := stdhttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("build request: %w", err), shared.KindInternal)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	for k, v := range c.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}

	st := time.Now()
	hr, err := c.hc.Do(r)
	if err != nil {
		// url.Error repeats the raw URL, key included
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = u
		}
		return nil, &TransportError{Method: req.Method, URL: u, Err: err}
	}
	defer hr.Body.Close()

	data, err := c.readBody(hr.Body)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, shared.MarkKind(err, shared.KindInternal)
		}
		return nil, &TransportError{Method: req.Method, URL: u, Err: err}
	}
	dur := time.Since(st)

	c.log.InfoContext(ctx, "http request",
		slog.String("method", req.Method),
		slog.String("url", u),
		slog.Int("status", hr.StatusCode),
		slog.Duration("dur", dur),
		slog.Int("attempt", attempt),
	)

	if hr.StatusCode < 200 || hr.StatusCode >= 300 {
		return nil, &HTTPError{Method: req.Method, URL: u, StatusCode: hr.StatusCode, Body: data}
	}
	return &Response{StatusCode: hr.StatusCode, Header: hr.Header.Clone(), Body: data}, nil
}

func (c *Client) readBody(b io.Reader) ([]byte, error) {
	if c.maxBodySize <= 0 {
		return io.ReadAll(b)
	}
	data, err := io.ReadAll(io.LimitReader(b, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
