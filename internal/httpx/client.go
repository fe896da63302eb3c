// Package httpx is the small JSON-over-HTTP getter shared by the pool and
// market-data sources.
package httpx

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

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Transient reports whether a retry could plausibly succeed.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client performs GETs with bounded exponential retry on transient failures.
type Client struct {
	HTTP     *http.Client
	MaxTries uint
	// NewBackOff builds the policy for one call. Tests swap in a zero delay.
	NewBackOff func() backoff.BackOff
	Log        zerolog.Logger
}

// New returns a client with the given per-request timeout and attempt count.
func New(timeout time.Duration, maxTries uint, log zerolog.Logger) *Client {
	if maxTries == 0 {
		maxTries = 1
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		MaxTries: maxTries,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		Log: log,
	}
}

// Get returns the body of a successful response. Errors never carry the
// query string of rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("build request for %s: invalid URL", redactString(rawURL)))
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				uerr.URL = redact(req)
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{URL: redact(req), Code: resp.StatusCode, Status: resp.Status}
			if serr.Transient() {
				return nil, serr
			}
			return nil, backoff.Permanent(serr)
		}
		return buf.Bytes(), nil
	}

	notify := func(err error, d time.Duration) {
		c.Log.Debug().Err(err).Dur("backoff", d).Msg("retrying GET")
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.NewBackOff()),
		backoff.WithMaxTries(c.MaxTries),
		backoff.WithNotify(notify))
}

// GetJSON decodes a successful response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: redactString(rawURL), Err: err}
	}
	return nil
}

// DecodeError wraps a body that is not the JSON the caller expected.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// IsStatus reports whether err carries an HTTP status error and returns it.
func IsStatus(err error) (*StatusError, bool) {
	var serr *StatusError
	ok := errors.As(err, &serr)
	return serr, ok
}

// redact keeps API keys out of error messages and logs.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func redactString(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid URL>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
