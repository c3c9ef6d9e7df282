package github

import (
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// HTTPClientConfig configures the client used for GitHub API calls
type HTTPClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the wait before the first retry; it doubles on every attempt
	Backoff time.Duration
}

// NewHTTPClient returns a client that retries idempotent requests on 429 and 5xx
func NewHTTPClient(config HTTPClientConfig) *http.Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.Backoff == 0 {
		config.Backoff = 500 * time.Millisecond
	}

	return &http.Client{
		Timeout: config.Timeout,
		Transport: &retryTransport{
			base:       http.DefaultTransport,
			maxRetries: config.MaxRetries,
			backoff:    config.Backoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	wait := t.backoff
	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if attempt >= t.maxRetries || !retryable(resp, err) || req.Context().Err() != nil {
			return resp, err
		}

		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Debugf("🔄 Retrying %s %s after status %d", req.Method, req.URL.Path, resp.StatusCode)
		} else {
			log.Debugf("🔄 Retrying %s %s after error: %v", req.Method, req.URL.Path, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}
