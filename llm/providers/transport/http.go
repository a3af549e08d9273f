// Package transport provides tuned HTTP plumbing shared by the LLM
// provider and web search clients.
package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"research-assistant/server/llm/providers/shared"
)

// Options configures an HTTPClient.
type Options struct {
	APIKey       string
	Headers      map[string]string
	Timeout      time.Duration
	RetryMax     int
	RetryBackoff time.Duration
	MaxIdleConns int
	IdleConnTTL  time.Duration
	// RPS enables client-side rate limiting when > 0.
	RPS   float64
	Burst int
}

// HTTPClient is an HTTP client with retries, backoff and optional
// rate limiting.
type HTTPClient struct {
	client  *http.Client
	opts    Options
	limiter *Limiter
}

// NewHTTPClient creates a new HTTP client with the specified options
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 10
	}
	if opts.IdleConnTTL == 0 {
		opts.IdleConnTTL = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConns,
		IdleConnTimeout:     opts.IdleConnTTL,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	var limiter *Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = NewLimiter(opts.RPS, burst)
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:    opts,
		limiter: limiter,
	}
}

// StandardClient returns a *http.Client that routes every request
// through Do, so SDKs taking a plain client still get the retry and
// rate limiting behavior.
func (c *HTTPClient) StandardClient() *http.Client {
	return &http.Client{Transport: &retryRoundTripper{client: c}}
}

type retryRoundTripper struct {
	client *HTTPClient
}

func (rt *retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.client.Do(req.Context(), req)
}

// Do performs an HTTP request with rate limiting and retry on 429 and
// server errors. The request body must be rewindable via GetBody for
// retries to work; requests built with http.NewRequestWithContext from
// a bytes.Reader satisfy this.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.opts.RetryBackoff * time.Duration(attempt)):
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			code := shared.ErrUnavailable
			if resp.StatusCode == http.StatusTooManyRequests {
				code = shared.ErrRateLimited
			}
			lastErr = &shared.ProviderError{
				Code:       code,
				Message:    "server error: " + resp.Status,
				HTTPStatus: resp.StatusCode,
			}
			continue
		}

		return resp, nil
	}

	if lastErr == nil {
		lastErr = &shared.ProviderError{
			Code:    shared.ErrUnavailable,
			Message: "request failed after retries",
		}
	}

	return nil, lastErr
}
