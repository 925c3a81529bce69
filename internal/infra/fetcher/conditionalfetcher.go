// Package fetcher implements the Conditional Fetcher (C3): conditional
// GET with ETag/Last-Modified support, host-tuned timeouts, bounded
// connection retries and a circuit breaker around the transport.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catchup-feed/internal/resilience/circuitbreaker"
)

// Result is the outcome of a single conditional fetch.
type Result struct {
	Body         []byte
	BodyPresent  bool
	ETag         *string
	LastModified *string
	ContentType  string
	StatusCode   int
	ElapsedMS    int64
}

// ConditionalFetcher performs conditional GETs per spec.md §4.3: ETag/
// Last-Modified revalidation, host-tuned read timeouts, bounded connection
// retries and a circuit breaker around the underlying transport.
type ConditionalFetcher struct {
	cfg            ConditionalConfig
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewConditionalFetcher builds a ConditionalFetcher from cfg.
func NewConditionalFetcher(cfg ConditionalConfig) *ConditionalFetcher {
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             "conditional-fetch",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	})
	return &ConditionalFetcher{cfg: cfg, circuitBreaker: cb}
}

func (f *ConditionalFetcher) httpClient(readTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: f.cfg.ConnectTimeout}
	return &http.Client{
		Timeout: f.cfg.ConnectTimeout + readTimeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return validateURL(req.URL.String(), f.cfg.DenyPrivateIPs)
		},
	}
}

// Fetch performs the conditional GET. priorETag/priorLastModified come from
// the http_cache row for urlStr, or are nil on first sighting.
func (f *ConditionalFetcher) Fetch(ctx context.Context, urlStr string, priorETag, priorLastModified *string) (Result, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return Result{}, err
	}
	return f.FetchWithTimeout(ctx, urlStr, priorETag, priorLastModified, f.cfg.ReadTimeoutFor(u.Hostname()))
}

// FetchWithTimeout is Fetch with an explicit read timeout override, used
// by the backfill ladder's stage-1 conditional GET (spec.md §4.9, a
// longer timeout than the crawl lane's host-tuned default).
func (f *ConditionalFetcher) FetchWithTimeout(ctx context.Context, urlStr string, priorETag, priorLastModified *string, readTimeout time.Duration) (Result, error) {
	if err := validateURL(urlStr, f.cfg.DenyPrivateIPs); err != nil {
		return Result{}, err
	}

	if f.cfg.ForceRefresh {
		priorETag = nil
		priorLastModified = nil
	}

	client := f.httpClient(readTimeout)

	out, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetchWithRetry(ctx, client, urlStr, readTimeout, priorETag, priorLastModified)
	})
	if err != nil {
		return Result{}, err
	}
	return out.(Result), nil
}

func (f *ConditionalFetcher) doFetchWithRetry(ctx context.Context, client *http.Client, urlStr string, readTimeout time.Duration, priorETag, priorLastModified *string) (Result, error) {
	var lastErr error
	delay := 250 * time.Millisecond

	for attempt := 0; attempt <= f.cfg.MaxConnRetries; attempt++ {
		result, err := f.doFetch(ctx, client, urlStr, readTimeout, priorETag, priorLastModified)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == f.cfg.MaxConnRetries {
			return Result{}, err
		}

		slog.Warn("conditional fetch retrying",
			slog.String("url", urlStr),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		delay = time.Duration(float64(delay) * f.cfg.BackoffFactor)
	}

	return Result{}, lastErr
}

// doFetch performs a single attempt. A read timeout (body already streaming)
// is not retried; only dial failures and the retryable status set are.
func (f *ConditionalFetcher) doFetch(ctx context.Context, client *http.Client, urlStr string, readTimeout time.Duration, priorETag, priorLastModified *string) (Result, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.ConnectTimeout+readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	if priorETag != nil {
		req.Header.Set("If-None-Match", *priorETag)
	}
	if priorLastModified != nil {
		req.Header.Set("If-Modified-Since", *priorLastModified)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, dialOrTimeoutError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start).Milliseconds()

	newETag := headerOrNil(resp.Header, "ETag")
	if newETag == nil {
		newETag = priorETag
	}
	newLM := headerOrNil(resp.Header, "Last-Modified")
	if newLM == nil {
		newLM = priorLastModified
	}
	contentType := firstToken(resp.Header.Get("Content-Type"))

	if resp.StatusCode == http.StatusNotModified {
		return Result{
			BodyPresent:  false,
			ETag:         newETag,
			LastModified: newLM,
			ContentType:  contentType,
			StatusCode:   http.StatusNotModified,
			ElapsedMS:    elapsed,
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &HttpError{Status: resp.StatusCode, URL: urlStr}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return Result{}, err
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		body = body[:f.cfg.MaxBodySize]
	}

	return Result{
		Body:         body,
		BodyPresent:  true,
		ETag:         newETag,
		LastModified: newLM,
		ContentType:  contentType,
		StatusCode:   resp.StatusCode,
		ElapsedMS:    time.Since(start).Milliseconds(),
	}, nil
}

func headerOrNil(h http.Header, key string) *string {
	v := h.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func firstToken(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// dialOrTimeoutError wraps a transport error, distinguishing a
// connection-establishment failure (retryable) from a read-phase timeout
// (not retryable, since read retries are disabled by policy).
func dialOrTimeoutError(err error) error {
	return &fetchTransportError{cause: err, dial: isDialError(err)}
}

type fetchTransportError struct {
	cause error
	dial  bool
}

func (e *fetchTransportError) Error() string { return e.cause.Error() }
func (e *fetchTransportError) Unwrap() error { return e.cause }

func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

func isRetryableFetchError(err error) bool {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var transportErr *fetchTransportError
	if errors.As(err, &transportErr) {
		return transportErr.dial
	}
	return false
}
