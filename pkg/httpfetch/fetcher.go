// Package httpfetch loads list pages from a JSON HTTP endpoint.
//
// A Fetcher's Fetch method satisfies pagination.FetchFunc, so it can back a
// list directly:
//
//	fetcher, err := httpfetch.New[Order](httpfetch.DefaultConfig(
//		"https://api.example.com/orders", "orders-view/1.0 (ops@example.com)"))
//	list, err := pagination.New(pagination.Config[Order]{Fetch: fetcher.Fetch})
//
// Each page is requested as GET <BaseURL>?page=N&page_size=S. The response
// body is a JSON array of items or a single JSON object; a JSON null body
// produces no result. An X-Pages response header is passed on as the total
// page count.
package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/Sternrassler/listpage/pkg/pagination"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
)

// HeaderPages is the response header carrying the total page count.
const HeaderPages = "X-Pages"

// maxErrorBody bounds how much of an error response is kept as its message.
const maxErrorBody = 512

// Config holds the fetcher configuration.
type Config struct {
	// BaseURL is the absolute URL pages are requested from (required).
	BaseURL string

	// PageParam is the query parameter carrying the page number (default: "page").
	PageParam string

	// SizeParam is the query parameter carrying the page size (default: "page_size").
	SizeParam string

	// UserAgent is sent with every request (required).
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// RequestsPerSecond throttles outgoing requests; 0 disables throttling.
	RequestsPerSecond int

	// Retry controls retries of server, rate limit and network errors.
	Retry RetryConfig

	// Timeout bounds a single HTTP attempt (default: 30s).
	Timeout time.Duration

	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:           baseURL,
		PageParam:         "page",
		SizeParam:         "page_size",
		UserAgent:         userAgent,
		RequestsPerSecond: 10,
		Retry:             DefaultRetryConfig(),
		Timeout:           30 * time.Second,
	}
}

// Fetcher requests pages of T from an HTTP endpoint.
type Fetcher[T any] struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	limiter    ratelimit.Limiter
	logger     zerolog.Logger
}

// New creates a fetcher from cfg.
func New[T any](cfg Config) (*Fetcher[T], error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %d)", cfg.RequestsPerSecond)
	}

	if cfg.PageParam == "" {
		cfg.PageParam = "page"
	}
	if cfg.SizeParam == "" {
		cfg.SizeParam = "page_size"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.RequestsPerSecond)
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str(logging.FieldComponent, "httpfetch").Logger()
	} else {
		logger = logging.NewLogger("httpfetch")
	}

	return &Fetcher[T]{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		limiter:    limiter,
		logger:     logger.With().Str("host", base.Host).Logger(),
	}, nil
}

// Fetch loads one page. It satisfies pagination.FetchFunc.
func (f *Fetcher[T]) Fetch(ctx context.Context, req pagination.FetchRequest) (pagination.Result[T], error) {
	pageURL := f.pageURL(req)

	var body []byte
	var header http.Header

	err := retryWithBackoff(ctx, f.config.Retry, f.logger, func() error {
		var attemptErr error
		body, header, attemptErr = f.do(ctx, pageURL)
		return attemptErr
	})
	if err != nil {
		return pagination.Result[T]{}, err
	}

	result, err := decodePage[T](body)
	if err != nil {
		f.logger.Warn().Err(err).Int(logging.FieldPage, req.PageNumber).Msg("Failed to decode page")
		return pagination.Result[T]{}, fmt.Errorf("decode page %d: %w", req.PageNumber, err)
	}

	if total, ok := parsePages(header.Get(HeaderPages)); ok && !result.IsZero() {
		result = result.WithTotalPages(total)
	}

	f.logger.Debug().
		Int(logging.FieldPage, req.PageNumber).
		Int(logging.FieldPageSize, req.PageSize).
		Int("items", result.Len()).
		Msg("Page loaded")

	return result, nil
}

// do performs one HTTP attempt and returns the response body.
func (f *Fetcher[T]) do(ctx context.Context, pageURL string) ([]byte, http.Header, error) {
	f.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		requestsTotal.WithLabelValues("network_error").Inc()
		f.logger.Error().Err(err).Str("url", pageURL).Msg("HTTP request failed")
		return nil, nil, &HTTPError{
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		message, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		f.logger.Warn().
			Str("url", pageURL).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream request error")

		msg := resp.Status
		if trimmed := bytes.TrimSpace(message); len(trimmed) > 0 {
			msg = string(trimmed)
		}
		return nil, nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    msg,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	return body, resp.Header, nil
}

// pageURL builds the request URL for req, keeping any query on the base URL.
func (f *Fetcher[T]) pageURL(req pagination.FetchRequest) string {
	u := *f.baseURL
	query := u.Query()
	query.Set(f.config.PageParam, strconv.Itoa(req.PageNumber))
	if req.PageSize > 0 {
		query.Set(f.config.SizeParam, strconv.Itoa(req.PageSize))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

var errEmptyBody = errors.New("empty response body")

// decodePage decodes a JSON array as a page, a JSON object or scalar as a
// single item, and null as no result.
func decodePage[T any](body []byte) (pagination.Result[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return pagination.Result[T]{}, errEmptyBody
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return pagination.Result[T]{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return pagination.Result[T]{}, err
		}
		return pagination.Items(items), nil
	}

	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return pagination.Result[T]{}, err
	}
	return pagination.One(item), nil
}

// parsePages parses an X-Pages header value.
func parsePages(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
