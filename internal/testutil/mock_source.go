// Package testutil provides testing utilities for listpage.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines a canned response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSource is a configurable paged JSON upstream for testing.
//
// Collections registered with SetItems are served page by page using the
// "page" and "page_size" query parameters, with the page count in X-Pages.
type MockSource struct {
	server *httptest.Server

	mu          sync.RWMutex
	collections map[string][]any
	failures    map[string][]MockResponse
	handlers    map[string]http.HandlerFunc

	requestCount int
	lastHeader   http.Header
	lastQuery    url.Values
}

// NewMockSource creates and starts a mock upstream.
func NewMockSource() *MockSource {
	mock := &MockSource{
		collections: make(map[string][]any),
		failures:    make(map[string][]MockResponse),
		handlers:    make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastHeader = r.Header.Clone()
		mock.lastQuery = r.URL.Query()

		// Queued failures are served before anything else.
		if queue := mock.failures[r.URL.Path]; len(queue) > 0 {
			resp := queue[0]
			mock.failures[r.URL.Path] = queue[1:]
			mock.mu.Unlock()
			writeResponse(w, resp)
			return
		}

		handler, hasHandler := mock.handlers[r.URL.Path]
		items, hasItems := mock.collections[r.URL.Path]
		mock.mu.Unlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasItems:
			servePage(w, r, items)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSource) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSource) Close() {
	m.server.Close()
}

// SetItems serves items as a paged collection at path.
func (m *MockSource) SetItems(path string, items []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = items
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSource) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockSource) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// FailNext makes the next n requests to path return resp.
func (m *MockSource) FailNext(path string, n int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures[path] = append(m.failures[path], resp)
	}
}

// Reset clears tracking counters and queued failures.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastHeader = nil
	m.lastQuery = nil
	m.failures = make(map[string][]MockResponse)
}

// RequestCount returns the number of requests made to the server.
func (m *MockSource) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastHeader returns the headers of the most recent request.
func (m *MockSource) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// LastQuery returns the query of the most recent request.
func (m *MockSource) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "1",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string, headers map[string]string) MockResponse {
	h := map[string]string{"Content-Type": "application/json; charset=utf-8"}
	for k, v := range headers {
		h[k] = v
	}
	return MockResponse{StatusCode: http.StatusOK, Body: body, Headers: h}
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// servePage writes the requested page of items. Pages past the end are empty.
func servePage(w http.ResponseWriter, r *http.Request, items []any) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, `{"error": "invalid page"}`, http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || size < 1 {
		size = 10
	}

	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	pages := (len(items) + size - 1) / size
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Pages", strconv.Itoa(pages))
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(items[start:end])
}
