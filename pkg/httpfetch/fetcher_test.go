package httpfetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/listpage/internal/testutil"
	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/Sternrassler/listpage/pkg/pagination"
)

type order struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

func orders(n int) []any {
	items := make([]any, n)
	for i := range items {
		items[i] = order{ID: i + 1, Label: "order"}
	}
	return items
}

func newTestFetcher[T any](t *testing.T, baseURL string) *Fetcher[T] {
	t.Helper()

	logger := logging.Nop()
	cfg := DefaultConfig(baseURL, "TestApp/1.0.0 (test@example.com)")
	cfg.RequestsPerSecond = 0
	cfg.Retry = fastRetry(3)
	cfg.Logger = &logger

	f, err := New[T](cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("https://api.example.com/orders", "TestApp/1.0.0"),
		},
		{
			name:     "missing base url",
			config:   DefaultConfig("", "TestApp/1.0.0"),
			errorMsg: "base url is required",
		},
		{
			name:     "relative base url",
			config:   DefaultConfig("/orders", "TestApp/1.0.0"),
			errorMsg: "base url must be absolute",
		},
		{
			name:     "empty user agent",
			config:   DefaultConfig("https://api.example.com/orders", ""),
			errorMsg: "user-agent is required",
		},
		{
			name: "negative rate",
			config: Config{
				BaseURL:           "https://api.example.com/orders",
				UserAgent:         "TestApp/1.0.0",
				RequestsPerSecond: -1,
			},
			errorMsg: "requests_per_second must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[order](tt.config)
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("New() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("New() error = %v, want %q", err, tt.errorMsg)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	f, err := New[order](Config{BaseURL: "https://api.example.com/orders", UserAgent: "TestApp/1.0.0"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if f.config.PageParam != "page" || f.config.SizeParam != "page_size" {
		t.Errorf("params = %q/%q, want page/page_size", f.config.PageParam, f.config.SizeParam)
	}
	if f.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", f.config.Timeout)
	}
	if f.config.Retry != DefaultRetryConfig() {
		t.Errorf("Retry = %+v, want defaults", f.config.Retry)
	}
}

func TestFetch_Pages(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetItems("/orders", orders(25))

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	ctx := context.Background()

	tests := []struct {
		page    int
		wantLen int
	}{
		{page: 1, wantLen: 10},
		{page: 2, wantLen: 10},
		{page: 3, wantLen: 5},
	}

	for _, tt := range tests {
		result, err := f.Fetch(ctx, pagination.FetchRequest{PageNumber: tt.page, PageSize: 10})
		if err != nil {
			t.Fatalf("Fetch(page %d) error = %v", tt.page, err)
		}
		if result.Len() != tt.wantLen {
			t.Errorf("Fetch(page %d) Len() = %d, want %d", tt.page, result.Len(), tt.wantLen)
		}
		if total, ok := result.TotalPages(); !ok || total != 3 {
			t.Errorf("Fetch(page %d) TotalPages() = (%d, %v), want (3, true)", tt.page, total, ok)
		}
	}

	query := mock.LastQuery()
	if query.Get("page") != "3" || query.Get("page_size") != "10" {
		t.Errorf("last query = %v", query)
	}
	if got := mock.LastHeader().Get("User-Agent"); got != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := mock.LastHeader().Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
}

func TestFetch_DrivesList(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetItems("/orders", orders(12))

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	logger := logging.Nop()
	list, err := pagination.New(pagination.Config[order]{
		Name:     "orders",
		Fetch:    f.Fetch,
		PageSize: 5,
		Logger:   &logger,
	})
	if err != nil {
		t.Fatalf("pagination.New() error = %v", err)
	}

	ctx := context.Background()
	for list.HasMore() {
		if err := list.AdvanceToNextPage(ctx); err != nil {
			t.Fatalf("AdvanceToNextPage() error = %v", err)
		}
	}

	state := list.State()
	if len(state.Items) != 12 {
		t.Errorf("items = %d, want 12", len(state.Items))
	}
	if state.CurrentPage != 3 {
		t.Errorf("CurrentPage = %d, want 3", state.CurrentPage)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("requests = %d, want 3", mock.RequestCount())
	}
}

func TestFetch_BodyShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		headers  map[string]string
		wantZero bool
		wantLen  int
		wantErr  bool
		total    int
	}{
		{name: "array", body: `[{"id":1},{"id":2}]`, wantLen: 2},
		{name: "empty array", body: `[]`, wantLen: 0},
		{name: "single object", body: `{"id":7}`, wantLen: 1},
		{name: "null", body: `null`, wantZero: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "invalid json", body: `{"id":`, wantErr: true},
		{name: "pages header", body: `[{"id":1}]`, headers: map[string]string{"X-Pages": "4"}, wantLen: 1, total: 4},
		{name: "bad pages header", body: `[{"id":1}]`, headers: map[string]string{"X-Pages": "many"}, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockSource()
			defer mock.Close()
			mock.SetResponse("/orders", testutil.NewJSONResponse(tt.body, tt.headers))

			f := newTestFetcher[order](t, mock.URL()+"/orders")
			result, err := f.Fetch(context.Background(), pagination.FetchRequest{PageNumber: 1, PageSize: 10})

			if tt.wantErr {
				if err == nil {
					t.Fatal("Fetch() error = nil, want decode error")
				}
				if mock.RequestCount() != 1 {
					t.Errorf("decode errors should not be retried, requests = %d", mock.RequestCount())
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if result.IsZero() != tt.wantZero {
				t.Errorf("IsZero() = %v, want %v", result.IsZero(), tt.wantZero)
			}
			if result.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", result.Len(), tt.wantLen)
			}

			total, ok := result.TotalPages()
			if tt.total > 0 && (!ok || total != tt.total) {
				t.Errorf("TotalPages() = (%d, %v), want (%d, true)", total, ok, tt.total)
			}
			if tt.total == 0 && ok {
				t.Errorf("TotalPages() = (%d, true), want no hint", total)
			}
		})
	}
}

func TestFetch_NullBodyIsInvalidForList(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetResponse("/orders", testutil.NewJSONResponse("null", nil))

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	logger := logging.Nop()
	list, err := pagination.New(pagination.Config[order]{Fetch: f.Fetch, Logger: &logger})
	if err != nil {
		t.Fatalf("pagination.New() error = %v", err)
	}

	err = list.AdvanceToNextPage(context.Background())
	if !errors.Is(err, pagination.ErrFetchResultInvalid) {
		t.Errorf("AdvanceToNextPage() error = %v, want ErrFetchResultInvalid", err)
	}
	if list.State().CurrentPage != 0 {
		t.Error("state should not change on an invalid result")
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetItems("/orders", orders(3))
	mock.FailNext("/orders", 2, testutil.NewServerErrorResponse())

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	result, err := f.Fetch(context.Background(), pagination.FetchRequest{PageNumber: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.Len() != 3 {
		t.Errorf("Len() = %d, want 3", result.Len())
	}
	if mock.RequestCount() != 3 {
		t.Errorf("requests = %d, want 3", mock.RequestCount())
	}
}

func TestFetch_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.FailNext("/orders", 5, testutil.NewRateLimitResponse())

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	_, err := f.Fetch(context.Background(), pagination.FetchRequest{PageNumber: 1, PageSize: 10})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Fetch() error = %v, want ErrRetryExhausted", err)
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error should wrap *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.Class != ErrorClassRateLimit {
		t.Errorf("HTTPError = %+v, want 429 rate_limit", httpErr)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("requests = %d, want 3", mock.RequestCount())
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetResponse("/orders", testutil.NewNotFoundResponse())

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	_, err := f.Fetch(context.Background(), pagination.FetchRequest{PageNumber: 1, PageSize: 10})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Fetch() error = %v, want *HTTPError", err)
	}
	if httpErr.Class != ErrorClassClient || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("HTTPError = %+v, want 404 client", httpErr)
	}
	if !strings.Contains(httpErr.Message, "Not found") {
		t.Errorf("Message = %q, want the response body", httpErr.Message)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("client errors should not be retried")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.RequestCount())
	}
}

func TestFetch_NetworkError(t *testing.T) {
	mock := testutil.NewMockSource()
	url := mock.URL() + "/orders"
	mock.Close()

	f := newTestFetcher[order](t, url)
	_, err := f.Fetch(context.Background(), pagination.FetchRequest{PageNumber: 1, PageSize: 10})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Fetch() error = %v, want ErrRetryExhausted", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Class != ErrorClassNetwork {
		t.Errorf("error should wrap a network *HTTPError, got %v", err)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	mock.SetResponse("/orders", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[]`,
		Delay:      500 * time.Millisecond,
	})

	f := newTestFetcher[order](t, mock.URL()+"/orders")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, pagination.FetchRequest{PageNumber: 1, PageSize: 10})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Fetch() error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("cancelled requests should not be retried")
	}
}

func TestPageURL(t *testing.T) {
	logger := logging.Nop()
	cfg := DefaultConfig("https://api.example.com/orders?status=open", "TestApp/1.0.0")
	cfg.PageParam = "p"
	cfg.SizeParam = "limit"
	cfg.Logger = &logger

	f, err := New[order](cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		req  pagination.FetchRequest
		want string
	}{
		{
			req:  pagination.FetchRequest{PageNumber: 2, PageSize: 20},
			want: "https://api.example.com/orders?limit=20&p=2&status=open",
		},
		{
			req:  pagination.FetchRequest{PageNumber: 1},
			want: "https://api.example.com/orders?p=1&status=open",
		},
	}

	for _, tt := range tests {
		if got := f.pageURL(tt.req); got != tt.want {
			t.Errorf("pageURL(%+v) = %q, want %q", tt.req, got, tt.want)
		}
	}
}

func TestDecodePage(t *testing.T) {
	result, err := decodePage[string]([]byte(` ["a","b"] `))
	if err != nil {
		t.Fatalf("decodePage() error = %v", err)
	}
	if result.Len() != 2 {
		t.Errorf("Len() = %d, want 2", result.Len())
	}

	scalar, err := decodePage[string]([]byte(`"solo"`))
	if err != nil {
		t.Fatalf("decodePage(scalar) error = %v", err)
	}
	if scalar.Len() != 1 {
		t.Errorf("scalar Len() = %d, want 1", scalar.Len())
	}

	if _, err := decodePage[string](nil); !errors.Is(err, errEmptyBody) {
		t.Errorf("decodePage(nil) error = %v, want errEmptyBody", err)
	}
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		value  string
		want   int
		wantOK bool
	}{
		{"", 0, false},
		{"0", 0, true},
		{"12", 12, true},
		{"-1", 0, false},
		{"x", 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePages(tt.value)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parsePages(%q) = (%d, %v), want (%d, %v)", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}
