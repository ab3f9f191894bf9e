package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/subtrack/internal/metrics"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/api"} {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("NewClient(%q) expected error", raw)
		}
	}
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			t.Errorf("path = %s, want /api/items", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %q, want 2", r.URL.Query().Get("page"))
		}
		w.Write([]byte(`{"id":"1","name":"Netflix"}`))
	})

	var out item
	if err := client.Get(context.Background(), "/items", url.Values{"page": {"2"}}, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.Name != "Netflix" {
		t.Errorf("name = %q, want Netflix", out.Name)
	}
}

func TestClient_PostSendsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new","name":"Spotify"}`))
	})

	var out item
	if err := client.Post(context.Background(), "items", item{Name: "Spotify"}, &out); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if out.ID != "new" {
		t.Errorf("id = %q, want new", out.ID)
	}
}

func TestClient_DeleteEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if err := client.Delete(context.Background(), "/items/1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestClient_HTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		notFound    bool
	}{
		{"message field", http.StatusBadRequest, `{"message":"amount must be positive"}`, "amount must be positive", false},
		{"error field", http.StatusConflict, `{"error":"duplicate"}`, "duplicate", false},
		{"no body falls back to status text", http.StatusInternalServerError, ``, "Internal Server Error", false},
		{"not found", http.StatusNotFound, `{"message":"Subscription not found"}`, "Subscription not found", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := client.Get(context.Background(), "/items/1", nil, nil)
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T (%v)", err, err)
			}
			if httpErr.Status != tt.status {
				t.Errorf("status = %d, want %d", httpErr.Status, tt.status)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", httpErr.Message, tt.wantMessage)
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v", !tt.notFound, tt.notFound)
			}
			if errors.Is(err, ErrTimeout) {
				t.Error("HTTPError must not match ErrTimeout")
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))

	err := client.Get(context.Background(), "/slow", nil, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Error("timeout must not be an HTTPError")
	}
}

func TestClient_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := client.Get(ctx, "/slow", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation must not be reported as a timeout")
	}
}

func TestBearerAuth(t *testing.T) {
	var token atomic.Value
	token.Store("")

	var gotHeaders []http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = append(gotHeaders, r.Header.Clone())
		w.Write([]byte(`{}`))
	}, WithInterceptors(BearerAuth(TokenFunc(func() string { return token.Load().(string) }))))

	ctx := context.Background()
	if err := client.Get(ctx, "/a", nil, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	token.Store("abc")
	if err := client.Get(ctx, "/b", nil, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if _, present := gotHeaders[0]["Authorization"]; present {
		t.Errorf("expected no Authorization header without a token, got %q", gotHeaders[0].Get("Authorization"))
	}
	if got := gotHeaders[1].Values("Authorization"); len(got) != 1 || got[0] != "Bearer abc" {
		t.Errorf("Authorization = %v, want exactly [Bearer abc]", got)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
	}, WithInterceptors(RequestID()))

	if err := client.Get(context.Background(), "/a", nil, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 36 {
		t.Errorf("request id = %q, want a UUID", got)
	}
}

func TestInterceptorOrder(t *testing.T) {
	var order []string
	record := func(name string) Interceptor {
		return func(next RoundTrip) RoundTrip {
			return func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next(req)
			}
		}
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {},
		WithInterceptors(record("first"), record("second")))

	if err := client.Get(context.Background(), "/", nil, nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, WithInterceptors(Metrics(m), Logging(nil)))

	_ = client.Get(context.Background(), "/missing", nil, nil)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "404")); got != 1 {
		t.Errorf("requests_total{GET,404} = %v, want 1", got)
	}
}
