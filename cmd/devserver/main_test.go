package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmynk/subtrack/internal/fakeapi"
)

func TestSeed(t *testing.T) {
	server := fakeapi.New("seed-secret")
	if err := seed(server, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	token, err := server.IssueToken(demoEmail)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions?page=0&size=5&sort=id,asc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	// Seeding twice fails on the duplicate account.
	if err := seed(server, time.Now()); err == nil {
		t.Error("expected duplicate account error")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the API")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/subscriptions", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("missing allow-headers")
	}
}
