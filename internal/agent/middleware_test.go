package agent

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMiddleware_NoHeader(t *testing.T) {
	var got *Agent
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/acp/checkout", nil)
	w := httptest.NewRecorder()
	Middleware(testLogger())(handler).ServeHTTP(w, req)

	if !called {
		t.Fatal("handler was not called")
	}
	if got != nil {
		t.Errorf("agent = %+v, want nil", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMiddleware_ValidHeader(t *testing.T) {
	var got *Agent
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})

	req := httptest.NewRequest("POST", "/api/ap2/checkout", nil)
	req.Header.Set(HeaderName, `profile="https://agent.example/profile", name="shopper"`)
	w := httptest.NewRecorder()
	Middleware(testLogger())(handler).ServeHTTP(w, req)

	if got == nil {
		t.Fatal("agent not stored in context")
	}
	if got.Profile != "https://agent.example/profile" || got.Name != "shopper" {
		t.Errorf("agent = %+v", got)
	}
}

func TestMiddleware_InvalidHeader(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("POST", "/api/acp/checkout", nil)
	req.Header.Set(HeaderName, `profile=42`)
	w := httptest.NewRecorder()
	Middleware(testLogger())(handler).ServeHTTP(w, req)

	if called {
		t.Error("handler should not be called for a malformed header")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.Error, "Invalid Commerce-Agent header") {
		t.Errorf("error = %q", resp.Error)
	}
}
