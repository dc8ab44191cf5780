package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/core"
)

// Handler-level tests without a DB dependency.

func TestHealthHandler(t *testing.T) {
	api := &API{}
	r := chi.NewRouter()
	r.Get("/health", api.HealthHandler)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("expected body OK, got %s", w.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, core.NewAppError(core.ErrInvalidInput, "test error"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp.Code != "WARDEN_INVALID_INPUT" {
		t.Errorf("expected code WARDEN_INVALID_INPUT, got %s", resp.Code)
	}
}

func TestWriteErrorHidesNonAppErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp.Code != "WARDEN_INTERNAL" {
		t.Errorf("expected code WARDEN_INTERNAL, got %s", resp.Code)
	}
	if resp.Message != "internal server error" {
		t.Errorf("internal details leaked: %s", resp.Message)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"key": "value"}
	WriteJSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp["key"] != "value" {
		t.Errorf("expected key=value, got %v", resp)
	}
}

func TestIdentityMiddleware(t *testing.T) {
	var got string
	handler := middleware.Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantID     string
	}{
		{"NoHeader", nil, http.StatusUnauthorized, ""},
		{"VMUserHeader", map[string]string{"X-VM-User": "alice"}, http.StatusOK, "alice"},
		{"ForwardedUserHeader", map[string]string{"X-Forwarded-User": "bob"}, http.StatusOK, "bob"},
		{"UserHeader", map[string]string{"X-User": "carol"}, http.StatusOK, "carol"},
		{"VMUserWins", map[string]string{"X-User": "carol", "X-VM-User": "alice"}, http.StatusOK, "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = ""
			req := httptest.NewRequest("GET", "/v1/workspaces", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got != tc.wantID {
				t.Errorf("identity = %q, want %q", got, tc.wantID)
			}
			if tc.wantStatus == http.StatusUnauthorized {
				var resp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to parse response: %s", err)
				}
				if resp.Code != "WARDEN_UNAUTHORIZED" {
					t.Errorf("expected code WARDEN_UNAUTHORIZED, got %s", resp.Code)
				}
			}
		})
	}
}

func TestIdentityMiddlewareEmail(t *testing.T) {
	var gotEmail string
	handler := middleware.Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = middleware.GetEmail(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/workspaces", nil)
	req.Header.Set("X-VM-User", "alice")
	req.Header.Set("X-VM-User-Email", "alice@example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotEmail != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", gotEmail)
	}

	// Email is optional.
	req = httptest.NewRequest("GET", "/v1/workspaces", nil)
	req.Header.Set("X-VM-User", "alice")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without email header", w.Code)
	}
	if gotEmail != "" {
		t.Errorf("email = %q, want empty", gotEmail)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetRequestID(r) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id response header")
	}

	// Caller-supplied ids are echoed back.
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(middleware.RequestIDHeader); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}
