package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

// Identity headers, checked in order. A proxy in front of warden is expected
// to authenticate the user and stamp one of these.
var identityHeaders = []string{"X-VM-User", "X-Forwarded-User", "X-User"}

// Email headers are optional; absence is not an error.
var emailHeaders = []string{"X-VM-User-Email", "X-Forwarded-Email"}

type ctxKeyIdentity struct{}
type ctxKeyEmail struct{}

// Identity extracts the caller's identity from trusted proxy headers and
// rejects requests that carry none.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var identity string
		for _, h := range identityHeaders {
			if v := r.Header.Get(h); v != "" {
				identity = v
				break
			}
		}
		if identity == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "WARDEN_UNAUTHORIZED",
				"message": "missing identity header",
			})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyIdentity{}, identity)
		for _, h := range emailHeaders {
			if v := r.Header.Get(h); v != "" {
				ctx = context.WithValue(ctx, ctxKeyEmail{}, v)
				break
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetIdentity(r *http.Request) string {
	if id, ok := r.Context().Value(ctxKeyIdentity{}).(string); ok {
		return id
	}
	return ""
}

// GetEmail returns the caller's email when a proxy supplied one, or "".
func GetEmail(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeyEmail{}).(string); ok {
		return v
	}
	return ""
}
