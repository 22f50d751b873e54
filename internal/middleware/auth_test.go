package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gigboard/gigboard-api/internal/pkg/jwt"
)

func TestAuthMiddlewareAllowsValidAccessToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	token, err := jwtSvc.GenerateAccessToken("worker-1")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var seen string
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen != "worker-1" {
		t.Fatalf("expected uid in context, got %q", seen)
	}
}

type rejectAll struct{}

func (rejectAll) VerifyToken(context.Context, string) (string, error) {
	return "", errors.New("nope")
}

func TestAuthMiddlewareRejects(t *testing.T) {
	handler := Auth(rejectAll{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Token abc", "Bearer abc"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireUserID(t *testing.T) {
	if _, err := RequireUserID(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	ctx := context.WithValue(context.Background(), UserIDKey, "u1")
	if uid, err := RequireUserID(ctx); err != nil || uid != "u1" {
		t.Fatalf("expected u1, got %q err=%v", uid, err)
	}
}
