package engagement_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/middleware"
)

type tokenIsUID struct{}

func (tokenIsUID) VerifyToken(_ context.Context, token string) (string, error) {
	return token, nil
}

func do(t *testing.T, h http.Handler, method, path, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+uid)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLifecycle(t *testing.T) {
	f := newFixture(t)
	router := engagement.NewHandler(f.svc).Routes(middleware.Auth(tokenIsUID{}))

	rec := do(t, router, http.MethodPost, "/", "emp", `{"workerId":"worker","postId":"post-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/", "emp", `{"workerId":"worker","postId":"post-1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	id := engagement.ID("emp", "worker", "post-1")
	rec = do(t, router, http.MethodPatch, "/"+id+"/status", "worker", `{"status":"declined"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("decline: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPatch, "/"+id+"/status", "worker", `{"status":"accepted"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second transition: expected 409, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/"+id, "stranger", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger get: expected 404, got %d", rec.Code)
	}
}

func TestHandlerInsufficientCredits(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "broke", 0)
	router := engagement.NewHandler(f.svc).Routes(middleware.Auth(tokenIsUID{}))

	rec := do(t, router, http.MethodPost, "/", "broke", `{"workerId":"worker","postId":"post-1"}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INSUFFICIENT_CREDITS") {
		t.Fatalf("expected INSUFFICIENT_CREDITS code, got %s", rec.Body.String())
	}
}
