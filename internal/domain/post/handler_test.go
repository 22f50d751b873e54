package post_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
)

// tokenIsUID accepts any bearer token and uses it as the uid
type tokenIsUID struct{}

func (tokenIsUID) VerifyToken(_ context.Context, token string) (string, error) {
	return token, nil
}

func TestCreateHandlerInsufficientCreditsIs402(t *testing.T) {
	svc, s := newService(t)
	seedUser(t, s, "w1", 0)
	router := post.NewHandler(svc).Routes(middleware.Auth(tokenIsUID{}))

	body := `{"type":"fulltime","title":"Barista","rate":{"amountCents":1200,"unit":"hour"}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer w1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != "INSUFFICIENT_CREDITS" || resp.Error.Details["required"] != "1" {
		t.Fatalf("unexpected error body %+v", resp.Error)
	}
}

func TestCreateHandlerValidation(t *testing.T) {
	svc, _ := newService(t)
	router := post.NewHandler(svc).Routes(middleware.Auth(tokenIsUID{}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"weekly","title":"x"}`))
	req.Header.Set("Authorization", "Bearer w1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	svc, _ := newService(t)
	router := post.NewHandler(svc).Routes(middleware.Auth(tokenIsUID{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
