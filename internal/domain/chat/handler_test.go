package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gigboard/gigboard-api/internal/domain/chat"
	"github.com/gigboard/gigboard-api/internal/middleware"
)

type tokenIsUID struct{}

func (tokenIsUID) VerifyToken(_ context.Context, token string) (string, error) {
	return token, nil
}

func do(h http.Handler, method, path, uid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+uid)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerOfferFlow(t *testing.T) {
	f := newFixture(t)
	router := chat.NewHandler(f.svc).Routes(middleware.Auth(tokenIsUID{}))

	rec := do(router, http.MethodPost, "/offers", "emp", `{"workerId":"worker","postId":"post-1","text":"Tomorrow?"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("offer: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data chat.OfferResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	id := body.Data.Message.ID

	rec = do(router, http.MethodPatch, "/offers/"+id, "worker", `{"status":"accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodPatch, "/offers/"+id, "emp", `{"status":"withdrawn"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("withdraw after accept: expected 409, got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/conversations/emp/messages", "worker", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"accepted"`) {
		t.Fatalf("history must carry the mirrored status: %s", rec.Body.String())
	}
}

func TestHandlerOfferWithoutCredits(t *testing.T) {
	f := newFixture(t)
	router := chat.NewHandler(f.svc).Routes(middleware.Auth(tokenIsUID{}))

	rec := do(router, http.MethodPost, "/offers", "worker", `{"workerId":"emp","postId":"post-1"}`)
	if rec.Code == http.StatusCreated {
		t.Fatalf("offer from worker must fail, got 201")
	}

	rec = do(router, http.MethodPost, "/messages", "emp", `{"recipientId":"emp","text":"me"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self message: expected 400, got %d", rec.Code)
	}
}
