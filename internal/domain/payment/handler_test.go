package payment_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/payment"
	gateway "github.com/gigboard/gigboard-api/internal/pkg/payment"
	"github.com/gigboard/gigboard-api/internal/store"
	"github.com/gigboard/gigboard-api/internal/store/memory"
)

const webhookSecret = "whsec_handler_test"

func succeededPayload(paymentID, uid string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"id":     "evt_" + paymentID,
		"object": "event",
		"type":   "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       paymentID,
				"object":   "payment_intent",
				"amount":   199,
				"currency": "eur",
				"status":   "succeeded",
				"metadata": map[string]string{"uid": uid, "type": "credit_pack", "pack": "credit_1", "creditsToAdd": "1"},
			},
		},
	})
	return body
}

func newWebhookServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	s := memory.New()
	provider := gateway.NewStripeProvider(gateway.StripeConfig{WebhookSecret: webhookSecret})
	svc := payment.NewService(s, credit.NewLedgerWithClock(clock), provider, payment.WithClock(clock))
	srv := httptest.NewServer(payment.NewHandler(svc).WebhookRoutes())
	t.Cleanup(srv.Close)
	return srv, s
}

func postWebhook(t *testing.T, srv *httptest.Server, payload []byte, signature string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func signed(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: webhookSecret}).Header
}

func TestStripeWebhookAppliesPayment(t *testing.T) {
	srv, s := newWebhookServer(t)
	seedUser(t, s, "emp", nil)

	payload := succeededPayload("pi_http", "emp")
	resp := postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body["received"] {
		t.Fatalf("expected {received:true}, got %v (%v)", body, err)
	}
	if u := loadUser(t, s, "emp"); u.Credits.Balance != 1 {
		t.Fatalf("expected balance 1, got %d", u.Credits.Balance)
	}

	// redelivery is acknowledged without a second grant
	resp = postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("redelivery: expected 200, got %d", resp.StatusCode)
	}
	if u := loadUser(t, s, "emp"); u.Credits.Balance != 1 {
		t.Fatalf("redelivery changed balance to %d", u.Credits.Balance)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	srv, s := newWebhookServer(t)
	seedUser(t, s, "emp", nil)

	resp := postWebhook(t, srv, succeededPayload("pi_forged", "emp"), "t=1,v1=00")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if s.Len(store.CollectionPayments) != 0 {
		t.Fatal("forged event must not be applied")
	}
}

func TestStripeWebhookUnknownUserIsRetried(t *testing.T) {
	srv, _ := newWebhookServer(t)

	payload := succeededPayload("pi_nouser", "ghost")
	resp := postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the processor redelivers, got %d", resp.StatusCode)
	}
}

func TestStripeWebhookIgnoresOtherEvents(t *testing.T) {
	srv, _ := newWebhookServer(t)

	payload := []byte(`{"id":"evt_x","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_x","object":"payment_intent"}}}`)
	resp := postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStripeWebhookInvalidMetadataIsBadRequest(t *testing.T) {
	srv, _ := newWebhookServer(t)

	payload := []byte(`{"id":"evt_m","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_m","object":"payment_intent","amount":199,"currency":"eur","metadata":{"type":"credit_pack"}}}}`)
	resp := postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStripeWebhookWithoutSecretIsUnavailable(t *testing.T) {
	s := memory.New()
	provider := gateway.NewStripeProvider(gateway.StripeConfig{SecretKey: "sk_test"})
	svc := payment.NewService(s, credit.NewLedgerWithClock(clock), provider, payment.WithClock(clock))
	srv := httptest.NewServer(payment.NewHandler(svc).WebhookRoutes())
	t.Cleanup(srv.Close)

	payload := succeededPayload("pi_nosecret", "emp")
	resp := postWebhook(t, srv, payload, signed(payload))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if s.Len(store.CollectionPayments) != 0 {
		t.Fatal("nothing may be applied without a webhook secret")
	}
}
