package firebaseauth

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
)

type stubClient struct {
	tok *auth.Token
	err error
}

func (s stubClient) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return s.tok, s.err
}

func TestVerifyTokenReturnsUID(t *testing.T) {
	v := &Verifier{client: stubClient{tok: &auth.Token{UID: "abc"}}}
	uid, err := v.VerifyToken(context.Background(), "id-token")
	if err != nil || uid != "abc" {
		t.Fatalf("expected abc, got %q err=%v", uid, err)
	}
}

func TestVerifyTokenWrapsFailure(t *testing.T) {
	v := &Verifier{client: stubClient{err: errors.New("expired")}}
	if _, err := v.VerifyToken(context.Background(), "id-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
