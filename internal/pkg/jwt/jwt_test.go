package jwt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Minute)

	token, err := svc.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	uid, err := svc.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("expected user-1, got %q", uid)
	}
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewService("other", time.Minute).GenerateAccessToken("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewService("test-secret", time.Minute).VerifyToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)
	token, err := svc.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyToken(context.Background(), token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
