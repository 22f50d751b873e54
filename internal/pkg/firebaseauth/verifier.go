// Package firebaseauth verifies Firebase ID tokens. The identity provider
// owns credentials; this service only trusts the uid it vouches for.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

var ErrInvalidToken = errors.New("invalid firebase id token")

// tokenVerifier is the subset of *auth.Client used here
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier resolves ID tokens to uids
type Verifier struct {
	client tokenVerifier
}

// NewVerifier builds a verifier from an initialized Firebase app
func NewVerifier(ctx context.Context, app *firebase.App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// VerifyToken returns the uid of a valid ID token
func (v *Verifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.UID == "" {
		return "", ErrInvalidToken
	}
	return tok.UID, nil
}
