package odin

import (
	"context"

	"pet-vet-link/internal/ports/auth"
)

// Verifier adapta el Client de Odin al port auth.AuthVerifier.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return v.client.VerifyToken(ctx, token)
}
