// Package identity verifies bearer tokens issued by an identity provider
// and turns them into the caller's user identity.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what a verified token says about the caller.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarRef   string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Chain accepts a token if any of its verifiers does, trying them in order.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
	}
	return nil, ErrInvalidToken
}
