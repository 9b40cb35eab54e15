package enrollment

import (
	"context"
	"time"
)

// Token is a pending-authentication record established before a device's
// first protocol message. The token value reaches the device out-of-band
// (enrollment web flow) and must be presented on first contact by the same
// user it was issued to.
type Token struct {
	Value     string
	Username  string
	Tenant    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token has outlived its TTL.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenStore is a short-lived token-to-pending-authentication mapping with
// an explicit TTL and eviction contract. Get returns (nil, nil) for a
// missing or expired token.
type TokenStore interface {
	Put(ctx context.Context, token *Token) error
	Get(ctx context.Context, value string) (*Token, error)
	DeleteExpired(ctx context.Context) (int, error)
}
