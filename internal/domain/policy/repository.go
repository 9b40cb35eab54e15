package policy

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for policies.
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	Update(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, policyID uuid.UUID) (*Policy, error)
	ListActive(ctx context.Context) ([]*Policy, error)
}
