package operation

import "context"

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository defines persistence for queued management operations.
type Repository interface {
	Create(ctx context.Context, op *Operation) error
	Pending(ctx context.Context, deviceIdentifier string) ([]*Operation, error)
	MarkDelivered(ctx context.Context, deviceIdentifier string, ids []int64) error
	ListByDevice(ctx context.Context, deviceIdentifier string, limit, offset int) ([]*Operation, error)
}
