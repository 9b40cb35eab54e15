package device

import "context"

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository defines persistence for device records. Implementations return
// (nil, nil) when a device does not exist.
type Repository interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Device, error)
	Enroll(ctx context.Context, d *Device) error
	ModifyEnrollment(ctx context.Context, d *Device) error
	Disenroll(ctx context.Context, identifier string) error
	List(ctx context.Context, limit, offset int) ([]*Device, error)
	Count(ctx context.Context) (int, error)
}
