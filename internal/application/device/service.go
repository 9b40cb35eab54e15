package device

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	domain "github.com/mdm-gateway/mdm-gateway/internal/domain/device"
)

// ErrNotFound is returned when an identifier resolves to no device.
var ErrNotFound = fmt.Errorf("device not found")

// defaultLicense is shown to a device owner during the enrollment web flow.
var defaultLicense = domain.License{
	Name:     "default",
	Language: "en_US",
	Version:  "1.0.0",
	Text: "By enrolling this device you agree that the device may be " +
		"monitored and managed by your organization's administrators, " +
		"including the collection of device identity and configuration data.",
}

// Service exposes the device inventory.
type Service struct {
	repo   domain.Repository
	logger zerolog.Logger
}

// NewService creates a device inventory service.
func NewService(repo domain.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "device").Logger(),
	}
}

// Get returns a device by identifier.
func (s *Service) Get(ctx context.Context, identifier string) (*domain.Device, error) {
	d, err := s.repo.GetByIdentifier(ctx, domain.IdentifierFromURI(identifier))
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// List returns a page of the device inventory.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Device, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	devices, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*domain.Device{}
	}
	return devices, nil
}

// Count returns the inventory size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// License returns the enrollment agreement text.
func (s *Service) License(_ context.Context) *domain.License {
	l := defaultLicense
	return &l
}
