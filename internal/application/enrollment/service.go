package enrollment

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	domainEnrollment "github.com/mdm-gateway/mdm-gateway/internal/domain/enrollment"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/policy"
	"github.com/mdm-gateway/mdm-gateway/internal/syncml"
	"github.com/mdm-gateway/mdm-gateway/internal/tenant"
)

// EventSink receives device lifecycle notifications.
type EventSink interface {
	DeviceEnrolled(ctx context.Context, d *device.Device)
	DeviceUpdated(ctx context.Context, d *device.Device)
	DeviceDisenrolled(ctx context.Context, d *device.Device)
}

// PolicyResolver recomputes the effective policy for a device.
type PolicyResolver interface {
	EffectivePolicy(ctx context.Context, identifier string) (*policy.Policy, error)
}

// Service is the enrollment engine: first-contact device creation,
// property resync, disenrollment, and enrollment token issuance.
type Service struct {
	devices  device.Repository
	tokens   domainEnrollment.TokenStore
	policies PolicyResolver
	events   EventSink
	logger   zerolog.Logger
}

// NewService creates an enrollment service.
func NewService(devices device.Repository, tokens domainEnrollment.TokenStore, policies PolicyResolver, events EventSink, logger zerolog.Logger) *Service {
	return &Service{
		devices:  devices,
		tokens:   tokens,
		policies: policies,
		events:   events,
		logger:   logger.With().Str("service", "enrollment").Logger(),
	}
}

// IssueToken creates a pending-authentication token for a user starting the
// enrollment web flow. The token must accompany the device's first protocol
// message.
func (s *Service) IssueToken(ctx context.Context, username string) (*domainEnrollment.Token, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &EnrollmentError{Reason: "username is required"}
	}
	value, err := generateTokenValue()
	if err != nil {
		return nil, err
	}
	t := &domainEnrollment.Token{
		Value:    value,
		Username: username,
		Tenant:   tenantOf(username),
	}
	if err := s.tokens.Put(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", username).Msg("enrollment token issued")
	return t, nil
}

// FirstContact handles the initial enrollment message: reads identity fields
// from the Replace body at their fixed positions and persists a new device
// record owned by the message's source user.
func (s *Service) FirstContact(ctx context.Context, doc *syncml.Document) (*device.Device, error) {
	rep := doc.Body.Replace
	if rep == nil {
		return nil, &EnrollmentError{Reason: "first contact requires a replace body"}
	}
	if len(rep.Items) <= syncml.PosLanguage {
		return nil, &EnrollmentError{Reason: "replace body is missing fixed-position items"}
	}

	owner := doc.Header.Source.Name
	ctx = tenant.WithDomain(ctx, tenantOf(owner))

	now := time.Now().UTC()
	d := &device.Device{
		Identifier: device.IdentifierFromURI(rep.Items[syncml.PosDeviceID].Data),
		Type:       device.TypeWindows,
		Properties: []device.Property{
			{Name: device.PropOSVersion, Value: rep.Items[syncml.PosOSVersion].Data},
			{Name: device.PropIMSI},
			{Name: device.PropIMEI},
			{Name: device.PropVendor, Value: rep.Items[syncml.PosManufacturer].Data},
			{Name: device.PropModel, Value: rep.Items[syncml.PosModel].Data},
			{Name: device.PropLanguage, Value: rep.Items[syncml.PosLanguage].Data},
		},
		Enrolment: device.EnrolmentInfo{
			Owner:      owner,
			Ownership:  device.OwnershipBYOD,
			Status:     device.StatusActive,
			EnrolledAt: now,
			UpdatedAt:  now,
		},
	}
	if d.Identifier == "" {
		return nil, &EnrollmentError{Reason: "device identifier is empty"}
	}

	if err := s.devices.Enroll(ctx, d); err != nil {
		return nil, &EnrollmentError{Reason: "failed to enroll device", cause: err}
	}

	s.events.DeviceEnrolled(ctx, d)
	s.logger.Info().Str("device", d.Identifier).Str("owner", owner).Msg("device enrolled")

	if _, err := s.policies.EffectivePolicy(ctx, d.Identifier); err != nil {
		return d, &ConfigurationError{Reason: "failed to compute effective policy", cause: err}
	}
	return d, nil
}

// MergeProperties handles the property-sync message: resolves the existing
// device by the identifier carried in the source locator and overwrites its
// property set wholesale with the Results values at their fixed positions.
// The effective policy is recomputed afterwards; a policy failure surfaces
// as a ConfigurationError and does not roll the property update back.
func (s *Service) MergeProperties(ctx context.Context, doc *syncml.Document) (*device.Device, error) {
	res := doc.Body.Results
	if res == nil {
		return nil, &EnrollmentError{Reason: "property sync requires a results body"}
	}
	if len(res.Items) <= syncml.PosResultDeviceName {
		return nil, &EnrollmentError{Reason: "results body is missing fixed-position items"}
	}

	identifier := device.IdentifierFromURI(doc.Header.Source.URI)
	d, err := s.devices.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, &EnrollmentError{Reason: "failed to look up device", cause: err}
	}
	if d == nil {
		return nil, &EnrollmentError{Reason: identifier, cause: ErrDeviceNotFound}
	}

	ctx = tenant.WithDomain(ctx, tenantOf(d.Enrolment.Owner))

	d.ReplaceProperties([]device.Property{
		{Name: device.PropIMEI, Value: res.Items[syncml.PosResultIMEI].Data},
		{Name: device.PropOSVersion, Value: res.Items[syncml.PosResultOSVersion].Data},
		{Name: device.PropIMSI, Value: res.Items[syncml.PosResultIMSI].Data},
		{Name: device.PropVendor, Value: res.Items[syncml.PosResultVendor].Data},
		{Name: device.PropMACAddress, Value: res.Items[syncml.PosResultMACAddress].Data},
		{Name: device.PropResolution, Value: res.Items[syncml.PosResultResolution].Data},
		{Name: device.PropDeviceName, Value: res.Items[syncml.PosResultDeviceName].Data},
		{Name: device.PropModel, Value: res.Items[syncml.PosResultModel].Data},
	})
	d.Type = device.TypeWindows
	d.Enrolment.UpdatedAt = time.Now().UTC()

	if err := s.devices.ModifyEnrollment(ctx, d); err != nil {
		return nil, &EnrollmentError{Reason: "failed to modify enrollment", cause: err}
	}
	s.events.DeviceUpdated(ctx, d)

	if _, err := s.policies.EffectivePolicy(ctx, d.Identifier); err != nil {
		return d, &ConfigurationError{Reason: "failed to compute effective policy", cause: err}
	}

	s.logger.Info().Str("device", d.Identifier).Msg("device properties synced")
	return d, nil
}

// Disenroll ends the management relationship for a device.
func (s *Service) Disenroll(ctx context.Context, identifier string) error {
	d, err := s.devices.GetByIdentifier(ctx, identifier)
	if err != nil {
		return &EnrollmentError{Reason: "failed to look up device", cause: err}
	}
	if d == nil {
		return &EnrollmentError{Reason: identifier, cause: ErrDeviceNotFound}
	}
	if err := s.devices.Disenroll(ctx, identifier); err != nil {
		return &EnrollmentError{Reason: "failed to disenroll device", cause: err}
	}
	d.Enrolment.Status = device.StatusRemoved
	s.events.DeviceDisenrolled(ctx, d)
	s.logger.Info().Str("device", identifier).Msg("device disenrolled")
	return nil
}

// tenantOf extracts the tenant domain from a user@domain name.
func tenantOf(username string) string {
	if i := strings.LastIndex(username, "@"); i >= 0 {
		return username[i+1:]
	}
	return tenant.DefaultDomain
}

func generateTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
