package policy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/policy"
)

var (
	ErrPolicyNotFound = errors.New("policy not found")
	ErrDeviceNotFound = errors.New("device not found")
)

// Service manages policies and resolves the effective policy for a device.
type Service struct {
	policies policy.Repository
	devices  device.Repository
	logger   zerolog.Logger
}

// NewService creates a policy service.
func NewService(policies policy.Repository, devices device.Repository, logger zerolog.Logger) *Service {
	return &Service{
		policies: policies,
		devices:  devices,
		logger:   logger.With().Str("service", "policy").Logger(),
	}
}

// CreatePolicy validates and persists a new policy.
func (s *Service) CreatePolicy(ctx context.Context, p *policy.Policy) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("policy name is required")
	}
	if err := validateCriteria(p.Criteria); err != nil {
		return err
	}
	if p.PolicyID == uuid.Nil {
		p.PolicyID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.policies.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Str("policy_id", p.PolicyID.String()).Str("name", p.Name).Msg("policy created")
	return nil
}

// UpdatePolicy applies changes to an existing policy.
func (s *Service) UpdatePolicy(ctx context.Context, p *policy.Policy) error {
	existing, err := s.policies.GetByID(ctx, p.PolicyID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPolicyNotFound
	}
	if err := validateCriteria(p.Criteria); err != nil {
		return err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	return s.policies.Update(ctx, p)
}

// GetPolicy returns a policy by its public id.
func (s *Service) GetPolicy(ctx context.Context, policyID uuid.UUID) (*policy.Policy, error) {
	p, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPolicyNotFound
	}
	return p, nil
}

// ListActive returns active policies ordered by descending priority.
func (s *Service) ListActive(ctx context.Context) ([]*policy.Policy, error) {
	return s.policies.ListActive(ctx)
}

// EffectivePolicy resolves the policy that applies to a device: active
// policies are walked in descending priority order and the first whose
// criteria matches the device wins. A policy with empty criteria matches
// every device. Returns (nil, nil) when no policy applies.
func (s *Service) EffectivePolicy(ctx context.Context, identifier string) (*policy.Policy, error) {
	d, err := s.devices.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}

	policies, err := s.policies.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	params := deviceParams(d)
	for _, p := range policies {
		ok, err := matches(p.Criteria, params)
		if err != nil {
			return nil, err
		}
		if ok {
			s.logger.Debug().
				Str("device", identifier).
				Str("policy_id", p.PolicyID.String()).
				Msg("effective policy resolved")
			return p, nil
		}
	}
	return nil, nil
}

// matches evaluates a criteria expression against device parameters.
// Empty criteria matches everything; "true"/"false" literals short-circuit.
func matches(criteria string, params map[string]interface{}) (bool, error) {
	cond := strings.TrimSpace(criteria)
	if cond == "" {
		return true, nil
	}
	switch strings.ToLower(cond) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("criteria did not evaluate to boolean")
	}
	return b, nil
}

func validateCriteria(criteria string) error {
	cond := strings.TrimSpace(criteria)
	if cond == "" {
		return nil
	}
	_, err := govaluate.NewEvaluableExpression(cond)
	return err
}

// deviceParams flattens a device into the evaluation namespace seen by
// criteria expressions.
func deviceParams(d *device.Device) map[string]interface{} {
	params := map[string]interface{}{
		"type":      d.Type,
		"ownership": string(d.Enrolment.Ownership),
		"status":    string(d.Enrolment.Status),
		"owner":     d.Enrolment.Owner,
	}
	for _, prop := range d.Properties {
		params[prop.Name] = prop.Value
	}
	return params
}
