package policy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/device/mocks"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/policy"
)

type stubPolicyRepo struct {
	created []*policy.Policy
	updated []*policy.Policy
	byID    map[uuid.UUID]*policy.Policy
	active  []*policy.Policy
}

func newStubPolicyRepo() *stubPolicyRepo {
	return &stubPolicyRepo{byID: map[uuid.UUID]*policy.Policy{}}
}

func (r *stubPolicyRepo) Create(_ context.Context, p *policy.Policy) error {
	r.created = append(r.created, p)
	r.byID[p.PolicyID] = p
	return nil
}

func (r *stubPolicyRepo) Update(_ context.Context, p *policy.Policy) error {
	r.updated = append(r.updated, p)
	r.byID[p.PolicyID] = p
	return nil
}

func (r *stubPolicyRepo) GetByID(_ context.Context, policyID uuid.UUID) (*policy.Policy, error) {
	return r.byID[policyID], nil
}

func (r *stubPolicyRepo) ListActive(_ context.Context) ([]*policy.Policy, error) {
	return r.active, nil
}

func testDevice() *device.Device {
	return &device.Device{
		Identifier: "dev-1",
		Type:       device.TypeWindows,
		Properties: []device.Property{
			{Name: device.PropOSVersion, Value: "10.0.19045"},
			{Name: device.PropVendor, Value: "Contoso"},
		},
		Enrolment: device.EnrolmentInfo{
			Owner:     "alice@carbon.super",
			Ownership: device.OwnershipBYOD,
			Status:    device.StatusActive,
		},
	}
}

func TestCreatePolicyValidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := newStubPolicyRepo()
	svc := NewService(repo, mocks.NewMockRepository(ctrl), zerolog.Nop())

	err := svc.CreatePolicy(context.Background(), &policy.Policy{Name: ""})
	require.Error(t, err)

	err = svc.CreatePolicy(context.Background(), &policy.Policy{Name: "bad", Criteria: "((("})
	require.Error(t, err)

	p := &policy.Policy{Name: "passcode", Criteria: `ownership == "BYOD"`, Active: true}
	require.NoError(t, svc.CreatePolicy(context.Background(), p))
	assert.NotEqual(t, uuid.Nil, p.PolicyID)
	assert.Len(t, repo.created, 1)
}

func TestUpdatePolicyUnknownID(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(newStubPolicyRepo(), mocks.NewMockRepository(ctrl), zerolog.Nop())

	err := svc.UpdatePolicy(context.Background(), &policy.Policy{PolicyID: uuid.New(), Name: "x"})
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestEffectivePolicyFirstMatchByPriority(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	repo := newStubPolicyRepo()
	svc := NewService(repo, devRepo, zerolog.Nop())

	high := &policy.Policy{PolicyID: uuid.New(), Name: "cope-only", Priority: 10, Criteria: `ownership == "COPE"`, Active: true}
	mid := &policy.Policy{PolicyID: uuid.New(), Name: "byod", Priority: 5, Criteria: `ownership == "BYOD"`, Active: true}
	low := &policy.Policy{PolicyID: uuid.New(), Name: "catch-all", Priority: 1, Criteria: "", Active: true}
	repo.active = []*policy.Policy{high, mid, low}

	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "dev-1").Return(testDevice(), nil)

	got, err := svc.EffectivePolicy(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "byod", got.Name)
}

func TestEffectivePolicyEmptyCriteriaMatchesAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	repo := newStubPolicyRepo()
	svc := NewService(repo, devRepo, zerolog.Nop())

	catchAll := &policy.Policy{PolicyID: uuid.New(), Name: "catch-all", Criteria: "", Active: true,
		Payload: json.RawMessage(`{"passcode":true}`)}
	repo.active = []*policy.Policy{catchAll}

	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "dev-1").Return(testDevice(), nil)

	got, err := svc.EffectivePolicy(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "catch-all", got.Name)
}

func TestEffectivePolicyCriteriaOverProperties(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	repo := newStubPolicyRepo()
	svc := NewService(repo, devRepo, zerolog.Nop())

	p := &policy.Policy{PolicyID: uuid.New(), Name: "contoso", Criteria: `VENDOR == "Contoso"`, Active: true}
	repo.active = []*policy.Policy{p}

	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "dev-1").Return(testDevice(), nil)

	got, err := svc.EffectivePolicy(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestEffectivePolicyNoMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	repo := newStubPolicyRepo()
	svc := NewService(repo, devRepo, zerolog.Nop())

	p := &policy.Policy{PolicyID: uuid.New(), Name: "cope-only", Criteria: `ownership == "COPE"`, Active: true}
	repo.active = []*policy.Policy{p}

	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "dev-1").Return(testDevice(), nil)

	got, err := svc.EffectivePolicy(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEffectivePolicyUnknownDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	svc := NewService(newStubPolicyRepo(), devRepo, zerolog.Nop())

	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "missing").Return(nil, nil)

	_, err := svc.EffectivePolicy(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestEffectivePolicyBadCriteriaFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	devRepo := mocks.NewMockRepository(ctrl)
	repo := newStubPolicyRepo()
	svc := NewService(repo, devRepo, zerolog.Nop())

	repo.active = []*policy.Policy{{PolicyID: uuid.New(), Name: "broken", Criteria: "VENDOR +", Active: true}}
	devRepo.EXPECT().GetByIdentifier(gomock.Any(), "dev-1").Return(testDevice(), nil)

	_, err := svc.EffectivePolicy(context.Background(), "dev-1")
	require.Error(t, err)
}
