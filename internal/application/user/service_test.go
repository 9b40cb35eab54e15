package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdm-gateway/mdm-gateway/internal/tenant"

	domain "github.com/mdm-gateway/mdm-gateway/internal/domain/user"
)

type memRepo struct {
	byName map[string]*domain.User
	byID   map[uuid.UUID]*domain.User
}

func newMemRepo() *memRepo {
	return &memRepo{byName: map[string]*domain.User{}, byID: map[uuid.UUID]*domain.User{}}
}

func (r *memRepo) Create(_ context.Context, u *domain.User) error {
	r.byName[u.Username] = u
	r.byID[u.UserID] = u
	return nil
}

func (r *memRepo) Update(_ context.Context, u *domain.User) error {
	r.byName[u.Username] = u
	r.byID[u.UserID] = u
	return nil
}

func (r *memRepo) GetByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	return r.byID[userID], nil
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.byName[username], nil
}

func (r *memRepo) List(_ context.Context, _ domain.Filter, _, _ int) ([]*domain.User, error) {
	return nil, nil
}

func (r *memRepo) Count(_ context.Context) (int, error) { return len(r.byID), nil }

func TestCreateUserDefaults(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())

	u, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "Alice.Admin",
		Password: "long-enough-pass",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice.admin", u.Username)
	assert.Equal(t, tenant.DefaultDomain, u.TenantDomain)
	assert.Equal(t, domain.StatusActive, u.Status)
	assert.NotEqual(t, uuid.Nil, u.UserID)
	assert.NotEqual(t, "long-enough-pass", u.PasswordHash)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())

	cases := map[string]CreateInput{
		"bad username":      {Username: "1bad", Password: "long-enough-pass", Role: domain.RoleViewer},
		"short password":    {Username: "bob", Password: "tiny", Role: domain.RoleViewer},
		"password has name": {Username: "bob", Password: "my-bob-password", Role: domain.RoleViewer},
		"bad role":          {Username: "bob", Password: "long-enough-pass", Role: "WIZARD"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), input)
			assert.Error(t, err)
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())

	input := CreateInput{Username: "carol", Password: "long-enough-pass", Role: domain.RoleViewer}
	_, err := svc.CreateUser(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), input)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())
	u, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "dave", Password: "long-enough-pass", Role: domain.RoleDeviceOwner,
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), "Dave", "long-enough-pass")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	_, err = svc.Authenticate(context.Background(), "dave", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "long-enough-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateDisabledUser(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())
	u, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "erin", Password: "long-enough-pass", Role: domain.RoleViewer,
	})
	require.NoError(t, err)

	disabled := domain.StatusDisabled
	_, err = svc.UpdateUser(context.Background(), u.UserID, UpdateInput{Status: &disabled})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "erin", "long-enough-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetPassword(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())
	u, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "frank", Password: "original-pass-1", Role: domain.RoleViewer,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(context.Background(), u.UserID, "replacement-pass-1"))

	_, err = svc.Authenticate(context.Background(), "frank", "original-pass-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "frank", "replacement-pass-1")
	assert.NoError(t, err)
}
