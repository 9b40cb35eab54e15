package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/enrollment"
)

func TestPutAndGet(t *testing.T) {
	store := New(5 * time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "tok-123", Username: "alice"}))

	got, err := store.Get(ctx, "tok-123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := New(time.Minute)
	got, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetExpiredEvicts(t *testing.T) {
	store := New(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "tok-old", Username: "bob"}))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	got, err := store.Get(ctx, "tok-old")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteExpired(t *testing.T) {
	store := New(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "a", Username: "u1"}))
	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "b", Username: "u2"}))
	store.now = func() time.Time { return now.Add(30 * time.Second) }
	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "c", Username: "u3"}))

	store.now = func() time.Time { return now.Add(90 * time.Second) }
	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestGetReturnsCopy(t *testing.T) {
	store := New(time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &enrollment.Token{Value: "tok", Username: "alice"}))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	got.Username = "mallory"

	again, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
}
