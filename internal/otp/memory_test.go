package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/model"
)

func TestMemoryBackendDeleteCreatedBefore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(10, time.Hour)
	base := time.Now()

	for i, email := range []string{"old@x.com", "new@x.com"} {
		at := base.Add(time.Duration(i) * 3 * time.Minute)
		_, stored, err := backend.PutIfEligible(ctx, &model.OTPRecord{Email: email, CodeHash: "h", LastSentAt: at, CreatedAt: at}, DefaultCooldown)
		require.NoError(t, err)
		require.True(t, stored)
	}

	removed, err := backend.DeleteCreatedBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = backend.Get(ctx, "old@x.com")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = backend.Get(ctx, "new@x.com")
	require.NoError(t, err)
}

func TestMemoryBackendDeleteIfHash(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(10, time.Hour)
	now := time.Now()
	_, _, err := backend.PutIfEligible(ctx, &model.OTPRecord{Email: "a@x.com", CodeHash: "h1", LastSentAt: now, CreatedAt: now}, DefaultCooldown)
	require.NoError(t, err)

	ok, err := backend.DeleteIfHash(ctx, "a@x.com", "h2")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = backend.DeleteIfHash(ctx, "a@x.com", "h1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryBackendKeepsLiveCodesWhenFull(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(1, DefaultTTL)
	base := time.Now()
	put := func(email string, at time.Time) (bool, error) {
		_, stored, err := backend.PutIfEligible(ctx, &model.OTPRecord{Email: email, CodeHash: "h-" + email, LastSentAt: at, CreatedAt: at}, DefaultCooldown)
		return stored, err
	}

	stored, err := put("a@x.com", base)
	require.NoError(t, err)
	require.True(t, stored)

	stored, err = put("b@x.com", base.Add(time.Second))
	require.ErrorIs(t, err, ErrBackendFull)
	require.False(t, stored)
	rec, err := backend.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "h-a@x.com", rec.CodeHash)

	// a is still cooling down, so the full backend does not reset it
	stored, err = put("a@x.com", base.Add(2*time.Second))
	require.NoError(t, err)
	require.False(t, stored)

	stored, err = put("b@x.com", base.Add(DefaultTTL))
	require.NoError(t, err)
	require.True(t, stored)
	_, err = backend.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}
