package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore_Claim(t *testing.T) {
	s := NewMemoryIdempotencyStore()
	ctx := context.Background()

	ok, err := s.Claim(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda reserva debe fallar mientras no venza")

	require.NoError(t, s.Release(ctx, "k1"))
	ok, err = s.Claim(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryIdempotencyStore_PurgeExpired(t *testing.T) {
	s := NewMemoryIdempotencyStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	ctx := context.Background()

	_, _ = s.Claim(ctx, "corta", time.Second)
	_, _ = s.Claim(ctx, "larga", time.Hour)

	s.now = func() time.Time { return base.Add(time.Minute) }
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Size())

	ok, err := s.Claim(ctx, "corta", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "una clave vencida se puede volver a reservar")
}
