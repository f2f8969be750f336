package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitai/config"
)

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryWithoutTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v", 0))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	_, ok, _ = m.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestNewFallsBackToMemory(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, &Memory{}, New(context.Background(), cfg))
}
