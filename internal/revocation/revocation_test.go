package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AddAndContains(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	hit, err := s.Contains(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.Add(ctx, "h1", time.Minute))

	hit, err = s.Contains(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, hit)

	//別のhashは影響を受けない
	hit, err = s.Contains(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "h1", 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	hit, err := s.Contains(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, hit)
}

// ttl<=0は何も登録しない（すでに期限切れのtokenを入れても意味がない）
func TestMemoryStore_NonPositiveTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "h1", 0))
	hit, err := s.Contains(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, hit)
}
