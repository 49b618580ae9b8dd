package listcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	key := ListKey("a@x.com", "all")
	require.NoError(t, c.Set(ctx, key, []byte(`[]`), time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestMemoryCache_MissAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, err := c.Get(ctx, ListKey("a@x.com", "all"))
	assert.True(t, errors.Is(err, ErrCacheMiss))

	key := ListKey("a@x.com", "images")
	require.NoError(t, c.Set(ctx, key, []byte(`x`), -time.Second))
	_, err = c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrCacheMiss), "expired entries behave as misses")
}

func TestMemoryCache_InvalidateDropsAllVariantsForUser(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ListKey("a@x.com", "all"), []byte(`1`), time.Minute))
	require.NoError(t, c.Set(ctx, ListKey("a@x.com", "images"), []byte(`2`), time.Minute))
	require.NoError(t, c.Set(ctx, ListKey("b@x.com", "all"), []byte(`3`), time.Minute))

	require.NoError(t, c.Invalidate(ctx, "a@x.com"))

	_, err := c.Get(ctx, ListKey("a@x.com", "all"))
	assert.True(t, errors.Is(err, ErrCacheMiss))
	_, err = c.Get(ctx, ListKey("a@x.com", "images"))
	assert.True(t, errors.Is(err, ErrCacheMiss))

	got, err := c.Get(ctx, ListKey("b@x.com", "all"))
	require.NoError(t, err, "other users' listings survive")
	assert.Equal(t, []byte(`3`), got)
}
