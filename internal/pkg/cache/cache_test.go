package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "certificate:id:42", Key("certificate", "id", "42"))
	assert.Equal(t, "certificate:list:course=all&user=u1",
		FilterKey("certificate", map[string]string{"user": "u1", "course": ""}))
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	var got cachedThing
	hit, err := c.Get(ctx, "thing:id:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "thing:id:1", cachedThing{ID: "1", Name: "one"}, 0))
	require.NoError(t, c.Set(ctx, "thing:list:all", []cachedThing{{ID: "1"}}, 0))
	require.NoError(t, c.Set(ctx, "other:id:1", cachedThing{ID: "x"}, 0))

	hit, err = c.Get(ctx, "thing:id:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "one", got.Name)

	require.NoError(t, c.DeletePrefix(ctx, "thing:"))
	hit, _ = c.Get(ctx, "thing:id:1", &got)
	assert.False(t, hit)
	hit, _ = c.Get(ctx, "thing:list:all", &[]cachedThing{})
	assert.False(t, hit)

	hit, _ = c.Get(ctx, "other:id:1", &got)
	assert.True(t, hit)
	require.NoError(t, c.Delete(ctx, "other:id:1"))
	hit, _ = c.Get(ctx, "other:id:1", &got)
	assert.False(t, hit)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Minute))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	now = now.Add(59 * time.Second)
	var v int
	hit, _ := c.Get(ctx, "k", &v)
	assert.True(t, hit)

	now = now.Add(2 * time.Second)
	hit, _ = c.Get(ctx, "k", &v)
	assert.False(t, hit)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedisCache(RedisConfig{Addr: addr, KeyPrefix: "lms-test:" + time.Now().Format("150405.000") + ":"})
	require.NoError(t, err)
	defer c.Close()

	exerciseCache(t, c)
}
