package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricenote/models"
)

func newTestCache(t *testing.T, max int) (*Cache, *time.Time) {
	t.Helper()
	c := New(max)
	t.Cleanup(c.Stop)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestCache_GetRespectsMaxAge(t *testing.T) {
	c, clock := newTestCache(t, 10)
	key := Key("https://shop.example/item", "browser", []string{"#price"})
	c.Set(key, &models.PriceResponse{Success: true, Price: "$5.00"})

	_, hit := c.Get(key, 0)
	assert.False(t, hit, "max_age 0 disables lookups")

	*clock = clock.Add(2 * time.Second)
	got, hit := c.Get(key, 5000)
	require.True(t, hit)
	assert.Equal(t, "$5.00", got.Price)

	_, hit = c.Get(key, 1000)
	assert.False(t, hit)
}

func TestCache_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(t, 10)
	c.Set("k", &models.PriceResponse{Price: "$1"})

	got, hit := c.Get("k", 1000)
	require.True(t, hit)
	got.CacheStatus = "hit"

	again, _ := c.Get("k", 1000)
	assert.Empty(t, again.CacheStatus)
}

func TestCache_CapacityEviction(t *testing.T) {
	c, _ := newTestCache(t, 2)
	c.Set("a", &models.PriceResponse{})
	c.Set("b", &models.PriceResponse{})
	c.Set("b", &models.PriceResponse{})
	assert.Equal(t, 2, c.Len())

	c.Set("c", &models.PriceResponse{})
	assert.Equal(t, 2, c.Len())
	_, hit := c.Get("c", 1000)
	assert.True(t, hit)
}

func TestCache_EvictExpired(t *testing.T) {
	c, clock := newTestCache(t, 10)
	c.Set("old", &models.PriceResponse{})
	*clock = clock.Add(90 * time.Minute)
	c.Set("new", &models.PriceResponse{})

	c.evictExpired()
	assert.Equal(t, 1, c.Len())
	_, hit := c.Get("new", 1000)
	assert.True(t, hit)
}

func TestKey(t *testing.T) {
	base := Key("https://a.example", "browser", []string{"#a", "#b"})
	assert.Equal(t, base, Key("https://a.example", "browser", []string{"#a", "#b"}))
	assert.NotEqual(t, base, Key("https://a.example", "http", []string{"#a", "#b"}))
	assert.NotEqual(t, base, Key("https://a.example", "browser", []string{"#b", "#a"}))
	assert.NotEqual(t, base, Key("https://b.example", "browser", []string{"#a", "#b"}))
}
