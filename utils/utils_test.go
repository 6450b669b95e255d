package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewCache(rc, time.Minute), mr
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	c.SetJSON(ctx, "k", payload{"2024-01-01", 3}, 0)

	var got payload
	require.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, payload{"2024-01-01", 3}, got)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.GetJSON(ctx, "k", &got))
}

func TestCacheInvalidateByPrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"cache:content:date:1", "cache:content:date:2", "cache:stats:community"} {
		c.SetJSON(ctx, k, 1, time.Hour)
	}
	c.InvalidateByPrefix(ctx, "cache:content:")

	assert.False(t, mr.Exists("cache:content:date:1"))
	assert.False(t, mr.Exists("cache:content:date:2"))
	assert.True(t, mr.Exists("cache:stats:community"))
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	assert.Nil(t, NewCache(nil, time.Minute))

	ctx := context.Background()
	c.SetJSON(ctx, "k", 1, 0)
	c.InvalidateByPrefix(ctx, "k")
	var v int
	assert.False(t, c.GetJSON(ctx, "k", &v))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", 42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken("wrong", tok)
	assert.Error(t, err)

	anon, err := GenerateToken("s3cret", 0, "ghost", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", anon)
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, `<a href="https://x.test" rel="nofollow">x</a>`, Sanitize(` <a href="https://x.test" onclick="evil()">x</a> `))
	assert.Equal(t, "Tom & Jerry", SanitizePlain("<b>Tom &amp; Jerry</b>"))
	assert.Empty(t, SanitizePlain("<script>alert(1)</script>"))
}

func TestRollingFileLoggerNeedsPath(t *testing.T) {
	_, err := NewRollingFileLogger("", "info", 1, 1, 1, false)
	assert.ErrorIs(t, err, errNoLogPath)

	l, err := NewRollingFileLogger(t.TempDir()+"/logs/access.log", "debug", 1, 1, 1, false)
	require.NoError(t, err)
	l.Info("hello")
	assert.NoError(t, l.Sync())
}
