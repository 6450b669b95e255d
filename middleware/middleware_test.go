package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/dailystreak/utils"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append(handlers, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"user_id": ctx.GetUint(ContextUserIDKey)})
	})
	r.GET("/", chain...)
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, id uint, name string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, id, name, ttl)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired(secret))

	assert.Equal(t, http.StatusOK, get(r, bearer(t, 7, "alice", time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, bearer(t, 7, "alice", -time.Minute)).Code, "expired")

	other, err := utils.GenerateToken("other-secret", 7, "alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+other).Code, "wrong key")
}

func TestAdminRequired(t *testing.T) {
	r := newEngine(AuthRequired(secret), AdminRequired([]string{" Root ", ""}))

	assert.Equal(t, http.StatusOK, get(r, bearer(t, 1, "root", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, bearer(t, 2, "alice", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, bearer(t, 3, "", time.Hour)).Code)
}

func TestRateLimitPerUser(t *testing.T) {
	// 4 per minute gives a burst of 2.
	r := newEngine(AuthRequired(secret), RateLimit(4))
	alice := bearer(t, 1, "alice", time.Hour)
	bob := bearer(t, 2, "bob", time.Hour)

	assert.Equal(t, http.StatusOK, get(r, alice).Code)
	assert.Equal(t, http.StatusOK, get(r, alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, alice).Code)
	assert.Equal(t, http.StatusOK, get(r, bob).Code, "buckets are per user")
}

func TestLimiterSetSweepsIdleBucketsOnInterval(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	set := newLimiterSet(1, 1)
	set.now = func() time.Time { return now }
	set.swept = start

	set.get("a")
	now = start.Add(30 * time.Second)
	set.get("b")
	assert.Len(t, set.limiters, 2)

	now = start.Add(6 * time.Minute)
	set.get("c")
	assert.Len(t, set.limiters, 1, "a and b idled out")
	assert.Contains(t, set.limiters, "c")

	now = now.Add(10 * time.Second)
	set.get("d")
	assert.Len(t, set.limiters, 2, "no sweep within the interval")
}
