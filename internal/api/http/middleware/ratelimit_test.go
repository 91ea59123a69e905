package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/userhub/internal/api/http/context"
	"github.com/dtroode/userhub/internal/model"
	"github.com/dtroode/userhub/internal/testutil"
)

func newLimitedRouter(rl *RateLimit, before ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(before, rl.Handle, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/login", handlers...)
	return r
}

func doRequest(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_ByClientIP(t *testing.T) {
	rl := NewRateLimit(3, time.Minute, ByClientIP, testutil.MakeNoopLogger())
	r := newLimitedRouter(rl)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(r, "192.0.2.1:1234").Code, "request %d", i)
	}

	w := doRequest(r, "192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, doRequest(r, "192.0.2.2:1234").Code, "other clients are not affected")
}

func TestRateLimit_ByPrincipal(t *testing.T) {
	cm := httpctx.NewManager()
	user := model.Principal{UserID: uuid.New(), Role: model.RoleAnonymous}

	key := ByPrincipal(cm)
	rl := NewRateLimit(1, time.Minute, key, testutil.MakeNoopLogger())
	setPrincipal := func(c *gin.Context) {
		c.Request = c.Request.WithContext(cm.SetPrincipalToContext(c.Request.Context(), user))
	}
	r := newLimitedRouter(rl, setPrincipal)

	assert.Equal(t, http.StatusOK, doRequest(r, "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "192.0.2.99:1").Code, "limit follows the user, not the address")
}

func TestByPrincipal_FallsBackToIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "198.51.100.7:5555"

	assert.Equal(t, "ip:198.51.100.7", ByPrincipal(httpctx.NewManager())(c))
}

func TestRateLimit_EmptyKeyPassesThrough(t *testing.T) {
	rl := NewRateLimit(1, time.Minute, func(*gin.Context) string { return "" }, testutil.MakeNoopLogger())
	r := newLimitedRouter(rl)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(r, "192.0.2.1:1").Code)
	}
}

func TestRateLimit_CleanupKeepsServedKey(t *testing.T) {
	rl := NewRateLimit(1, time.Minute, ByClientIP, testutil.MakeNoopLogger())
	r := newLimitedRouter(rl)

	// idle bucket from another client, due for cleanup
	rl.limiter("192.0.2.9")
	rl.lastCleanup = time.Now().Add(-2 * limiterCleanupPeriod)

	require.Equal(t, http.StatusOK, doRequest(r, "192.0.2.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "192.0.2.1:1234").Code, "cleanup must not hand out a second burst")

	_, idleKept := rl.limiters.Load("192.0.2.9")
	assert.False(t, idleKept, "idle bucket is dropped")
}
