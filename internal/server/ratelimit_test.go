package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Another client has its own bucket.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimitMiddleware(1, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
