package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/userhub/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	t.Run("generates request id", func(t *testing.T) {
		log, buf := testutil.MakeCapturingLogger()
		r := gin.New()
		r.Use(NewLogging(log).Handle)

		var seen string
		r.GET("/ok", func(c *gin.Context) {
			seen = RequestID(c)
			c.Status(http.StatusNoContent)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 26)
		assert.Equal(t, id, seen)
		assert.Contains(t, buf.String(), "HTTP request completed")
		assert.Contains(t, buf.String(), "status=204")
	})

	t.Run("keeps incoming request id", func(t *testing.T) {
		log, buf := testutil.MakeCapturingLogger()
		r := gin.New()
		r.Use(NewLogging(log).Handle)
		r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

		req := httptest.NewRequest(http.MethodGet, "/fail", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "HTTP request failed")
		assert.Contains(t, buf.String(), "request_id=req-123")
	})

	t.Run("client errors are warnings", func(t *testing.T) {
		log, buf := testutil.MakeCapturingLogger()
		r := gin.New()
		r.Use(NewLogging(log).Handle)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, buf.String(), "HTTP request rejected")
	})
}
