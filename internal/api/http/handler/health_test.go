package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/userhub/internal/mocks"
	"github.com/dtroode/userhub/internal/model"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	newRouter := func(checker HealthChecker) *gin.Engine {
		h := NewHealth(checker, "v1.2.3")
		r := gin.New()
		r.GET("/livez", h.Livez)
		r.GET("/readyz", h.Readyz)
		return r
	}

	t.Run("livez never touches dependencies", func(t *testing.T) {
		w := serve(newRouter(mocks.NewHealthChecker(t)), http.MethodGet, "/livez", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "v1.2.3", resp.Version)
	})

	t.Run("ready", func(t *testing.T) {
		checker := mocks.NewHealthChecker(t)
		checker.On("Ready", mock.Anything).Return(model.HealthReport{
			Healthy: true,
			Checks:  map[string]string{"database": "ok", "storage": "ok"},
		})

		w := serve(newRouter(checker), http.MethodGet, "/readyz", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decode[HealthResponse](t, w).Checks["storage"])
	})

	t.Run("degraded", func(t *testing.T) {
		checker := mocks.NewHealthChecker(t)
		checker.On("Ready", mock.Anything).Return(model.HealthReport{
			Healthy: false,
			Checks:  map[string]string{"database": "ok", "schema": "schema version 2, want 3"},
		})

		w := serve(newRouter(checker), http.MethodGet, "/readyz", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "degraded", resp.Status)
		assert.Contains(t, resp.Checks["schema"], "want 3")
	})
}
