package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupGin(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(Recovery(logger), GinMiddleware(logger))
	return router, logs
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs successful requests at info", func(t *testing.T) {
		router, logs := setupGin(t)
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?month=6", nil))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "/ok", fields["path"])
		assert.Equal(t, "month=6", fields["query"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		router, logs := setupGin(t)
		router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
	})

	t.Run("exposes request-scoped logger to handlers", func(t *testing.T) {
		router, _ := setupGin(t)
		var handlerLogger *zap.Logger
		router.GET("/scoped", func(c *gin.Context) {
			handlerLogger = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))
		require.NotNil(t, handlerLogger)
	})
}

func TestRecovery(t *testing.T) {
	router, logs := setupGin(t)
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var recovered bool
	for _, entry := range logs.All() {
		if entry.Message == "Panic recovered" {
			recovered = true
		}
	}
	assert.True(t, recovered)
}

func TestGetGinLogger_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	logger := GetGinLogger(c)
	require.NotNil(t, logger)
	logger.Info("noop")
}
