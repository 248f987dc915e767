package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clothingloop/server/pkg/logger"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zap.DebugLevel)
	require.NoError(t, logger.Init("debug", logger.WithCore(core)))
	t.Cleanup(func() { require.NoError(t, logger.Init("info")) })

	r := gin.New()
	r.Use(Logger())
	r.GET("/v1/chain/:id", func(c *gin.Context) {
		c.Set(CtxAccountIDKey, "acc-1")
		c.String(http.StatusOK, "pong")
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	for _, path := range []string{"/v1/chain/abc", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := recorded.FilterField(zap.String("module", "http")).All()
	require.Len(t, entries, 3)

	ok := entries[0].ContextMap()
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, "/v1/chain/:id", ok["route"])
	require.Equal(t, "acc-1", ok["account_id"])
	require.EqualValues(t, http.StatusOK, ok["status"])

	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
