package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedRouter wires the middleware the way the gateway router
// does: a request id first, then request logging.
func newObservedRouter(requestID string) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.DebugLevel)

	engine := gin.New()
	if requestID != "" {
		engine.Use(func(c *gin.Context) {
			c.Set("request_id", requestID)
			c.Next()
		})
	}
	engine.Use(GinMiddleware(zap.New(core)))
	return engine, recorded
}

func lastEntry(t *testing.T, recorded *observer.ObservedLogs, msg string) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage(msg).All()
	require.NotEmpty(t, entries, "expected a %q entry", msg)
	return entries[len(entries)-1]
}

func TestGinMiddleware(t *testing.T) {
	engine, recorded := newObservedRouter("req-42")
	engine.GET("/documents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents?docType=Quote", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entry := lastEntry(t, recorded, "request completed")
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/documents", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "docType=Quote", fields["query"])
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"success logs info", http.StatusOK, zapcore.InfoLevel},
		{"client error logs warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"server error logs error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, recorded := newObservedRouter("")
			engine.GET("/probe-status", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe-status", nil))

			entry := lastEntry(t, recorded, "request completed")
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, int64(tt.status), entry.ContextMap()["status"])
		})
	}
}

func TestGinMiddleware_ThreadsContextLogger(t *testing.T) {
	engine, recorded := newObservedRouter("req-7")
	engine.POST("/offers", func(c *gin.Context) {
		// Downstream code logs through the request context.
		L(c.Request.Context()).Info("offer booked", zap.String("backend", "odoo"))
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	entry := lastEntry(t, recorded, "offer booked")
	fields := entry.ContextMap()
	assert.Equal(t, "req-7", fields["request_id"], "request id follows the context into nested logs")
	assert.Equal(t, "odoo", fields["backend"])
}

func TestGinMiddleware_NoRequestID(t *testing.T) {
	engine, recorded := newObservedRouter("")
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	entry := lastEntry(t, recorded, "request completed")
	assert.NotContains(t, entry.ContextMap(), "request_id")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) {
		panic("codec table missing")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entry := lastEntry(t, recorded, "panic recovered")
	assert.Equal(t, "codec table missing", entry.ContextMap()["panic"])
	assert.Equal(t, "/boom", entry.ContextMap()["path"])
}
