package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())

	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})
	return engine, &seen
}

func TestRequestID_Generated(t *testing.T) {
	engine, seen := newTestEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(w, req)

	header := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, header)
	assert.Equal(t, header, *seen)

	_, err := uuid.Parse(header)
	assert.NoError(t, err)
}

func TestRequestID_CallerSuppliedIsKept(t *testing.T) {
	engine, seen := newTestEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-supplied-1")
	engine.ServeHTTP(w, req)

	assert.Equal(t, "req-supplied-1", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-supplied-1", *seen)
}
