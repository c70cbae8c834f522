package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewRouter_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestNewRouter_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}

func TestNewRouter_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	NewRouter(&Services{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := &Services{Ready: func(ctx context.Context) error { return errors.New("db down") }}
	w = httptest.NewRecorder()
	NewRouter(down, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	NewRouter(&Services{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/replenishment/S-1/suggestion", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
