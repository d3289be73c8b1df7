package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCORSHandler(origins []string) (http.Handler, *bool) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	return CORS(origins)(next), &called
}

func TestCORSAllowedOrigin(t *testing.T) {
	h, called := newCORSHandler([]string{"http://localhost:8081"})

	req := httptest.NewRequest(http.MethodGet, "/_status", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, "http://localhost:8081", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnknownOrigin(t *testing.T) {
	h, called := newCORSHandler([]string{"http://localhost:8081"})

	req := httptest.NewRequest(http.MethodGet, "/_status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h, _ := newCORSHandler([]string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflight(t *testing.T) {
	h, called := newCORSHandler([]string{"http://localhost:8081"})

	req := httptest.NewRequest(http.MethodOptions, "/_lastMessages", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *called)
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed([]string{"a", "b"}, "b"))
	assert.True(t, OriginAllowed([]string{"*"}, "c"))
	assert.False(t, OriginAllowed(nil, "c"))
}
