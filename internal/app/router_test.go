package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		AppEnv:            "test",
		AppAddr:           ":0",
		AppRequestTimeout: 5 * time.Second,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
}

func TestRouterHealthz(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig()})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig()})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
