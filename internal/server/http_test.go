package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/ficha/internal/config"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestHTTPService_ServesUntilStopped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	svc := NewHTTPService(testServerConfig(), handler, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addr, err := svc.Addr(ctx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err, "a graceful stop is not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("http service did not stop")
	}
}

func TestHTTPService_ListenFailure(t *testing.T) {
	cfg := testServerConfig()
	cfg.Host = "256.0.0.1"
	svc := NewHTTPService(cfg, http.NotFoundHandler(), zaptest.NewLogger(t))

	require.Error(t, svc.Start())
	_, err := svc.Addr(context.Background())
	assert.Error(t, err)
}
