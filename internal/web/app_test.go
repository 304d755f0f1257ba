package web

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAppConfig(listen string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ListenAddr = listen
	cfg.StorageDSN = ":memory:"
	cfg.APIBaseURL = "http://127.0.0.1:1"
	cfg.SecretKey = "app-test-secret"
	cfg.LogLevel = "error"
	return cfg
}

func runApp(t *testing.T, ctx context.Context, cfg *config.Config) <-chan error {
	t.Helper()
	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	return done
}

func TestApp_RunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := runApp(t, context.Background(), testAppConfig(ln.Addr().String()))

	select {
	case err := <-done:
		require.Error(t, err)
		var opErr *net.OpError
		assert.ErrorAs(t, err, &opErr)
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listen failure")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := runApp(t, ctx, testAppConfig("127.0.0.1:0"))

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
