package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/httpserver"
)

func TestServer_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.NewServeMux())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestServer_RunFailsOnBadAddr(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("256.256.256.256:99999"))
	err := srv.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestServer_ShutdownBeforeRun(t *testing.T) {
	t.Parallel()

	srv := httpserver.New()
	assert.NoError(t, srv.Shutdown(context.Background()))
}
