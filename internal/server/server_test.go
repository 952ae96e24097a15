// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/config"
)

type shutdownFlag struct{ set atomic.Bool }

func (f *shutdownFlag) SetShutdown(v bool) { f.set.Store(v) }

func TestServeDrainsOnCancel(t *testing.T) {
	flag := &shutdownFlag{}
	s := New(Config{
		ServerConfig:  config.ServerConfig{ShutdownTimeout: time.Second},
		HealthHandler: flag,
		DrainDelay:    10 * time.Millisecond,
	})
	s.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, flag.set.Load())
}

func TestDrainClosesLingeringStreams(t *testing.T) {
	s := New(Config{
		ServerConfig: config.ServerConfig{ShutdownTimeout: 50 * time.Millisecond},
	})
	streaming := make(chan struct{})
	s.Router().Get("/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(streaming)
		<-r.Context().Done()
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	<-streaming

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream kept the server alive")
	}
}
