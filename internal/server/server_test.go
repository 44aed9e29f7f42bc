package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/heatsim/internal/logging"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, metrics http.Handler) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	logger := logging.Discard()
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer("", hub, metrics, logger).Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return hub, ts, cancel
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsProgress(t *testing.T) {
	hub, ts, _ := startServer(t, nil)
	a, b := dial(t, ts), dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	p := sim.Progress{Step: 300, Time: 0.25, MaxRate: 1.5, FluidMean: 340, PlateMean: 320, FinMean: 300, Percent: 10, Status: sim.Stepping}
	hub.OnProgress(p)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		assert.Equal(t, TypeProgress, m.Type)
		require.NotNil(t, m.Progress)
		assert.Equal(t, p, *m.Progress)
		assert.Equal(t, p.Line(), m.Content)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, ts, _ := startServer(t, nil)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, ts, cancel := startServer(t, nil)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}

func TestServerRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("heatsim_step 1\n"))
	})
	_, ts, _ := startServer(t, metrics)

	for _, path := range []string{"/metrics", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
