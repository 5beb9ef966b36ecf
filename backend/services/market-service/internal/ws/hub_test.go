package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/models"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub(time.Minute, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(NewServer(hub, time.Second, zap.NewNop()).HandleWS))
	defer srv.Close()

	first := dial(t, srv)
	defer first.Close()
	second := dial(t, srv)
	defer second.Close()
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	ev, err := models.NewEvent(models.EventEnergyListed, map[string]int{"id": 1}, time.Now())
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var got models.Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, models.EventEnergyListed, got.Type)
		assert.JSONEq(t, `{"id":1}`, string(got.Data))
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(time.Minute, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(NewServer(hub, time.Second, zap.NewNop()).HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte(`{}`))
}

func TestHubRunDisconnectsOnShutdown(t *testing.T) {
	hub := NewHub(10*time.Millisecond, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(NewServer(hub, time.Second, zap.NewNop()).HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 0, hub.Count())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error %v", err)
}
