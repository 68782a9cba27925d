package websockets

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/websockets"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestServeHTTP(t *testing.T) {
	t.Run("Streams Cue Topics", func(t *testing.T) {
		// Arrange
		b := bus.New(nil)
		hub := websockets.NewHub(nil)
		_, err := hub.Attach(b)
		require.NoError(t, err)
		srv := httptest.NewServer(NewHandler(hub, nil))
		defer srv.Close()

		conn := dial(t, srv.URL)
		defer conn.Close()
		require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

		// Act
		require.NoError(t, b.Publish(bus.TopicTransferUpdated))

		// Assert
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"transfer-updated"}`, string(raw))
	})

	t.Run("Every Connection Receives The Cue", func(t *testing.T) {
		hub := websockets.NewHub(nil)
		srv := httptest.NewServer(NewHandler(hub, nil))
		defer srv.Close()

		first := dial(t, srv.URL)
		defer first.Close()
		second := dial(t, srv.URL)
		defer second.Close()
		require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

		require.NoError(t, hub.Publish(t.Context(), websockets.Message{Type: bus.TopicBalanceUpdated}))

		for _, conn := range []*websocket.Conn{first, second} {
			var msg websockets.Message
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			require.NoError(t, conn.ReadJSON(&msg))
			assert.Equal(t, bus.TopicBalanceUpdated, msg.Type)
		}
	})

	t.Run("Disconnect Removes Connection", func(t *testing.T) {
		hub := websockets.NewHub(nil)
		srv := httptest.NewServer(NewHandler(hub, nil))
		defer srv.Close()

		conn := dial(t, srv.URL)
		require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()

		assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
	})
}
