package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/frontdesk/internal/logging"
)

func dialHub(t *testing.T, hub *EventHub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventHub_Broadcast(t *testing.T) {
	hub := NewEventHub(logging.New(nil, "silent"), nil)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast("call.started", map[string]string{"callSid": "CA1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "call.started", evt.Type)
	assert.False(t, evt.Time.IsZero())
}

func TestEventHub_DeadSubscriberDropped(t *testing.T) {
	hub := NewEventHub(logging.New(nil, "silent"), nil)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		hub.Broadcast("ping", nil)
		return hub.Subscribers() == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestEventHub_OriginPolicy(t *testing.T) {
	allowAll := checkWebSocketOrigin([]string{"*"})
	deny := checkWebSocketOrigin(nil)
	specific := checkWebSocketOrigin([]string{"http://ok.com"})

	req := httptest.NewRequest("GET", "/ws/events", nil)
	assert.True(t, allowAll(req)) // no Origin header

	req.Header.Set("Origin", "http://evil.com")
	assert.True(t, allowAll(req))
	assert.False(t, deny(req))
	assert.False(t, specific(req))

	req.Header.Set("Origin", "http://ok.com")
	assert.True(t, specific(req))
}
