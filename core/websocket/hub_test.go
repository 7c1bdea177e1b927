package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog/core/logger"
	"blog/core/router"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesClient(t *testing.T) {
	r := router.New()
	hub := InitWebSocketModule(r.Group("/admin"), logger.NewNop())

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("posts.save", map[string]any{"id": 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "posts.save", msg.Event)
	assert.Equal(t, float64(7), msg.Data["id"])
}

func TestBroadcastOnNilHub(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Broadcast("posts.save", nil) })
}
