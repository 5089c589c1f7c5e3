package realtime

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T) (*Hub, *Registry, string) {
	t.Helper()
	registry := NewRegistry()
	hub := NewHub(registry, 16)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, registry, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialRaw(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendControl(t *testing.T, ws *websocket.Conn, typ, group string) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(&ControlMessage{Type: typ, Group: group}))
}

func readPush(t *testing.T, ws *websocket.Conn) *PushMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg PushMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return &msg
}

// 广播精确性：只收到自己订阅的 topic 的事件
func TestHubBroadcastPrecision(t *testing.T) {
	hub, registry, url := newHubServer(t)

	listConn := dialRaw(t, url)
	detailConn := dialRaw(t, url)

	sendControl(t, listConn, ControlJoin, "page:order:list")
	sendControl(t, detailConn, ControlJoin, "detail:order:o1")

	require.Eventually(t, func() bool {
		return len(registry.TopicMembers("page:order:list")) == 1 &&
			len(registry.TopicMembers("detail:order:o1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast("page:order:list", "OrderCreated", map[string]string{"id": "o1"}))

	msg := readPush(t, listConn)
	assert.Equal(t, "OrderCreated", msg.Action)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "o1", payload["id"])

	// detail 订阅者不应收到列表页事件
	require.NoError(t, detailConn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := detailConn.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub, registry, url := newHubServer(t)

	ws := dialRaw(t, url)
	sendControl(t, ws, ControlJoin, "page:order:list")
	require.Eventually(t, func() bool {
		return len(registry.TopicMembers("page:order:list")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sendControl(t, ws, ControlLeave, "page:order:list")
	require.Eventually(t, func() bool {
		return len(registry.TopicMembers("page:order:list")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast("page:order:list", "OrderCreated", nil))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := ws.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

// 连接断开后订阅表清理，广播自然跳过掉线成员
func TestHubDisconnectCleansRegistry(t *testing.T) {
	hub, registry, url := newHubServer(t)

	ws := dialRaw(t, url)
	sendControl(t, ws, ControlJoin, "page:order:list")
	sendControl(t, ws, ControlJoin, "user:42")
	require.Eventually(t, func() bool {
		return len(registry.TopicMembers("page:order:list")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ws.Close()

	require.Eventually(t, func() bool {
		return hub.ConnCount() == 0 &&
			len(registry.TopicMembers("page:order:list")) == 0 &&
			len(registry.TopicMembers("user:42")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// 没有成员时广播也是安全的空操作
	require.NoError(t, hub.Broadcast("page:order:list", "OrderCreated", nil))
}

func TestHubBroadcastToManyMembers(t *testing.T) {
	hub, registry, url := newHubServer(t)

	const n = 5
	conns := make([]*websocket.Conn, 0, n)
	for i := 0; i < n; i++ {
		ws := dialRaw(t, url)
		sendControl(t, ws, ControlJoin, "page:order:list")
		conns = append(conns, ws)
	}
	require.Eventually(t, func() bool {
		return len(registry.TopicMembers("page:order:list")) == n
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast("page:order:list", "OrderCreated", map[string]int{"seq": 1}))

	for _, ws := range conns {
		msg := readPush(t, ws)
		assert.Equal(t, "OrderCreated", msg.Action)
	}
}
