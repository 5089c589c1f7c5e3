package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsHarness 记录每条连接收到的加组/退组帧，并可主动踢掉连接
type wsHarness struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  []*websocket.Conn
	joins  [][]string
	leaves [][]string
}

func newWSHarness(t *testing.T) (*wsHarness, string) {
	t.Helper()
	h := &wsHarness{}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (h *wsHarness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	idx := len(h.conns)
	h.conns = append(h.conns, ws)
	h.joins = append(h.joins, nil)
	h.leaves = append(h.leaves, nil)
	h.mu.Unlock()

	for {
		var msg ControlMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		h.mu.Lock()
		switch msg.Type {
		case ControlJoin:
			h.joins[idx] = append(h.joins[idx], msg.Group)
		case ControlLeave:
			h.leaves[idx] = append(h.leaves[idx], msg.Group)
		}
		h.mu.Unlock()
	}
}

func (h *wsHarness) connCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *wsHarness) joinsOf(idx int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]string(nil), h.joins[idx]...)
	sort.Strings(out)
	return out
}

func (h *wsHarness) leavesOf(idx int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]string(nil), h.leaves[idx]...)
	sort.Strings(out)
	return out
}

func (h *wsHarness) kick(idx int) {
	h.mu.Lock()
	ws := h.conns[idx]
	h.mu.Unlock()
	ws.Close()
}

// push 从服务端向指定连接推送一条消息
func (h *wsHarness) push(t *testing.T, idx int, action string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	h.mu.Lock()
	ws := h.conns[idx]
	h.mu.Unlock()
	require.NoError(t, ws.WriteJSON(&PushMessage{Action: action, Payload: raw}))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(url, 3, 10*time.Millisecond)
	t.Cleanup(func() { c.Close() })
	return c
}

func sorted(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

// Connect 之前声明的期望订阅，建连成功时一次性重放
func TestClientConnectReplaysDesired(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)

	c.SetDesired([]string{"page:order:list", "user:42"})
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StateConnected, c.State())

	require.Eventually(t, func() bool {
		return h.connCount() == 1 && len(h.joinsOf(0)) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"page:order:list", "user:42"}, h.joinsOf(0))
	assert.Equal(t, []string{"page:order:list", "user:42"}, sorted(c.Joined()))
}

// 差量发帧：重复声明不重发 Join，换页只对差集发帧
func TestClientSetDesiredDelta(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)
	require.NoError(t, c.Connect(context.Background()))

	c.SetDesired([]string{"page:order:list", "detail:order:o1"})
	c.SetDesired([]string{"page:order:list", "detail:order:o1"}) // 不应产生新帧
	c.SetDesired([]string{"page:order:list", "detail:order:o2"}) // 换详情页

	require.Eventually(t, func() bool {
		return len(h.joinsOf(0)) == 3 && len(h.leavesOf(0)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"detail:order:o1", "detail:order:o2", "page:order:list"}, h.joinsOf(0))
	assert.Equal(t, []string{"detail:order:o1"}, h.leavesOf(0))
	assert.Equal(t, []string{"detail:order:o2", "page:order:list"}, sorted(c.Joined()))
}

// 身份类订阅从期望集合消失时不退订
func TestClientUserTopicSticky(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)
	require.NoError(t, c.Connect(context.Background()))

	c.SetDesired([]string{"user:42", "page:order:list"})
	require.Eventually(t, func() bool {
		return len(h.joinsOf(0)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	c.SetDesired(nil)
	require.Eventually(t, func() bool {
		return len(h.leavesOf(0)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"page:order:list"}, h.leavesOf(0))
	assert.Equal(t, []string{"user:42"}, sorted(c.Joined()))
}

// 断线重连：服务端订阅表已失效，新连接上重放全部期望订阅
func TestClientReconnectRejoins(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)
	require.NoError(t, c.Connect(context.Background()))

	c.SetDesired([]string{"page:order:list", "user:42"})
	require.Eventually(t, func() bool {
		return len(h.joinsOf(0)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	h.kick(0)

	require.Eventually(t, func() bool {
		return h.connCount() == 2 && len(h.joinsOf(1)) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"page:order:list", "user:42"}, h.joinsOf(1))
	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, []string{"page:order:list", "user:42"}, sorted(c.Joined()))
}

func TestClientDispatch(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)

	got := make(chan json.RawMessage, 1)
	c.On("page:order:list", "OrderCreated", func(payload json.RawMessage) {
		got <- payload
	})
	require.NoError(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool { return h.connCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.push(t, 0, "OrderCreated", map[string]string{"id": "o1"})

	select {
	case raw := <-got:
		var payload map[string]string
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "o1", payload["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	// 未注册的 action 被忽略，不影响后续推送
	h.push(t, 0, "SomethingElse", nil)
	h.push(t, 0, "OrderCreated", map[string]string{"id": "o2"})
	select {
	case raw := <-got:
		var payload map[string]string
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "o2", payload["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked for second push")
	}
}

// 建连重试有限次，耗尽后回到 Disconnected 并返回错误
func TestClientConnectRetryExhausted(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", 2, time.Millisecond)

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 retries")
	assert.Equal(t, StateDisconnected, c.State())
}

func TestClientConnectRespectsContext(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Connect(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Connect did not honor context cancellation")
	}
}

// 主动 Close 后不再重连
func TestClientCloseStopsReconnect(t *testing.T) {
	h, url := newWSHarness(t)
	c := newTestClient(t, url)
	require.NoError(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool { return h.connCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Equal(t, StateDisconnected, c.State())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, h.connCount())
}
