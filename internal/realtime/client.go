package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnState 客户端连接状态机
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// UserTopicPrefix 身份类 topic 前缀。此类订阅绑定的是"我是谁"而非
// 当前页面，视图卸载时不会被自动退订。
const UserTopicPrefix = "user:"

// Handler 推送处理函数
type Handler func(payload json.RawMessage)

// Client 客户端订阅管理器。
// 维护期望订阅集合与服务端已确认集合的差量，只发必要的加组/退组帧；
// 断线后服务端订阅表即失效，重连成功时重放全部期望订阅。
type Client struct {
	url     string
	retries int
	backoff time.Duration

	writeMu sync.Mutex // gorilla 连接同一时刻只允许一个写者

	mu       sync.Mutex
	state    ConnState
	ws       *websocket.Conn
	gen      int // 连接代数，用于忽略旧连接读循环的断线通知
	desired  map[string]struct{}
	joined   map[string]struct{}
	handlers map[string]map[string]Handler
	closed   bool
}

// NewClient 创建客户端。retries/backoff 控制建连重试：
// 第 i 次失败后等待 (i+1)*backoff。
func NewClient(url string, retries int, backoff time.Duration) *Client {
	if retries <= 0 {
		retries = 5
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Client{
		url:      url,
		retries:  retries,
		backoff:  backoff,
		state:    StateDisconnected,
		desired:  make(map[string]struct{}),
		joined:   make(map[string]struct{}),
		handlers: make(map[string]map[string]Handler),
	}
}

// On 注册 (topic, action) 的推送处理函数
func (c *Client) On(topic, action string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers[topic] == nil {
		c.handlers[topic] = make(map[string]Handler)
	}
	c.handlers[topic][action] = h
}

// State 当前连接状态
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect 建立连接，带有限次退避重试。
// 成功进入 Connected 后重放全部期望订阅。
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client closed")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ws, err := c.dialWithRetry(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	c.install(ws)
	return nil
}

func (c *Client) dialWithRetry(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for i := 0; i < c.retries; i++ {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			return ws, nil
		}
		lastErr = err
		log.Printf("connect attempt %d failed: %v", i+1, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * c.backoff):
		}
	}
	return nil, fmt.Errorf("could not connect after %d retries: %w", c.retries, lastErr)
}

// install 进入 Connected：绑定新连接、重放订阅、启动读循环
func (c *Client) install(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.gen++
	gen := c.gen
	c.state = StateConnected
	c.joined = make(map[string]struct{})
	topics := make([]string, 0, len(c.desired))
	for t := range c.desired {
		topics = append(topics, t)
	}
	c.mu.Unlock()

	for _, t := range topics {
		if c.sendControl(ws, ControlJoin, t) {
			c.mu.Lock()
			c.joined[t] = struct{}{}
			c.mu.Unlock()
		}
	}

	go c.readLoop(ws, gen)
}

func (c *Client) readLoop(ws *websocket.Conn, gen int) {
	for {
		var msg PushMessage
		if err := ws.ReadJSON(&msg); err != nil {
			c.handleDisconnect(ws, gen, err)
			return
		}
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *PushMessage) {
	c.mu.Lock()
	var hs []Handler
	for _, byAction := range c.handlers {
		if h, ok := byAction[msg.Action]; ok {
			hs = append(hs, h)
		}
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(msg.Payload)
	}
}

// handleDisconnect 断线处理：本地作废已加入集合（服务端已经清掉了），
// 然后进入 Reconnecting 重试建连。
func (c *Client) handleDisconnect(ws *websocket.Conn, gen int, cause error) {
	_ = ws.Close()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	c.joined = make(map[string]struct{})
	c.mu.Unlock()

	log.Printf("connection lost (%v), reconnecting...", cause)

	newWS, err := c.dialWithRetry(context.Background())
	if err != nil {
		log.Printf("reconnect failed: %v", err)
		c.mu.Lock()
		if !c.closed && gen == c.gen {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = newWS.Close()
		return
	}
	c.mu.Unlock()

	log.Printf("reconnected, rejoining groups...")
	c.install(newWS)
}

// SetDesired 声明当前期望的订阅集合（通常来自已挂载的视图）。
// 只对差量发帧：已加入的不重复 Join，仍需要的不 Leave；
// 身份类 topic（user: 前缀）从期望集合消失时也不会退订。
func (c *Client) SetDesired(topics []string) {
	want := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		want[t] = struct{}{}
	}

	c.mu.Lock()
	var joins, leaves []string
	for t := range c.desired {
		if _, ok := want[t]; !ok {
			if strings.HasPrefix(t, UserTopicPrefix) {
				want[t] = struct{}{} // 身份订阅保留
				continue
			}
			leaves = append(leaves, t)
		}
	}
	for t := range want {
		if _, joined := c.joined[t]; !joined {
			joins = append(joins, t)
		}
	}
	c.desired = want
	connected := c.state == StateConnected
	ws := c.ws
	c.mu.Unlock()

	if !connected {
		// 未连接时只更新期望集合，进入 Connected 时统一重放
		return
	}

	for _, t := range joins {
		if c.sendControl(ws, ControlJoin, t) {
			c.mu.Lock()
			c.joined[t] = struct{}{}
			c.mu.Unlock()
		}
	}
	for _, t := range leaves {
		if c.sendControl(ws, ControlLeave, t) {
			c.mu.Lock()
			delete(c.joined, t)
			c.mu.Unlock()
		}
	}
}

// Joined 返回已确认加入的 topic 快照（测试与诊断用）
func (c *Client) Joined() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.joined))
	for t := range c.joined {
		out = append(out, t)
	}
	return out
}

// sendControl 发送控制帧，失败只记日志不重试
func (c *Client) sendControl(ws *websocket.Conn, typ, group string) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.WriteJSON(&ControlMessage{Type: typ, Group: group}); err != nil {
		log.Printf("%s group %s failed: %v", typ, group, err)
		return false
	}
	return true
}

// Close 主动断开并停止重连
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.state = StateDisconnected
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		return ws.Close()
	}
	return nil
}
