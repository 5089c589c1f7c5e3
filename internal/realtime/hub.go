package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub WebSocket 网关：维护活跃连接，转发加组/退组控制帧到订阅表，
// 并把广播消息推送给 topic 的全部成员。
// 每个连接有独立的发送缓冲与写协程，慢消费者不会阻塞其它连接。
type Hub struct {
	registry   *Registry
	upgrader   websocket.Upgrader
	sendBuffer int

	mu    sync.RWMutex
	conns map[string]*hubConn
}

type hubConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend 非阻塞投递。返回 false 表示缓冲已满（慢消费者）。
// 已关闭的连接按投递成功处理，掉线成员本来就收不到。
func (c *hubConn) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *hubConn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// NewHub 创建网关
func NewHub(registry *Registry, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		registry:   registry,
		sendBuffer: sendBuffer,
		conns:      make(map[string]*hubConn),
		upgrader: websocket.Upgrader{
			// POS 客户端与服务端同网段部署，不校验 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP 处理 /ws 升级请求，连接生命周期内阻塞于读循环
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &hubConn{
		id:   strings.ReplaceAll(uuid.NewString(), "-", ""),
		ws:   ws,
		send: make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	log.Printf("connection %s established", c.id)

	go h.writePump(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *hubConn) {
	defer h.dropConn(c)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("connection %s sent invalid control frame: %v", c.id, err)
			continue
		}
		switch msg.Type {
		case ControlJoin:
			h.registry.Join(c.id, msg.Group)
		case ControlLeave:
			h.registry.Leave(c.id, msg.Group)
		default:
			log.Printf("connection %s sent unknown control type %q", c.id, msg.Type)
		}
	}
}

func (h *Hub) writePump(c *hubConn) {
	for data := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	_ = c.ws.Close()
}

func (h *Hub) dropConn(c *hubConn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	h.registry.ConnectionClosed(c.id)
	c.shutdown()
	log.Printf("connection %s closed", c.id)
}

// Broadcast 把 (action, payload) 推送给 topic 的全部在线成员。
// 逐成员尽力投递：缓冲写满视为慢消费者，丢弃该连接；
// 掉线成员自然收不到，不排队不重放。
func (h *Hub) Broadcast(topic, action string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(&PushMessage{Action: action, Payload: raw})
	if err != nil {
		return err
	}

	for _, connID := range h.registry.TopicMembers(topic) {
		h.mu.RLock()
		c, ok := h.conns[connID]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		if !c.trySend(data) {
			log.Printf("connection %s send buffer full, dropping connection", connID)
			h.dropConn(c)
		}
	}
	return nil
}

// ConnCount 当前活跃连接数
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
