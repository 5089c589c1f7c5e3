package realtime

import "sync"

// Registry 进程级订阅表：topic -> 当前关注该 topic 的连接集合。
// 所有变更与广播快照读都经过同一把锁，Join/Leave/ConnectionClosed
// 均为幂等操作，断线/重连竞态下重复调用是安全的空操作。
type Registry struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{} // topic -> connID 集合
	byConn map[string]map[string]struct{} // connID -> topic 集合
}

// NewRegistry 创建订阅表
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join 连接加入 topic，重复加入不产生重复条目
func (r *Registry) Join(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.topics[topic] == nil {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connID] = struct{}{}

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][topic] = struct{}{}
}

// Leave 连接退出 topic，未加入时为空操作
func (r *Registry) Leave(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connID, topic)
}

// ConnectionClosed 连接断开，清理其全部订阅。重复调用安全。
func (r *Registry) ConnectionClosed(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.byConn[connID] {
		r.removeLocked(connID, topic)
	}
	delete(r.byConn, connID)
}

// TopicMembers 返回 topic 成员快照，供广播迭代，
// 与并发 Join/Leave 互不干扰。
func (r *Registry) TopicMembers(topic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.topics[topic]))
	for connID := range r.topics[topic] {
		members = append(members, connID)
	}
	return members
}

// TopicsOf 返回某连接当前加入的全部 topic 快照
func (r *Registry) TopicsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.byConn[connID]))
	for topic := range r.byConn[connID] {
		topics = append(topics, topic)
	}
	return topics
}

func (r *Registry) removeLocked(connID, topic string) {
	if set, ok := r.topics[topic]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.topics, topic)
		}
	}
	if set, ok := r.byConn[connID]; ok {
		delete(set, topic)
	}
}
