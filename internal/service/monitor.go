package service

import (
	"sync"
	"time"
)

// Monitor 运行期统计：下单吞吐与基础设施错误计数
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	RedisErrors     int64
	DBErrors        int64
	BroadcastErrors int64

	// 下单统计
	CheckoutRequests int64
	CheckoutAccepted int64
	CheckoutRejected int64

	// 时间统计
	LastRedisError     time.Time
	LastDBError        time.Time
	LastBroadcastError time.Time
	LastCheckout       time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordRedisError 记录Redis错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordBroadcastError 记录推送失败
func (m *Monitor) RecordBroadcastError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BroadcastErrors++
	m.LastBroadcastError = time.Now()
}

// RecordCheckoutRequest 记录一次下单请求
func (m *Monitor) RecordCheckoutRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutRequests++
	m.LastCheckout = time.Now()
}

// RecordCheckoutAccepted 记录下单成功
func (m *Monitor) RecordCheckoutAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutAccepted++
}

// RecordCheckoutRejected 记录下单被校验拒绝
func (m *Monitor) RecordCheckoutRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutRejected++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acceptRate := float64(0)
	if m.CheckoutRequests > 0 {
		acceptRate = float64(m.CheckoutAccepted) / float64(m.CheckoutRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis":     m.RedisErrors,
			"db":        m.DBErrors,
			"broadcast": m.BroadcastErrors,
		},
		"checkout": map[string]interface{}{
			"requests":    m.CheckoutRequests,
			"accepted":    m.CheckoutAccepted,
			"rejected":    m.CheckoutRejected,
			"accept_rate": acceptRate,
		},
		"last_events": map[string]interface{}{
			"redis_error":     m.LastRedisError,
			"db_error":        m.LastDBError,
			"broadcast_error": m.LastBroadcastError,
			"last_checkout":   m.LastCheckout,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors = 0
	m.DBErrors = 0
	m.BroadcastErrors = 0
	m.CheckoutRequests = 0
	m.CheckoutAccepted = 0
	m.CheckoutRejected = 0
}
