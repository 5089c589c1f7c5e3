package redis

import (
	"log"
	"sync"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/ncthangg/MiniPos-System/internal/config"
)

var (
	client radix.Client
	once   sync.Once
)

// Init 初始化 Redis 连接池。Redis 只承担商品列表缓存，
// 连不上时返回 nil，调用方退化为直查 DB。
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		pool, err := radix.NewPool("tcp", cfg.Addr, 10)
		if err != nil {
			log.Printf("redis unavailable, product cache disabled: %v", err)
			return
		}
		client = pool
	})
	return client
}

// Client 获取 Redis 客户端（可能为 nil）
func Client() radix.Client {
	return client
}
