package mq

import (
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ncthangg/MiniPos-System/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 初始化 RabbitMQ 连接。MQ 只是订单事件的尽力旁路，
// 连不上时返回 nil，派发器自动跳过旁路投递。
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Printf("rabbitmq unavailable, order feed disabled: %v", err)
			return
		}
		conn = c
	})
	return conn
}

// Conn 获取 MQ 连接（可能为 nil）
func Conn() *amqp.Connection {
	return conn
}
