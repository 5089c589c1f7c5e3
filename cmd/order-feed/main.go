package main

import (
	"encoding/json"
	"log"

	"github.com/ncthangg/MiniPos-System/internal/config"
	"github.com/ncthangg/MiniPos-System/internal/infra/mq"
	"github.com/ncthangg/MiniPos-System/internal/realtime"
)

// order-feed 订阅 MQ 上的订单事件旁路，把新订单打到日志，
// 供后台/对账进程接流使用。
func main() {
	cfg := config.DefaultConfig()

	mqConn := mq.Init(&cfg.RabbitMQ)
	if mqConn == nil {
		log.Fatalf("rabbitmq is required for order-feed")
	}

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	exchange := cfg.RabbitMQ.OrderExchange
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare exchange: %v", err)
	}

	// 临时独占队列，进程退出自动删除
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		log.Fatalf("failed to bind queue: %v", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Printf("order-feed started, waiting for events on %s...", exchange)

	for d := range msgs {
		var event realtime.FeedEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Printf("invalid event: %v", err)
			continue
		}
		payload, _ := json.Marshal(event.Payload)
		log.Printf("[%s] %s %s", event.Topic, event.Action, payload)
	}
}
