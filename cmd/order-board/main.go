package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/ncthangg/MiniPos-System/internal/config"
	"github.com/ncthangg/MiniPos-System/internal/realtime"
	"github.com/ncthangg/MiniPos-System/internal/service"
)

// order-board 命令行版订单看板：订阅订单列表页 topic，
// 新订单一到立即打印。断线自动重连并重新订阅。
func main() {
	url := flag.String("url", "ws://127.0.0.1:8080/ws", "pos server websocket url")
	flag.Parse()

	cfg := config.DefaultConfig()

	client := realtime.NewClient(
		*url,
		cfg.Realtime.ClientRetries,
		time.Duration(cfg.Realtime.ClientBackoffMillis)*time.Millisecond,
	)

	client.On("page:order:list", "OrderCreated", func(payload json.RawMessage) {
		var summary service.OrderSummary
		if err := json.Unmarshal(payload, &summary); err != nil {
			log.Printf("invalid OrderCreated payload: %v", err)
			return
		}
		log.Printf("new order %s: %d items, total %d, by %s",
			summary.ID, summary.TotalItem, summary.TotalAmount, summary.CreatedBy)
	})

	if err := client.Connect(context.Background()); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	client.SetDesired([]string{"page:order:list"})

	log.Printf("order board connected, watching page:order:list...")
	select {}
}
