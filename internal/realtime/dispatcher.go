package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FeedEvent MQ 旁路上的事件结构，供后台进程（cmd/order-feed）消费
type FeedEvent struct {
	Topic   string      `json:"topic"`
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Dispatcher 事件派发器：把业务事件广播给本进程的订阅连接，
// 并尽力投递到 MQ fanout exchange 供外部进程消费。
// MQ 投递失败只记日志，永远不影响调用方。
type Dispatcher struct {
	hub      *Hub
	mqConn   *amqp.Connection
	exchange string
}

// NewDispatcher 创建派发器。mqConn 可以为 nil（不开旁路）。
func NewDispatcher(hub *Hub, mqConn *amqp.Connection, exchange string) *Dispatcher {
	return &Dispatcher{
		hub:      hub,
		mqConn:   mqConn,
		exchange: exchange,
	}
}

// SendToEntityPage 广播到实体列表页 topic（page:<entity>:<pageKey>）
func (d *Dispatcher) SendToEntityPage(entityType, pageKey, action string, payload interface{}) error {
	topic := fmt.Sprintf("page:%s:%s", entityType, pageKey)
	return d.send(topic, action, payload)
}

// SendToEntityDetail 广播到单实体详情 topic（detail:<entity>:<id>）
func (d *Dispatcher) SendToEntityDetail(entityType, entityID, action string, payload interface{}) error {
	topic := fmt.Sprintf("detail:%s:%s", entityType, entityID)
	return d.send(topic, action, payload)
}

func (d *Dispatcher) send(topic, action string, payload interface{}) error {
	if err := d.hub.Broadcast(topic, action, payload); err != nil {
		return err
	}
	d.publishMQ(topic, action, payload)
	return nil
}

func (d *Dispatcher) publishMQ(topic, action string, payload interface{}) {
	if d.mqConn == nil || d.exchange == "" {
		return
	}

	ch, err := d.mqConn.Channel()
	if err != nil {
		log.Printf("mq channel open failed: %v", err)
		return
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(d.exchange, "fanout", true, false, false, false, nil); err != nil {
		log.Printf("mq exchange declare failed: %v", err)
		return
	}

	body, err := json.Marshal(&FeedEvent{Topic: topic, Action: action, Payload: payload})
	if err != nil {
		log.Printf("mq event marshal failed: %v", err)
		return
	}

	if err := ch.PublishWithContext(
		context.Background(),
		d.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		log.Printf("mq publish failed: %v", err)
	}
}
