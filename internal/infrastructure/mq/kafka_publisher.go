package mq

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	myconfig "terrasapp_server/internal/config"
)

// KafkaPublisher 基于 kafka-go Writer 的事件发布者
// Writer 以异步模式运行，Publish 只负责入队
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 按配置创建发布者
func NewKafkaPublisher(conf *myconfig.KafkaConfig) *KafkaPublisher {
	timeout := conf.Timeout * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(conf.HostPort, ",")...),
		Topic:                  conf.EventTopic,
		Balancer:               &kafka.LeastBytes{},
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: false,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				zap.L().Error("publish domain events failed", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: w}
}

// Publish 序列化事件并写入 Writer 队列
func (p *KafkaPublisher) Publish(ctx context.Context, event DomainEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 刷新队列并关闭 Writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// encodeEvent 事件类型同时写入 header，消费方可以不解析 body 就完成路由
func encodeEvent(event DomainEvent) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}

var _ EventPublisher = (*KafkaPublisher)(nil)
