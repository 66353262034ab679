// Package mq 领域事件流
// 消息、通话与在线状态的变化以领域事件的形式写入 Kafka，供下游（推送、审计、搜索索引）消费。
// 实时投递不依赖事件流，发布失败只记录日志。
package mq

import (
	"context"
	"time"
)

// 事件类型
const (
	EventMessageSent     = "message.sent"
	EventMessageRead     = "message.read"
	EventMessageDeleted  = "message.deleted"
	EventCallStarted     = "call.started"
	EventCallAccepted    = "call.accepted"
	EventCallRejected    = "call.rejected"
	EventCallEnded       = "call.ended"
	EventPresenceChanged = "presence.changed"
)

// DomainEvent 领域事件
// Key 决定分区，同一会话/通话的事件保持有序
type DomainEvent struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Close() error
}
