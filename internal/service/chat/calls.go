package chat

import (
	"fmt"
	"sync"
	"time"

	"terrasapp_server/pkg/errorx"
)

// CallState 通话状态
type CallState int

const (
	CallRinging CallState = iota + 1
	CallActive
	CallEnded
)

func (s CallState) String() string {
	switch s {
	case CallRinging:
		return "ringing"
	case CallActive:
		return "active"
	case CallEnded:
		return "ended"
	}
	return "unknown"
}

// Call 一次一对一通话
type Call struct {
	Id          string
	CallerId    string
	RecipientId string
	CallType    string
	State       CallState
	StartedAt   time.Time
}

// HasParticipant 是否为通话双方之一
func (c Call) HasParticipant(userId string) bool {
	return c.CallerId == userId || c.RecipientId == userId
}

// Other 返回另一方
func (c Call) Other(userId string) string {
	if c.CallerId == userId {
		return c.RecipientId
	}
	return c.CallerId
}

// CallTable 进行中的通话表
// 结束的通话直接从表中移除，之后按 id 查询得到 ErrCallNotFound。
// 所有方法返回 Call 的副本。
type CallTable struct {
	mu    sync.Mutex
	calls map[string]*Call
}

func NewCallTable() *CallTable {
	return &CallTable{calls: make(map[string]*Call)}
}

// Start 发起通话
// 被叫方已在任意通话中时返回 ErrRecipientBusy；忙线检查与插入在同一把锁内完成
func (t *CallTable) Start(callerId, recipientId, callType string, at time.Time) (Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inCallLocked(recipientId) {
		return Call{}, errorx.ErrRecipientBusy
	}
	call := &Call{
		Id:          fmt.Sprintf("%s-%s-%d", callerId, recipientId, at.UnixMicro()),
		CallerId:    callerId,
		RecipientId: recipientId,
		CallType:    callType,
		State:       CallRinging,
		StartedAt:   at,
	}
	if _, exists := t.calls[call.Id]; exists {
		return Call{}, errorx.New(errorx.CodeConflict, "Call already exists")
	}
	t.calls[call.Id] = call
	return *call, nil
}

// Accept 被叫方接听
func (t *CallTable) Accept(callId, accepterId string) (Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.calls[callId]
	if !ok {
		return Call{}, errorx.ErrCallNotFound
	}
	if call.RecipientId != accepterId {
		return Call{}, errorx.New(errorx.CodeForbidden, "Only the callee can accept this call")
	}
	if call.State != CallRinging {
		return Call{}, errorx.Newf(errorx.CodeConflict, "Call is already %s", call.State)
	}
	call.State = CallActive
	return *call, nil
}

// Reject 任一方拒绝/取消，通话被移除
func (t *CallTable) Reject(callId, userId string) (Call, error) {
	return t.finish(callId, userId)
}

// End 任一方挂断，通话被移除
func (t *CallTable) End(callId, userId string) (Call, error) {
	return t.finish(callId, userId)
}

func (t *CallTable) finish(callId, userId string) (Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.calls[callId]
	if !ok {
		return Call{}, errorx.ErrCallNotFound
	}
	if !call.HasParticipant(userId) {
		return Call{}, errorx.New(errorx.CodeForbidden, "Not a participant of this call")
	}
	delete(t.calls, callId)
	ended := *call
	ended.State = CallEnded
	return ended, nil
}

// EndAllFor 移除用户参与的全部通话（断线清理）
func (t *CallTable) EndAllFor(userId string) []Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ended []Call
	for id, call := range t.calls {
		if !call.HasParticipant(userId) {
			continue
		}
		delete(t.calls, id)
		c := *call
		c.State = CallEnded
		ended = append(ended, c)
	}
	return ended
}

// Get 按 id 查询
func (t *CallTable) Get(callId string) (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, ok := t.calls[callId]
	if !ok {
		return Call{}, false
	}
	return *call, true
}

// InCall 用户是否在任意通话中（响铃中也算）
func (t *CallTable) InCall(userId string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inCallLocked(userId)
}

func (t *CallTable) inCallLocked(userId string) bool {
	for _, call := range t.calls {
		if call.HasParticipant(userId) {
			return true
		}
	}
	return false
}

// Count 进行中的通话数
func (t *CallTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
