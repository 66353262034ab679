package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/pkg/constants"
)

// wsConn 读写泵用到的 *websocket.Conn 方法
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ConnOptions 单个连接的参数
type ConnOptions struct {
	SendQueueSize  int
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

func (o ConnOptions) withDefaults() ConnOptions {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = constants.CHANNEL_SIZE
	}
	if o.PongWait <= 0 {
		o.PongWait = constants.PONG_WAIT_SECONDS * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = constants.WRITE_WAIT_SECONDS * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = constants.MAX_MESSAGE_SIZE
	}
	return o
}

// pingPeriod 必须小于 pongWait
func (o ConnOptions) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// UserConn 用户的一条 WebSocket 连接
// 读泵顺序分发入站事件，写泵独占写操作并负责心跳。
// send 通道从不关闭，关闭信号由 done 传递。
type UserConn struct {
	conn   wsConn
	userId string
	connId string
	opts   ConnOptions

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once
}

// NewUserConn 包装已升级的连接
func NewUserConn(conn wsConn, userId string, opts ConnOptions) *UserConn {
	opts = opts.withDefaults()
	return &UserConn{
		conn:   conn,
		userId: userId,
		connId: uuid.NewString(),
		opts:   opts,
		send:   make(chan outbound, opts.SendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *UserConn) UserId() string { return c.userId }
func (c *UserConn) ConnId() string { return c.connId }

// Done 连接关闭后返回的通道被关闭
func (c *UserConn) Done() <-chan struct{} { return c.done }

// Send 非阻塞入队，队列满时丢弃并记录日志
func (c *UserConn) Send(event string, payload any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- outbound{Event: event, Data: payload}:
		return true
	default:
		zap.L().Warn("ws send queue full, event dropped",
			zap.String("user_id", c.userId),
			zap.String("conn_id", c.connId),
			zap.String("event", event))
		return false
	}
}

// Close 通知写泵发送完队列中剩余事件后关闭连接，可重复调用
func (c *UserConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Reject 未启动读写泵时直接发送关闭帧并断开
func (c *UserConn) Reject(code int, reason string) {
	c.Close()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(c.opts.WriteWait))
	_ = c.conn.Close()
}

// ReadPump 循环读取入站帧并交给 handle，直到连接出错或关闭
// 无法解析的帧回复 error 事件，连接保持
func (c *UserConn) ReadPump(handle func(env request.WsEnvelope)) error {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	zap.L().Info("ws read pump start", zap.String("user_id", c.userId), zap.String("conn_id", c.connId))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Warn("ws read error", zap.String("user_id", c.userId), zap.Error(err))
			}
			return err
		}
		var env request.WsEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.Send(EventError, malformedFrame)
			continue
		}
		handle(env)
	}
}

// WritePump 将出站事件写入连接并定时发送 ping
// Close 之后先把队列中已有的事件写完，再发送关闭帧
func (c *UserConn) WritePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		zap.L().Info("ws write pump stop", zap.String("user_id", c.userId), zap.String("conn_id", c.connId))
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.WriteWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}

func (c *UserConn) write(msg outbound) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		zap.L().Warn("ws write error", zap.String("user_id", c.userId), zap.String("event", msg.Event), zap.Error(err))
		return err
	}
	return nil
}

func (c *UserConn) flush() {
	for {
		select {
		case msg := <-c.send:
			if c.write(msg) != nil {
				return
			}
		default:
			return
		}
	}
}
