package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kungfuchess/protocol"
)

const writeWait = 5 * time.Second

// Conn WebSocket 客户端连接；Send 可并发调用
type Conn struct {
	ws  *websocket.Conn
	mu  sync.Mutex
	log *zap.SugaredLogger
}

// Dial 例如 ws://localhost:8765/ws?room=room-1
func Dial(ctx context.Context, url string, log *zap.SugaredLogger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, log: log}, nil
}

func (c *Conn) Send(msg protocol.ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

// ReadLoop 把每条文本消息交给 deliver，直到连接关闭或 ctx 结束
func (c *Conn) ReadLoop(ctx context.Context, deliver func([]byte)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		deliver(payload)
	}
}

// Close 发送关闭帧后断开
func (c *Conn) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.mu.Unlock()
	return c.ws.Close()
}

var _ Sender = (*Conn)(nil)
