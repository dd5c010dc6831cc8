package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kungfuchess/protocol"
)

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 1 << 16
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws      *websocket.Conn
	send    chan []byte
	session string

	mu     sync.Mutex
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		session: uuid.NewString(),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞）；队列满或已关闭返回 false
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close 关闭发送队列；写协程发完已排队的消息后关闭底层连接
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，解析后注入房间；格式错误的消息记录后丢弃
func (c *ClientConn) readPump(room *Room, playerID PlayerID) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在循环协程中移除该玩家
	defer room.RequestLeave(playerID)
	c.ws.SetReadLimit(maxMessage)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				Log.Debugf("read %s/%s: %v", room.ID, playerID, err)
			}
			return
		}
		msg, err := ParseInput(payload)
		if err != nil {
			room.metrics.IncMalformed()
			Log.Warnf("room %s: dropping message from %s: %v", room.ID, playerID, err)
			continue
		}
		room.OnInput(Input{PlayerID: playerID, Msg: msg})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：/ws?room=room-1
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	client := NewClientConn(ws)
	var (
		room   *Room
		player PlayerID
	)
	// 房间可能恰好被回收：换一个新房间再试一次
	for attempt := 0; attempt < 2; attempt++ {
		room, err = m.GetOrCreateRoom(roomID)
		if err != nil {
			Log.Errorf("room %s: %v", roomID, err)
			rejectConn(ws, "room unavailable")
			return
		}
		player, err = room.Join(client)
		if !errors.Is(err, ErrRoomClosed) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrRoomFull) {
			Log.Infof("room %s: rejecting connection %s: full", roomID, client.session)
			rejectConn(ws, "game is full: 2 players already connected")
			return
		}
		Log.Warnf("room %s: join failed: %v", roomID, err)
		rejectConn(ws, "room closed")
		return
	}

	go client.writePump()
	go client.readPump(room, player)
}

// rejectConn 直接写出 error 消息后关闭，连接从未进入广播集合
func rejectConn(ws *websocket.Conn, message string) {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.TextMessage, protocol.Encode(protocol.Notice{Type: protocol.TypeError, Message: message}))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
	_ = ws.Close()
}
