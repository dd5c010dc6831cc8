package server

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"kungfuchess/engine"
	"kungfuchess/protocol"
)

func newTestRoom(t *testing.T, cfg RoomConfig) *Room {
	t.Helper()
	opts := DefaultOptions()
	opts.Config = cfg
	r := NewRoom("test", opts)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

// nextMsg 读取发送队列中的下一条消息
func nextMsg(t *testing.T, c *ClientConn) map[string]any {
	t.Helper()
	select {
	case b, ok := <-c.send:
		if !ok {
			t.Fatal("connection closed")
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("bad payload %s: %v", b, err)
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

// expectType 跳过其他类型直到读到 typ
func expectType(t *testing.T, c *ClientConn, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		m := nextMsg(t, c)
		if m["type"] == typ {
			return m
		}
	}
	t.Fatalf("no %s message", typ)
	return nil
}

func join(t *testing.T, r *Room) (*ClientConn, PlayerID) {
	t.Helper()
	c := NewClientConn(nil)
	id, err := r.Join(c)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return c, id
}

func TestJoinSequence(t *testing.T) {
	r := newTestRoom(t, DefaultRoomConfig())
	white, id := join(t, r)
	if id != "player_1" {
		t.Fatalf("id = %s", id)
	}
	m := nextMsg(t, white)
	if m["type"] != protocol.TypeAssignColor || m["color"] != "white" || m["player_id"] != "player_1" {
		t.Fatalf("first message = %v", m)
	}
	m = nextMsg(t, white)
	if m["type"] != protocol.TypeFullState {
		t.Fatalf("second message = %v", m)
	}
	// 首个玩家注册即自动开始
	m = nextMsg(t, white)
	if m["type"] != protocol.TypeGameStarted {
		t.Fatalf("third message = %v", m)
	}

	black, _ := join(t, r)
	if m := nextMsg(t, black); m["color"] != "black" {
		t.Fatalf("second player color = %v", m["color"])
	}
	expectType(t, white, protocol.TypeInfo)
	expectType(t, black, protocol.TypeInfo)
}

func TestThirdPlayerRejected(t *testing.T) {
	r := newTestRoom(t, DefaultRoomConfig())
	join(t, r)
	join(t, r)
	_, err := r.Join(NewClientConn(nil))
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("got %v, want ErrRoomFull", err)
	}
	if st := r.Status(); st.Players != 2 {
		t.Fatalf("players = %d", st.Players)
	}
}

func TestMoveBroadcastAndError(t *testing.T) {
	r := newTestRoom(t, DefaultRoomConfig())
	white, wid := join(t, r)
	black, bid := join(t, r)
	expectType(t, white, protocol.TypeInfo)
	expectType(t, black, protocol.TypeInfo)

	r.OnInput(Input{PlayerID: wid, Msg: protocol.ClientMessage{Action: protocol.ActionMove, From: "a2", To: "a4", Piece: "PW"}})
	for _, c := range []*ClientConn{white, black} {
		m := expectType(t, c, protocol.TypeMoveExecuted)
		board := m["board_state"].(map[string]any)
		if board["a4"] != "PW" || board["a2"] != nil {
			t.Fatalf("board_state = %v", board)
		}
		if m["captured"] != nil {
			t.Fatalf("captured = %v", m["captured"])
		}
	}

	// 黑方尝试移动白子：只有黑方收到 move_error
	r.OnInput(Input{PlayerID: bid, Msg: protocol.ClientMessage{Action: protocol.ActionMove, From: "b2", To: "b3"}})
	m := expectType(t, black, protocol.TypeMoveError)
	if m["message"] == "" {
		t.Fatal("empty error message")
	}
	r.OnInput(Input{PlayerID: wid, Msg: protocol.ClientMessage{Action: protocol.ActionGetState}})
	fs := expectType(t, white, protocol.TypeFullState)
	if hist := fs["move_history"].([]any); len(hist) != 1 {
		t.Fatalf("move_history = %v", hist)
	}
	if n := r.Metrics().Snapshot()["moves_rejected"].(int64); n != 1 {
		t.Fatalf("moves_rejected = %d", n)
	}
}

func TestDisconnectContinue(t *testing.T) {
	r := newTestRoom(t, DefaultRoomConfig())
	white, _ := join(t, r)
	_, bid := join(t, r)
	expectType(t, white, protocol.TypeInfo)

	r.RequestLeave(bid)
	m := expectType(t, white, protocol.TypePlayerDisconnected)
	if m["player"] != string(bid) || m["color"] != "black" {
		t.Fatalf("got %v", m)
	}
	waitFor(t, func() bool { return r.Status().Players == 1 })
	if !r.Status().Started {
		t.Fatal("continue policy keeps the game running")
	}
}

func TestDisconnectPauseAndResume(t *testing.T) {
	r := newTestRoom(t, RoomConfig{OnDisconnect: PolicyPause, HistoryLen: 10})
	white, wid := join(t, r)
	_, bid := join(t, r)
	expectType(t, white, protocol.TypeInfo)

	r.RequestLeave(bid)
	expectType(t, white, protocol.TypePlayerDisconnected)
	expectType(t, white, protocol.TypeInfo)
	waitFor(t, func() bool { return !r.Status().Started })

	r.OnInput(Input{PlayerID: wid, Msg: protocol.ClientMessage{Action: protocol.ActionMove, From: "a2", To: "a3"}})
	expectType(t, white, protocol.TypeMoveError)

	// 新玩家注册后恢复
	join(t, r)
	expectType(t, white, protocol.TypeGameStarted)
	waitFor(t, func() bool { return r.Status().Started })
}

func TestDisconnectEnd(t *testing.T) {
	r := newTestRoom(t, RoomConfig{OnDisconnect: PolicyEnd, HistoryLen: 10})
	white, _ := join(t, r)
	_, bid := join(t, r)
	expectType(t, white, protocol.TypeInfo)

	r.RequestLeave(bid)
	m := expectType(t, white, protocol.TypeGameOver)
	if m["winner"] != "white" || m["reason"] != "opponent_disconnected" {
		t.Fatalf("got %v", m)
	}
}

func TestKingCaptureBroadcastsGameOver(t *testing.T) {
	opts := DefaultOptions()
	b := opts.Board
	opts.Placement = engine.Placement{
		b.MustCell("d7"): {Type: engine.Queen, Color: engine.White},
		b.MustCell("d8"): {Type: engine.King, Color: engine.Black},
		b.MustCell("d1"): {Type: engine.King, Color: engine.White},
	}
	r := NewRoom("kings", opts)
	r.Start()
	t.Cleanup(r.Stop)

	white, wid := join(t, r)
	black, _ := join(t, r)
	expectType(t, white, protocol.TypeInfo)

	r.OnInput(Input{PlayerID: wid, Msg: protocol.ClientMessage{Action: protocol.ActionMove, From: "d7", To: "d8", Piece: "QW1"}})
	m := expectType(t, black, protocol.TypeMoveExecuted)
	if m["captured"] != "KB" {
		t.Fatalf("captured = %v", m["captured"])
	}
	m = nextMsg(t, black)
	if m["type"] != protocol.TypeGameOver || m["winner"] != "white" || m["reason"] != "king_captured" {
		t.Fatalf("got %v", m)
	}
	waitFor(t, func() bool { return !r.Status().Started })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestEmptyRoomIsReaped(t *testing.T) {
	opts := DefaultOptions()
	opts.Config.OnDisconnect = PolicyEnd
	m := NewRoomManager(opts)
	t.Cleanup(m.Close)

	for _, id := range []string{"scratch", DefaultRoom} {
		r, err := m.GetOrCreateRoom(id)
		if err != nil {
			t.Fatal(err)
		}
		c := NewClientConn(nil)
		pid, err := r.Join(c)
		if err != nil {
			t.Fatal(err)
		}
		expectType(t, c, protocol.TypeGameStarted)
		r.RequestLeave(pid)
		waitFor(t, func() bool { return r.players.Load() == 0 && !r.started.Load() })
	}

	waitFor(t, func() bool { _, ok := m.Room("scratch"); return !ok })
	if _, ok := m.Room(DefaultRoom); !ok {
		t.Fatal("default room must stay")
	}

	// 同名房间可重新创建并正常加入
	r, err := m.GetOrCreateRoom("scratch")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join(NewClientConn(nil)); err != nil {
		t.Fatalf("join recreated room: %v", err)
	}
}

func TestStartedRoomIsNotReaped(t *testing.T) {
	m := NewRoomManager(DefaultOptions())
	t.Cleanup(m.Close)
	r, err := m.GetOrCreateRoom("live")
	if err != nil {
		t.Fatal(err)
	}
	c := NewClientConn(nil)
	pid, err := r.Join(c)
	if err != nil {
		t.Fatal(err)
	}
	r.RequestLeave(pid)
	waitFor(t, func() bool { return r.players.Load() == 0 })
	time.Sleep(50 * time.Millisecond)
	if got, ok := m.Room("live"); !ok || got != r {
		t.Fatal("room with a running match must not be reaped under the continue policy")
	}
}
