package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kungfuchess/engine"
	"kungfuchess/events"
	"kungfuchess/protocol"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.ClientMessage
	err  error
}

func (f *fakeSender) Send(msg protocol.ClientMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []protocol.ClientMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.ClientMessage(nil), f.sent...)
}

func newTestGame(t *testing.T, placement engine.Placement) (*Game, *fakeSender) {
	t.Helper()
	cfg := DefaultConfig()
	if placement != nil {
		cfg.Placement = placement
	}
	s := &fakeSender{}
	g, err := NewGame(cfg, s, nil)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, s
}

func sq(t *testing.T, s string) engine.Cell {
	t.Helper()
	c, err := engine.DefaultBoard().AlgebraicToCell(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func pc(t *testing.T, s string) engine.Code {
	t.Helper()
	c, err := engine.ParseCode(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func cmd(t *testing.T, g *Game, line string) engine.Command {
	t.Helper()
	c, err := ParseLine(g.cfg.Board, line, 0)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestJumpAppliedLocally(t *testing.T) {
	g, s := newTestGame(t, nil)
	if err := g.Submit(cmd(t, g, "e2")); err != nil {
		t.Fatal(err)
	}
	g.Tick(10)
	p, ok := g.PieceAt(sq(t, "e2"))
	if !ok || p.StateName() != engine.CmdJump {
		t.Fatalf("piece at e2: %v state=%v", ok, p.StateName())
	}
	if len(s.messages()) != 0 {
		t.Fatalf("jump must not reach the server: %v", s.messages())
	}
}

func TestMoveForwardedNotApplied(t *testing.T) {
	g, s := newTestGame(t, nil)
	local, err := g.Accept(cmd(t, g, "e2 e3"), 0)
	if err != nil || local {
		t.Fatalf("local=%v err=%v", local, err)
	}
	msgs := s.messages()
	if len(msgs) != 1 || msgs[0].Action != "move" || msgs[0].From != "e2" || msgs[0].To != "e3" || msgs[0].Piece == "" {
		t.Fatalf("sent = %+v", msgs)
	}
	p, _ := g.PieceAt(sq(t, "e2"))
	if p.StateName() != engine.CmdIdle {
		t.Fatalf("piece should stay idle until the server echoes, got %s", p.StateName())
	}
}

func TestLocalAcceptanceRules(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty source", "e4 e5", engine.ErrNoPiece},
		{"pawn two squares", "e2 e4", engine.ErrPawnShape},
		{"pawn diagonal without capture", "e2 d3", engine.ErrPawnShape},
		{"own piece", "a1 a2", engine.ErrOwnPiece},
		{"blocked rook", "a1 a5", engine.ErrBlocked},
		{"blocked bishop", "c1 e3", engine.ErrBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, s := newTestGame(t, nil)
			_, err := g.Accept(cmd(t, g, tt.line), 0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(s.messages()) != 0 {
				t.Fatal("rejected command reached the server")
			}
		})
	}
}

func TestKnightJumpsOverPieces(t *testing.T) {
	g, s := newTestGame(t, nil)
	if _, err := g.Accept(cmd(t, g, "g1 f3"), 0); err != nil {
		t.Fatal(err)
	}
	if len(s.messages()) != 1 {
		t.Fatal("knight move should be forwarded")
	}
}

func TestPawnDiagonalCapture(t *testing.T) {
	g, s := newTestGame(t, engine.Placement{
		sq(t, "e4"): pc(t, "PW"),
		sq(t, "d5"): pc(t, "PB"),
	})
	if _, err := g.Accept(cmd(t, g, "e4 d5"), 0); err != nil {
		t.Fatalf("diagonal capture: %v", err)
	}
	if len(s.messages()) != 1 {
		t.Fatal("capture should be forwarded")
	}
}

func TestColorOwnership(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Deliver(protocol.Encode(protocol.AssignColor{Type: protocol.TypeAssignColor, Color: "black", PlayerID: "player_2"}))
	g.Tick(0)
	if c, ok := g.Color(); !ok || c != engine.Black || g.PlayerID() != "player_2" {
		t.Fatalf("color = %v,%v", c, ok)
	}
	if _, err := g.Accept(cmd(t, g, "e2 e3"), 0); !errors.Is(err, engine.ErrWrongColor) {
		t.Fatalf("got %v", err)
	}
	if _, err := g.Accept(cmd(t, g, "e7 e6"), 0); err != nil {
		t.Fatalf("own piece: %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	g, err := NewGame(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Accept(cmd(t, g, "e2 e3"), 0); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v", err)
	}
	if local, err := g.Accept(cmd(t, g, "e2"), 0); err != nil || !local {
		t.Fatalf("jump offline: local=%v err=%v", local, err)
	}
}

func moveExecuted(from, to, piece string, captured *string, promoted bool) []byte {
	return protocol.Encode(protocol.MoveExecuted{
		Type: protocol.TypeMoveExecuted, From: from, To: to, Piece: piece, Captured: captured, Promoted: promoted,
	})
}

func TestServerMoveAnimatesThenCoolsDown(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Deliver(moveExecuted("e2", "e3", "PW", nil, false))
	g.Tick(0)
	p, ok := g.PieceAt(sq(t, "e2"))
	if !ok || p.StateName() != engine.CmdMove {
		t.Fatalf("piece should be moving from e2")
	}
	// 1 格 / 1 格每秒 = 1000ms
	g.Tick(1000)
	if got, ok := g.PieceAt(sq(t, "e3")); !ok || got != p {
		t.Fatal("piece should have arrived at e3")
	}
	if p.Physics().Kind != engine.PhysicsLongRest {
		t.Fatalf("after a move the piece cools down, got %s", p.Physics().Kind)
	}
	if _, err := g.Accept(cmd(t, g, "e3"), 1100); !errors.Is(err, engine.ErrCooldown) {
		t.Fatalf("got %v, want ErrCooldown", err)
	}
	g.Tick(1000 + 3000)
	if p.StateName() != engine.CmdIdle {
		t.Fatalf("state after long rest = %s", p.StateName())
	}
	if h := g.History.Moves(); len(h) != 1 || h[0].To != "e3" {
		t.Fatalf("history = %+v", h)
	}
}

func TestServerMoveOutsideTableTeleports(t *testing.T) {
	g, _ := newTestGame(t, nil)
	// 服务端不限制车，本地走法表不含 a1->b3
	g.Deliver(moveExecuted("a1", "b3", "RW", nil, false))
	g.Tick(0)
	p, ok := g.PieceAt(sq(t, "b3"))
	if !ok || p.Code().String() != "RW" {
		t.Fatal("rook should be teleported to b3")
	}
	if _, ok := g.PieceAt(sq(t, "a1")); ok {
		t.Fatal("a1 should be empty")
	}
}

func TestResolverCaptureDuringServerMove(t *testing.T) {
	g, _ := newTestGame(t, engine.Placement{
		sq(t, "a1"): pc(t, "RW"),
		sq(t, "a3"): pc(t, "KB"),
		sq(t, "h1"): pc(t, "KW"),
	})
	var captured []events.Capture
	events.On(g.Bus(), func(c events.Capture) { captured = append(captured, c) })

	kb := "KB"
	g.Deliver(moveExecuted("a1", "a3", "RW", &kb, false))
	g.Tick(0)
	g.Tick(1500)

	if len(captured) != 1 || captured[0].Captured.String() != "KB" || captured[0].Position != "a3" {
		t.Fatalf("captures = %+v", captured)
	}
	if len(g.Pieces()) != 2 || g.KingsRemaining() != 1 {
		t.Fatalf("pieces = %d kings = %d", len(g.Pieces()), g.KingsRemaining())
	}
	if w, ok := g.Victory.Winner(); !ok || w != engine.White {
		t.Fatalf("winner = %v,%v", w, ok)
	}
	if g.Score.Score(engine.White) != 0 {
		t.Fatalf("king is worth 0, got %d", g.Score.Score(engine.White))
	}
}

func TestServerPromotion(t *testing.T) {
	g, _ := newTestGame(t, engine.Placement{sq(t, "a7"): pc(t, "PW")})
	g.Deliver(moveExecuted("a7", "a8", "QW", nil, true))
	g.Tick(0)
	ps := g.Pieces()
	if len(ps) != 1 {
		t.Fatalf("pieces = %d", len(ps))
	}
	p := ps[0]
	if p.Code().String() != "QW" || p.ID() != "QW1" || !p.IsPromoted() {
		t.Fatalf("got %s id=%s promoted=%v", p.Code(), p.ID(), p.IsPromoted())
	}
	g.Tick(1000)
	if v := g.View(); v["a8"] != "QW" {
		t.Fatalf("view = %v", v)
	}
}

func TestApplyBoardState(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.ApplyBoardState(map[string]string{"e4": "PW", "d1": "KW", "d8": "KB", "h5": "NB"})
	if n := len(g.Pieces()); n != 4 {
		t.Fatalf("pieces = %d", n)
	}
	v := g.View()
	for sq, want := range map[string]string{"e4": "PW", "d1": "KW", "d8": "KB", "h5": "NB"} {
		if v[sq] != want {
			t.Errorf("%s = %q want %q", sq, v[sq], want)
		}
	}
	if _, ok := v["a2"]; ok {
		t.Error("stale pawn not removed")
	}
}

func TestGameOverLinger(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Deliver(protocol.Encode(protocol.GameStarted{Type: protocol.TypeGameStarted, Message: "go"}))
	g.Tick(50)
	if !g.Started() {
		t.Fatal("game_started not applied")
	}
	g.Deliver(protocol.Encode(protocol.GameOver{Type: protocol.TypeGameOver, Winner: "black", Reason: "king_captured"}))
	g.Tick(100)
	if !g.Over() || g.Winner() != "black" {
		t.Fatalf("over=%v winner=%q", g.Over(), g.Winner())
	}
	if g.Done(200) {
		t.Fatal("should linger")
	}
	if !g.Done(100 + DefaultConfig().Linger.Milliseconds()) {
		t.Fatal("should be done after linger")
	}
}

func TestMalformedServerMessageIgnored(t *testing.T) {
	g, _ := newTestGame(t, nil)
	var seen []string
	g.OnMessage = func(typ string, _ []byte) { seen = append(seen, typ) }
	g.Deliver([]byte("{broken"))
	g.Deliver(protocol.Encode(protocol.Notice{Type: protocol.TypeInfo, Message: "hi"}))
	g.Tick(0)
	if len(seen) != 1 || seen[0] != protocol.TypeInfo {
		t.Fatalf("seen = %v", seen)
	}
	if len(g.Pieces()) != 32 {
		t.Fatalf("pieces = %d", len(g.Pieces()))
	}
}

func TestDeliverReturnsAfterStop(t *testing.T) {
	g, _ := newTestGame(t, nil)
	msg := protocol.Encode(protocol.Notice{Type: protocol.TypeInfo, Message: "hi"})
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		// 超过 inbox 容量，且没有 Tick 在消费
		for i := 0; i < 200; i++ {
			g.Deliver(msg)
		}
	}()
	time.Sleep(20 * time.Millisecond)
	g.Stop()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliver still blocked after Stop")
	}
	g.Stop()
}

func TestRunStopsOnStop(t *testing.T) {
	g, _ := newTestGame(t, nil)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		g.Run(context.Background(), time.Millisecond)
	}()
	g.Stop()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
