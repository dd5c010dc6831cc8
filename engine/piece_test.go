package engine

import "testing"

func TestPieceMoveLifecycle(t *testing.T) {
	f := newTestFactory(t)
	b := f.Board()
	alloc := NewSeqAllocator()
	rook := mustPiece(t, f, alloc, "RW", "a1")

	if rook.StateName() != CmdIdle {
		t.Fatalf("initial state = %s", rook.StateName())
	}
	if _, ok := rook.Command(); ok {
		t.Fatal("fresh piece should have no command")
	}
	if !rook.OnCommand(moveCmd(t, b, 0, rook.ID(), "a1", "a3"), 0) {
		t.Fatal("rook a1->a3 rejected")
	}
	if rook.StateName() != CmdMove || !rook.Busy() {
		t.Fatalf("state = %s busy = %v", rook.StateName(), rook.Busy())
	}

	rook.Update(2000)
	if rook.StateName() != CmdLongRest {
		t.Fatalf("after move completion state = %s, want long_rest", rook.StateName())
	}
	if rook.Cell() != b.MustCell("a3") {
		t.Fatalf("cell = %v", rook.Cell())
	}
	if rook.Busy() {
		t.Fatal("resting piece reported busy")
	}

	rook.Update(2000 + testConfig().LongRestMs)
	if rook.StateName() != CmdIdle {
		t.Fatalf("after long rest state = %s, want idle", rook.StateName())
	}
}

func TestLongRestRejectsActions(t *testing.T) {
	f := newTestFactory(t)
	b := f.Board()
	alloc := NewSeqAllocator()
	rook := mustPiece(t, f, alloc, "RW", "a1")
	rook.OnCommand(moveCmd(t, b, 0, rook.ID(), "a1", "a2"), 0)
	rook.Update(1000)
	if rook.Physics().Kind != PhysicsLongRest {
		t.Fatalf("kind = %s, want long_rest", rook.Physics().Kind)
	}

	for _, cmd := range []Command{
		moveCmd(t, b, 1100, rook.ID(), "a2", "a4"),
		NewCommand(1100, rook.ID(), CmdJump, b.MustCell("a2")),
	} {
		if rook.IsCommandPossible(cmd) {
			t.Fatalf("%s accepted during long rest", cmd.Type())
		}
		if rook.OnCommand(cmd, 1100) {
			t.Fatalf("OnCommand(%s) applied during long rest", cmd.Type())
		}
		if rook.StateName() != CmdLongRest {
			t.Fatalf("state changed to %s", rook.StateName())
		}
	}
}

func TestMoveRequiresReachableDestination(t *testing.T) {
	f := newTestFactory(t)
	b := f.Board()
	knight := mustPiece(t, f, NewSeqAllocator(), "NW", "g1")

	if knight.IsCommandPossible(moveCmd(t, b, 0, knight.ID(), "g1", "g3")) {
		t.Fatal("knight g1->g3 should not be reachable")
	}
	if !knight.IsCommandPossible(moveCmd(t, b, 0, knight.ID(), "g1", "f3")) {
		t.Fatal("knight g1->f3 should be reachable")
	}
	// jump 只看转移表
	if !knight.IsCommandPossible(NewCommand(0, knight.ID(), CmdJump, b.MustCell("g1"))) {
		t.Fatal("jump should be possible from idle")
	}
	// idle 不在 idle 的转移表里
	if knight.IsCommandPossible(NewCommand(0, knight.ID(), CmdIdle, b.MustCell("g1"))) {
		t.Fatal("idle is not a transition of idle")
	}
}

func TestJumpReturnsToIdleThroughShortRest(t *testing.T) {
	f := newTestFactory(t)
	b := f.Board()
	p := mustPiece(t, f, NewSeqAllocator(), "KB", "d8")
	cfg := testConfig()

	if !p.OnCommand(NewCommand(10, p.ID(), CmdJump, b.MustCell("d8")), 10) {
		t.Fatal("jump rejected")
	}
	p.Update(10 + cfg.JumpMs)
	if p.StateName() != CmdShortRest {
		t.Fatalf("state = %s, want short_rest", p.StateName())
	}
	p.Update(10 + cfg.JumpMs + cfg.ShortRestMs)
	if p.StateName() != CmdIdle {
		t.Fatalf("state = %s, want idle", p.StateName())
	}
	if p.Cell() != b.MustCell("d8") {
		t.Fatalf("cell = %v", p.Cell())
	}
}

func TestSeqAllocatorUniqueAndPromotionID(t *testing.T) {
	f := newTestFactory(t)
	alloc := NewSeqAllocator()
	a := mustPiece(t, f, alloc, "PW", "a2")
	bp := mustPiece(t, f, alloc, "PW", "b2")
	if a.ID() != "PW1" || bp.ID() != "PW2" {
		t.Fatalf("ids = %s,%s", a.ID(), bp.ID())
	}
	if a.Seq() == bp.Seq() || bp.Seq() <= a.Seq() {
		t.Fatalf("seqs not increasing: %d,%d", a.Seq(), bp.Seq())
	}

	q := Code{Queen, White}
	a.Promote(f.Graph(q), PromotionID(a.ID(), q))
	if a.ID() != "QW1" || a.Code() != q || !a.IsPromoted() {
		t.Fatalf("promoted piece = %s %s %v", a.ID(), a.Code(), a.IsPromoted())
	}
	// 升变后走法表扩展为后的走法
	if !a.IsCommandPossible(moveCmd(t, f.Board(), 0, a.ID(), "a2", "a6")) {
		t.Fatal("promoted piece should move like a queen")
	}
}

func TestNewStateGraphValidates(t *testing.T) {
	code := Code{Pawn, White}
	if _, err := NewStateGraph(code, nil, []StateSpec{{Name: CmdMove, Physics: PhysicsMove, Next: []CommandType{CmdIdle}}}); err == nil {
		t.Fatal("expected error for missing idle")
	}
	bad := []StateSpec{
		{Name: CmdIdle, Physics: PhysicsIdle, Next: []CommandType{CmdMove}},
		{Name: CmdMove, Physics: PhysicsMove},
	}
	if _, err := NewStateGraph(code, nil, bad); err == nil {
		t.Fatal("expected error for move without completion transition")
	}
	dangling := []StateSpec{{Name: CmdIdle, Physics: PhysicsIdle, Next: []CommandType{CmdJump}}}
	if _, err := NewStateGraph(code, nil, dangling); err == nil {
		t.Fatal("expected error for unknown target")
	}
}
