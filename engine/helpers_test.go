package engine

import (
	"io"
	"strings"
	"testing"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func testConfig() PhysicsConfig {
	return PhysicsConfig{SpeedCellsPerSec: 1, JumpMs: 500, ShortRestMs: 300, LongRestMs: 1000}
}

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	b := DefaultBoard()
	f, err := NewFactory(b, testConfig(), DefaultTables(b))
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return f
}

func mustPiece(t *testing.T, f *Factory, alloc *SeqAllocator, code, square string) *Piece {
	t.Helper()
	c, err := ParseCode(code)
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.CreatePiece(c, f.Board().MustCell(square), alloc)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func moveCmd(t *testing.T, b Board, ts int64, id, from, to string) Command {
	t.Helper()
	cmd, err := NewAlgebraicCommand(b, ts, id, CmdMove, from, to)
	if err != nil {
		t.Fatal(err)
	}
	return cmd
}
