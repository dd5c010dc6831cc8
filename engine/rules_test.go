package engine

import (
	"errors"
	"testing"
)

func TestCheckPawnShape(t *testing.T) {
	b := DefaultBoard()
	occ := CellMap{
		b.MustCell("d5"): {Pawn, Black},
		b.MustCell("f5"): {Pawn, White},
		b.MustCell("e5"): {Rook, Black},
	}
	pw := Code{Pawn, White}
	pb := Code{Pawn, Black}
	tests := []struct {
		name     string
		code     Code
		from, to string
		wantErr  bool
	}{
		{"white forward", pw, "a2", "a3", false},
		{"white double step", pw, "a2", "a4", true},
		{"white backward", pw, "a3", "a2", true},
		{"white sideways", pw, "a3", "b3", true},
		{"white diagonal empty", pw, "a2", "b3", true},
		{"white diagonal capture", pw, "e4", "d5", false},
		{"white diagonal onto own", pw, "e4", "f5", true},
		{"white forward blocked", pw, "e4", "e5", true},
		{"black forward", pb, "c7", "c6", false},
		{"black wrong way", pb, "c6", "c7", true},
		{"black diagonal capture", pb, "e6", "f5", false},
		{"jump in place", pw, "a2", "a2", false},
		{"non pawn ignored", Code{Rook, White}, "a1", "a8", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPawnShape(tt.code, b.MustCell(tt.from), b.MustCell(tt.to), occ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPawnShape) {
				t.Fatalf("err = %v, want ErrPawnShape", err)
			}
		})
	}
}

func TestCheckDestinationAndPath(t *testing.T) {
	b := DefaultBoard()
	occ := SquareMap{Board: b, Squares: DefaultPlacement().Squares(b)}
	rw := Code{Rook, White}

	if err := CheckDestination(rw, b.MustCell("a1"), b.MustCell("a2"), occ); !errors.Is(err, ErrOwnPiece) {
		t.Fatalf("own piece err = %v", err)
	}
	if err := CheckDestination(rw, b.MustCell("a1"), b.MustCell("a1"), occ); err != nil {
		t.Fatalf("in place err = %v", err)
	}
	if err := CheckDestination(rw, b.MustCell("a1"), b.MustCell("a7"), occ); err != nil {
		t.Fatalf("enemy destination err = %v", err)
	}
	if err := CheckPath(b.MustCell("a1"), b.MustCell("a5"), occ); !errors.Is(err, ErrBlocked) {
		t.Fatalf("blocked path err = %v", err)
	}
	if err := CheckPath(b.MustCell("a3"), b.MustCell("a6"), occ); err != nil {
		t.Fatalf("clear path err = %v", err)
	}
	// 马步不是直线，没有中间格
	if err := CheckPath(b.MustCell("b1"), b.MustCell("c3"), occ); err != nil {
		t.Fatalf("knight path err = %v", err)
	}
	if got := PathBetween(b.MustCell("c1"), b.MustCell("f4")); len(got) != 2 {
		t.Fatalf("diagonal path = %v", got)
	}
}

func TestCheckOwnerAndDelta(t *testing.T) {
	b := DefaultBoard()
	nw := Code{Knight, White}
	if err := CheckOwner(nw, Black); !errors.Is(err, ErrWrongColor) {
		t.Fatalf("owner err = %v", err)
	}
	if err := CheckOwner(nw, White); err != nil {
		t.Fatal(err)
	}
	tables := DefaultTables(b)
	if err := CheckDelta(tables.Lookup(nw), nw, b.MustCell("g1"), b.MustCell("g3")); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("delta err = %v", err)
	}
	if err := CheckDelta(tables.Lookup(nw), nw, b.MustCell("g1"), b.MustCell("h3")); err != nil {
		t.Fatal(err)
	}
	// 走法表缺失时放行
	if err := CheckDelta(nil, nw, b.MustCell("g1"), b.MustCell("g3")); err != nil {
		t.Fatalf("nil table err = %v", err)
	}
}
