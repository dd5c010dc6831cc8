package engine

import (
	"fmt"
)

// Occupancy 客户端与服务端共享的占用视图
type Occupancy interface {
	At(c Cell) (Code, bool)
}

// CellMap 以单元格为键的占用表
type CellMap map[Cell]Code

func (m CellMap) At(c Cell) (Code, bool) {
	code, ok := m[c]
	return code, ok
}

// SquareMap 以代数记号为键的占用表（服务端棋盘）
type SquareMap struct {
	Board   Board
	Squares map[string]Code
}

func (m SquareMap) At(c Cell) (Code, bool) {
	code, ok := m.Squares[m.Board.CellToAlgebraic(c)]
	return code, ok
}

// CheckOwner 棋子颜色必须与发令方一致
func CheckOwner(code Code, issuer Color) error {
	if code.Color != issuer {
		return fmt.Errorf("%w: %s", ErrWrongColor, code)
	}
	return nil
}

// CheckDelta 增量必须在走法表中；nil 表放行
func CheckDelta(m *Moves, code Code, src, dst Cell) error {
	if !m.HasDelta(Delta{DR: dst.Row - src.Row, DC: dst.Col - src.Col}) {
		return fmt.Errorf("%w: %s %s->%s", ErrIllegalMove, code, src, dst)
	}
	return nil
}

// CheckPawnShape 不吃子时只能前进一格；斜前一格仅在目的地有对方棋子时允许
func CheckPawnShape(code Code, src, dst Cell, occ Occupancy) error {
	if code.Type != Pawn || src == dst {
		return nil
	}
	dr, dc := dst.Row-src.Row, dst.Col-src.Col
	target, occupied := occ.At(dst)
	if !occupied {
		if dr != code.Color.Forward() || dc != 0 {
			return fmt.Errorf("%w: %s->%s", ErrPawnShape, src, dst)
		}
		return nil
	}
	if dr != code.Color.Forward() || (dc != 1 && dc != -1) || target.Color == code.Color {
		return fmt.Errorf("%w: %s->%s", ErrPawnShape, src, dst)
	}
	return nil
}

// CheckDestination 目的地不能是己方棋子（原地 jump 除外）
func CheckDestination(code Code, src, dst Cell, occ Occupancy) error {
	if src == dst {
		return nil
	}
	if target, ok := occ.At(dst); ok && target.Color == code.Color {
		return fmt.Errorf("%w: %s", ErrOwnPiece, dst)
	}
	return nil
}

// PathBetween 直线或斜线上的中间格；非直线返回 nil
func PathBetween(src, dst Cell) []Cell {
	dr, dc := dst.Row-src.Row, dst.Col-src.Col
	if dr == 0 && dc == 0 {
		return nil
	}
	if dr != 0 && dc != 0 && abs(dr) != abs(dc) {
		return nil
	}
	step := Cell{Row: sign(dr), Col: sign(dc)}
	var out []Cell
	for cur := src.Add(step.Row, step.Col); cur != dst; cur = cur.Add(step.Row, step.Col) {
		out = append(out, cur)
	}
	return out
}

// CheckPath 滑动走法的中间格必须为空
func CheckPath(src, dst Cell, occ Occupancy) error {
	for _, c := range PathBetween(src, dst) {
		if _, ok := occ.At(c); ok {
			return fmt.Errorf("%w at %s", ErrBlocked, c)
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
