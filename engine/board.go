package engine

import (
	"fmt"
	"strconv"
)

// Cell 棋盘上的离散坐标（行、列），行 0 为黑方底线
type Cell struct {
	Row int
	Col int
}

func (c Cell) Add(dr, dc int) Cell { return Cell{Row: c.Row + dr, Col: c.Col + dc} }

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Point 世界坐标（像素）
type Point struct {
	X float64
	Y float64
}

// Board 只描述几何与坐标换算，构造后不可变
type Board struct {
	CellW int // 单元格宽（像素）
	CellH int // 单元格高（像素）
	Cols  int
	Rows  int
}

// DefaultBoard 8x8，单元格 80x80 像素
func DefaultBoard() Board {
	return Board{CellW: 80, CellH: 80, Cols: 8, Rows: 8}
}

func (b Board) Width() int  { return b.CellW * b.Cols }
func (b Board) Height() int { return b.CellH * b.Rows }

// IsValidCell 判断单元格是否在棋盘内
func (b Board) IsValidCell(c Cell) bool {
	return c.Row >= 0 && c.Row < b.Rows && c.Col >= 0 && c.Col < b.Cols
}

// CellToWorld 单元格左上角的像素坐标
func (b Board) CellToWorld(c Cell) Point {
	return Point{X: float64(c.Col * b.CellW), Y: float64(c.Row * b.CellH)}
}

// WorldToCell 连续位置向下取整到单元格；越界时 ok=false
func (b Board) WorldToCell(p Point) (Cell, bool) {
	x, y := int(p.X), int(p.Y)
	if p.X < 0 || p.Y < 0 || x >= b.Width() || y >= b.Height() {
		return Cell{}, false
	}
	return Cell{Row: y / b.CellH, Col: x / b.CellW}, true
}

// CellToAlgebraic (0,0) -> "a8"
func (b Board) CellToAlgebraic(c Cell) string {
	return fmt.Sprintf("%c%d", 'a'+rune(c.Col), b.Rows-c.Row)
}

// AlgebraicToCell "e2" -> (6,4)
func (b Board) AlgebraicToCell(sq string) (Cell, error) {
	if len(sq) < 2 {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadSquare, sq)
	}
	col := int(sq[0] - 'a')
	digits := sq[1:]
	// 只接受标准写法：横线无前导 0，位数不超过棋盘行数的位数
	if digits[0] == '0' || len(digits) > len(strconv.Itoa(b.Rows)) {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadSquare, sq)
	}
	rank := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Cell{}, fmt.Errorf("%w: %q", ErrBadSquare, sq)
		}
		rank = rank*10 + int(r-'0')
	}
	c := Cell{Row: b.Rows - rank, Col: col}
	if !b.IsValidCell(c) {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadSquare, sq)
	}
	return c, nil
}

// MustCell 仅用于常量与测试
func (b Board) MustCell(sq string) Cell {
	c, err := b.AlgebraicToCell(sq)
	if err != nil {
		panic(err)
	}
	return c
}
