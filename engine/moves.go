package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Delta 行列增量（单元格坐标系）
type Delta struct {
	DR int
	DC int
}

// Moves 某一棋子代码的走法表：起点格 -> 可达格集合
type Moves struct {
	board  Board
	deltas []Delta
	set    map[Delta]struct{}
}

func NewMoves(board Board, deltas []Delta) *Moves {
	m := &Moves{board: board, set: make(map[Delta]struct{}, len(deltas))}
	for _, d := range deltas {
		if _, dup := m.set[d]; dup {
			continue
		}
		m.set[d] = struct{}{}
		m.deltas = append(m.deltas, d)
	}
	return m
}

// Deltas 按加载顺序返回
func (m *Moves) Deltas() []Delta {
	if m == nil {
		return nil
	}
	return append([]Delta(nil), m.deltas...)
}

// HasDelta nil 表（加载失败）放行
func (m *Moves) HasDelta(d Delta) bool {
	if m == nil {
		return true
	}
	_, ok := m.set[d]
	return ok
}

// Allows from -> to 是否在可达集合内；nil 表放行
func (m *Moves) Allows(from, to Cell) bool {
	if m == nil {
		return true
	}
	if !m.board.IsValidCell(to) {
		return false
	}
	return m.HasDelta(Delta{DR: to.Row - from.Row, DC: to.Col - from.Col})
}

// Reachable 起点格在棋盘内的全部可达格
func (m *Moves) Reachable(from Cell) []Cell {
	if m == nil {
		return nil
	}
	out := make([]Cell, 0, len(m.deltas))
	for _, d := range m.deltas {
		c := from.Add(d.DR, d.DC)
		if m.board.IsValidCell(c) {
			out = append(out, c)
		}
	}
	return out
}

// ParseMoves 每行 "dr,dc"，可带 ":tag" 后缀；# 开头为注释
func ParseMoves(r io.Reader) ([]Delta, error) {
	var out []Delta
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if i := strings.IndexByte(text, ':'); i >= 0 {
			text = text[:i]
		}
		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want \"dr,dc\", got %q", line, sc.Text())
		}
		dr, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dc, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, Delta{DR: dr, DC: dc})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadMoves 读取单个 moves.txt
func LoadMoves(board Board, path string) (*Moves, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	deltas, err := ParseMoves(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMoves(board, deltas), nil
}

// Tables 各棋子代码的走法表；缺失的代码不受限制
type Tables map[Code]*Moves

// Lookup 缺失返回 nil（放行）
func (t Tables) Lookup(code Code) *Moves {
	if t == nil {
		return nil
	}
	return t[code]
}

// LoadTables 从 dir/<CODE>/moves.txt 加载；单个文件失败时该代码退化为不受限
func LoadTables(board Board, dir string, codes []Code, log *zap.SugaredLogger) Tables {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	out := make(Tables, len(codes))
	for _, code := range codes {
		path := filepath.Join(dir, code.String(), "moves.txt")
		m, err := LoadMoves(board, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warnf("moves table missing for %s (%s); piece is unrestricted", code, path)
			} else {
				log.Warnf("moves table for %s unreadable: %v; piece is unrestricted", code, err)
			}
			continue
		}
		out[code] = m
	}
	return out
}

// DefaultTables 内置走法表（兵只含单步前进与斜前吃子）
func DefaultTables(board Board) Tables {
	out := make(Tables, 12)
	for _, code := range AllCodes() {
		out[code] = NewMoves(board, DefaultDeltas(code, max(board.Rows, board.Cols)-1))
	}
	return out
}

// DefaultDeltas 按棋子类型生成增量，span 为滑动最大步数
func DefaultDeltas(code Code, span int) []Delta {
	orth := []Delta{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diag := []Delta{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	slide := func(dirs []Delta) []Delta {
		var out []Delta
		for _, d := range dirs {
			for k := 1; k <= span; k++ {
				out = append(out, Delta{DR: d.DR * k, DC: d.DC * k})
			}
		}
		return out
	}
	switch code.Type {
	case Pawn:
		f := code.Color.Forward()
		return []Delta{{f, 0}, {f, -1}, {f, 1}}
	case Knight:
		return []Delta{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	case Bishop:
		return slide(diag)
	case Rook:
		return slide(orth)
	case Queen:
		return append(slide(orth), slide(diag)...)
	case King:
		return append(append([]Delta(nil), orth...), diag...)
	}
	return nil
}
