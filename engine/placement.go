package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Placement 开局摆放：单元格 -> 棋子代码
type Placement map[Cell]Code

// defaultRanks 行 0 为第 8 横线；王在 d、后在 e
var defaultRanks = [8]string{
	"RB,NB,BB,KB,QB,BB,NB,RB",
	"PB,PB,PB,PB,PB,PB,PB,PB",
	",,,,,,,",
	",,,,,,,",
	",,,,,,,",
	",,,,,,,",
	"PW,PW,PW,PW,PW,PW,PW,PW",
	"RW,NW,BW,KW,QW,BW,NW,RW",
}

// DefaultPlacement 内置开局
func DefaultPlacement() Placement {
	p, err := ParsePlacement(strings.NewReader(strings.Join(defaultRanks[:], "\n")))
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePlacement CSV：每行一横线，空字段为空格
func ParsePlacement(r io.Reader) (Placement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	out := make(Placement)
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("placement row %d: %w", row, err)
		}
		for col, field := range rec {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			code, err := ParseCode(field)
			if err != nil {
				return nil, fmt.Errorf("placement row %d col %d: %w", row, col, err)
			}
			out[Cell{Row: row, Col: col}] = code
		}
		row++
	}
	return out, nil
}

// LoadPlacement 读取 CSV 文件
func LoadPlacement(path string) (Placement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePlacement(f)
}

// Cells 按行、列排序，保证建子顺序稳定
func (p Placement) Cells() []Cell {
	cells := make([]Cell, 0, len(p))
	for c := range p {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// Squares 转为代数记号映射，棋盘外的格被忽略
func (p Placement) Squares(b Board) map[string]Code {
	out := make(map[string]Code, len(p))
	for c, code := range p {
		if b.IsValidCell(c) {
			out[b.CellToAlgebraic(c)] = code
		}
	}
	return out
}
