package engine

import "fmt"

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// String 协议中的颜色名
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Letter 棋子代码中的颜色字母
func (c Color) Letter() byte {
	if c == White {
		return 'W'
	}
	return 'B'
}

// Forward 前进方向的行增量：白方向行号减小，黑方向行号增大
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

// ParseColor 接受 "white"/"black"
func ParseColor(s string) (Color, bool) {
	switch s {
	case "white":
		return White, true
	case "black":
		return Black, true
	}
	return White, false
}

type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]byte{'P', 'N', 'B', 'R', 'Q', 'K'}

func (t PieceType) Letter() byte {
	if int(t) < len(pieceLetters) {
		return pieceLetters[t]
	}
	return '?'
}

func (t PieceType) String() string { return string(t.Letter()) }

// Value 计分：P=1 N=3 B=3 R=5 Q=9 K=0
func (t PieceType) Value() int {
	switch t {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	}
	return 0
}

// Code 棋子类型代码，如 "PW"、"KB"，解析一次后以结构体形式流转
type Code struct {
	Type  PieceType
	Color Color
}

func (c Code) String() string { return string([]byte{c.Type.Letter(), c.Color.Letter()}) }

func (c Code) IsKing() bool { return c.Type == King }

// Promoted 兵升变为同色后
func (c Code) Promoted() Code { return Code{Type: Queen, Color: c.Color} }

// ParseCode 解析 "PW" 或带实例后缀的 id，如 "PW3"、"QB_12"
func ParseCode(s string) (Code, error) {
	if len(s) < 2 {
		return Code{}, fmt.Errorf("%w: %q", ErrBadCode, s)
	}
	var code Code
	switch s[0] {
	case 'P':
		code.Type = Pawn
	case 'N':
		code.Type = Knight
	case 'B':
		code.Type = Bishop
	case 'R':
		code.Type = Rook
	case 'Q':
		code.Type = Queen
	case 'K':
		code.Type = King
	default:
		return Code{}, fmt.Errorf("%w: %q", ErrBadCode, s)
	}
	switch s[1] {
	case 'W':
		code.Color = White
	case 'B':
		code.Color = Black
	default:
		return Code{}, fmt.Errorf("%w: %q", ErrBadCode, s)
	}
	return code, nil
}

// AllCodes 12 种棋子代码
func AllCodes() []Code {
	out := make([]Code, 0, 12)
	for _, c := range []Color{White, Black} {
		for t := Pawn; t <= King; t++ {
			out = append(out, Code{Type: t, Color: c})
		}
	}
	return out
}
