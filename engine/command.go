package engine

import "fmt"

// CommandType 指令类型，同时也是状态节点的名字
type CommandType string

const (
	CmdIdle      CommandType = "idle"
	CmdMove      CommandType = "move"
	CmdJump      CommandType = "jump"
	CmdShortRest CommandType = "short_rest"
	CmdLongRest  CommandType = "long_rest"
)

// Active 是否为进行中的动作（可作为攻击方）
func (t CommandType) Active() bool { return t == CmdMove || t == CmdJump }

// ParseCommandType 校验字符串
func ParseCommandType(s string) (CommandType, bool) {
	switch t := CommandType(s); t {
	case CmdIdle, CmdMove, CmdJump, CmdShortRest, CmdLongRest:
		return t, true
	}
	return "", false
}

// Command 不可变指令：构造后只读
type Command struct {
	timestamp int64
	pieceID   string
	typ       CommandType
	params    []Cell
}

// NewCommand 复制 params，调用方之后修改切片不影响指令
func NewCommand(ts int64, pieceID string, typ CommandType, params ...Cell) Command {
	p := make([]Cell, len(params))
	copy(p, params)
	return Command{timestamp: ts, pieceID: pieceID, typ: typ, params: p}
}

// NewAlgebraicCommand 参数为代数记号，如 "e2","e4"
func NewAlgebraicCommand(b Board, ts int64, pieceID string, typ CommandType, squares ...string) (Command, error) {
	cells := make([]Cell, 0, len(squares))
	for _, sq := range squares {
		c, err := b.AlgebraicToCell(sq)
		if err != nil {
			return Command{}, err
		}
		cells = append(cells, c)
	}
	return Command{timestamp: ts, pieceID: pieceID, typ: typ, params: cells}, nil
}

func (c Command) Timestamp() int64  { return c.timestamp }
func (c Command) PieceID() string   { return c.pieceID }
func (c Command) Type() CommandType { return c.typ }
func (c Command) NumParams() int    { return len(c.params) }

// Source 第一个参数；没有参数时 ok=false
func (c Command) Source() (Cell, bool) {
	if len(c.params) == 0 {
		return Cell{}, false
	}
	return c.params[0], true
}

// Destination jump 以及单参数指令的目的地即源格
func (c Command) Destination() (Cell, bool) {
	if len(c.params) == 0 {
		return Cell{}, false
	}
	if c.typ == CmdJump || len(c.params) == 1 {
		return c.params[0], true
	}
	return c.params[1], true
}

// WithPiece 返回绑定到指定棋子的新指令
func (c Command) WithPiece(id string) Command {
	return NewCommand(c.timestamp, id, c.typ, c.params...)
}

func (c Command) String() string {
	return fmt.Sprintf("%s@%d[%s %v]", c.typ, c.timestamp, c.pieceID, c.params)
}
