package engine

import "fmt"

// Factory 每种棋子代码构建一次状态图，之后所有棋子共享
type Factory struct {
	board  Board
	cfg    PhysicsConfig
	graphs map[Code]*StateGraph
}

// NewFactory tables 中缺失的代码不受走法限制
func NewFactory(board Board, cfg PhysicsConfig, tables Tables) (*Factory, error) {
	f := &Factory{board: board, cfg: cfg, graphs: make(map[Code]*StateGraph, 12)}
	for _, code := range AllCodes() {
		g, err := NewStateGraph(code, tables.Lookup(code), DefaultStates())
		if err != nil {
			return nil, err
		}
		f.graphs[code] = g
	}
	return f, nil
}

func (f *Factory) Board() Board          { return f.board }
func (f *Factory) Config() PhysicsConfig { return f.cfg }

// Graph 某代码的共享状态图
func (f *Factory) Graph(code Code) *StateGraph { return f.graphs[code] }

// CreatePiece 在 cell 处创建棋子，序号与实例编号取自 alloc
func (f *Factory) CreatePiece(code Code, cell Cell, alloc *SeqAllocator) (*Piece, error) {
	g, ok := f.graphs[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadCode, code)
	}
	if !f.board.IsValidCell(cell) {
		return nil, fmt.Errorf("%w: %s", ErrBadSquare, cell)
	}
	return NewPiece(alloc.InstanceID(code), alloc.Next(), g, f.board, f.cfg, cell), nil
}

// PromotionID "PW3" -> "QW3"
func PromotionID(id string, to Code) string {
	if len(id) < 2 {
		return to.String()
	}
	return to.String() + id[2:]
}
