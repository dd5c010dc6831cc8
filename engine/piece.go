package engine

// Piece 唯一可变的实体：只通过 OnCommand / Update 修改
type Piece struct {
	id       string
	code     Code
	seq      int64
	graph    *StateGraph
	state    *StateSpec
	physics  Physics
	current  *Command
	promoted bool
}

// NewPiece 从 idle 开始，位于 cell
func NewPiece(id string, seq int64, graph *StateGraph, board Board, cfg PhysicsConfig, cell Cell) *Piece {
	start := graph.Initial()
	return &Piece{
		id:      id,
		code:    graph.Code,
		seq:     seq,
		graph:   graph,
		state:   start,
		physics: NewPhysics(start.Physics, board, cfg, cell),
	}
}

func (p *Piece) ID() string             { return p.id }
func (p *Piece) Code() Code             { return p.code }
func (p *Piece) Seq() int64             { return p.seq }
func (p *Piece) Color() Color           { return p.code.Color }
func (p *Piece) IsPromoted() bool       { return p.promoted }
func (p *Piece) StateName() CommandType { return p.state.Name }
func (p *Piece) Physics() *Physics      { return &p.physics }

// Command 当前指令；初始为空
func (p *Piece) Command() (Command, bool) {
	if p.current == nil {
		return Command{}, false
	}
	return *p.current, true
}

// Busy 当前指令是否为进行中的动作
func (p *Piece) Busy() bool {
	return p.current != nil && p.current.Type().Active()
}

// Cell 当前所在格（依物理模型）
func (p *Piece) Cell() Cell { return p.physics.Cell() }

// IsCommandPossible 转移表必须包含指令类型；long_rest 期间拒绝 move/jump；
// move 还要求目的地在走法表可达集合内
func (p *Piece) IsCommandPossible(cmd Command) bool {
	if !p.state.Accepts(cmd.Type()) {
		return false
	}
	if p.physics.Kind == PhysicsLongRest && cmd.Type().Active() {
		return false
	}
	if cmd.Type() != CmdMove {
		return true
	}
	dst, ok := cmd.Destination()
	if !ok {
		return false
	}
	return p.graph.Moves.Allows(p.physics.StartCell(), dst)
}

// OnCommand 合法时切换状态并以 cmd 重置新物理模型
func (p *Piece) OnCommand(cmd Command, now int64) bool {
	if !p.IsCommandPossible(cmd) {
		return false
	}
	next, ok := p.graph.State(cmd.Type())
	if !ok {
		return false
	}
	phys := NewPhysics(next.Physics, p.physics.board, p.physics.cfg, p.physics.Cell())
	phys.Reset(cmd, now)
	c := cmd
	p.current = &c
	p.state = next
	p.physics = phys
	return true
}

// Update 推进物理；结束时自动触发第一个转移，起点为最后所在格
func (p *Piece) Update(now int64) {
	p.physics.Update(now)
	if !p.physics.Finished() || len(p.state.Next) == 0 {
		return
	}
	cell := p.physics.Cell()
	p.OnCommand(NewCommand(now, p.id, p.state.Next[0], cell, cell), now)
}

// Teleport 对账：直接把棋子放到 cell
func (p *Piece) Teleport(cell Cell) {
	p.physics.Teleport(cell)
}

// Promote 换用后的状态图，保留当前状态名与物理实例
func (p *Piece) Promote(graph *StateGraph, newID string) {
	if s, ok := graph.State(p.state.Name); ok {
		p.state = s
	} else {
		p.state = graph.Initial()
	}
	p.graph = graph
	p.code = graph.Code
	p.id = newID
	p.promoted = true
}
