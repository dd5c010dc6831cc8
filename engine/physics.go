package engine

import (
	"math"
)

// PhysicsKind 物理模型的判别字段
type PhysicsKind uint8

const (
	PhysicsIdle PhysicsKind = iota
	PhysicsMove
	PhysicsJump
	PhysicsShortRest
	PhysicsLongRest
)

func (k PhysicsKind) String() string {
	switch k {
	case PhysicsIdle:
		return "idle"
	case PhysicsMove:
		return "move"
	case PhysicsJump:
		return "jump"
	case PhysicsShortRest:
		return "short_rest"
	case PhysicsLongRest:
		return "long_rest"
	}
	return "unknown"
}

// Forever Idle 的时长：永不自行结束
const Forever int64 = -1

// PhysicsConfig 各物理模型的常量
type PhysicsConfig struct {
	SpeedCellsPerSec float64
	JumpMs           int64
	ShortRestMs      int64
	LongRestMs       int64
}

// DefaultPhysicsConfig 移动 1 格/秒，跳跃 1s，短休 1s，长休 3s
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		SpeedCellsPerSec: 1,
		JumpMs:           1000,
		ShortRestMs:      1000,
		LongRestMs:       3000,
	}
}

// Physics 按 Kind 区分的时间驱动位置模型，值语义，由 Piece 独占
type Physics struct {
	Kind PhysicsKind

	board Board
	cfg   PhysicsConfig

	startCell Cell
	endCell   Cell
	startPos  Point
	endPos    Point
	curPos    Point

	startTime int64
	duration  int64
	finished  bool
}

// NewPhysics 在 cell 处构造一个静止的模型
func NewPhysics(kind PhysicsKind, board Board, cfg PhysicsConfig, cell Cell) Physics {
	p := Physics{Kind: kind, board: board, cfg: cfg}
	p.place(cell)
	p.duration = p.fixedDuration()
	return p
}

func (p *Physics) place(cell Cell) {
	p.startCell, p.endCell = cell, cell
	p.startPos = p.board.CellToWorld(cell)
	p.endPos = p.startPos
	p.curPos = p.startPos
}

func (p *Physics) fixedDuration() int64 {
	switch p.Kind {
	case PhysicsJump:
		return p.cfg.JumpMs
	case PhysicsShortRest:
		return p.cfg.ShortRestMs
	case PhysicsLongRest:
		return p.cfg.LongRestMs
	case PhysicsIdle:
		return Forever
	}
	return 0
}

// Reset 以指令重新初始化：起点取第一个参数，move 的终点取第二个参数
func (p *Physics) Reset(cmd Command, now int64) {
	start := p.endCell
	if src, ok := cmd.Source(); ok {
		start = src
	}
	p.place(start)
	p.startTime = now
	p.finished = false
	p.duration = p.fixedDuration()

	if p.Kind != PhysicsMove {
		return
	}
	dst, ok := cmd.Destination()
	if !ok {
		dst = start
	}
	p.endCell = dst
	p.endPos = p.board.CellToWorld(dst)
	dist := math.Hypot(float64(dst.Row-start.Row), float64(dst.Col-start.Col))
	speed := p.cfg.SpeedCellsPerSec
	if speed <= 0 {
		speed = 1
	}
	p.duration = int64(math.Round(dist / speed * 1000))
}

// Update 推进到 now；finished 只会从 false 变为 true 一次，直到下一次 Reset
func (p *Physics) Update(now int64) {
	if p.finished {
		return
	}
	if p.duration == Forever {
		return
	}
	elapsed := now - p.startTime
	if elapsed < 0 {
		elapsed = 0
	}
	if p.Kind == PhysicsMove && p.duration > 0 {
		t := math.Min(float64(elapsed)/float64(p.duration), 1)
		p.curPos = Point{
			X: p.startPos.X + (p.endPos.X-p.startPos.X)*t,
			Y: p.startPos.Y + (p.endPos.Y-p.startPos.Y)*t,
		}
	}
	if elapsed >= p.duration {
		p.curPos = p.endPos
		p.finished = true
	}
}

func (p *Physics) Finished() bool   { return p.finished }
func (p *Physics) StartTime() int64 { return p.startTime }
func (p *Physics) Duration() int64  { return p.duration }
func (p *Physics) StartCell() Cell  { return p.startCell }
func (p *Physics) Position() Point  { return p.curPos }

// Cell 已结束时为终点格，否则为起点格
func (p *Physics) Cell() Cell {
	if p.finished {
		return p.endCell
	}
	return p.startCell
}

// Teleport 服务端对账时直接放置到 cell，不改变 Kind 与计时
func (p *Physics) Teleport(cell Cell) {
	p.place(cell)
}
