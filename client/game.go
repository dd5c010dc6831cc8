// Package client 实现客户端本地循环：棋子物理推进、碰撞结算、本地指令受理与服务端对账
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"kungfuchess/engine"
	"kungfuchess/events"
	"kungfuchess/protocol"
	"kungfuchess/stats"
)

var (
	ErrNotConnected = errors.New("not connected to a server")
	ErrQueueFull    = errors.New("command queue full")
)

// Sender 把跨格走子交给权威服务端
type Sender interface {
	Send(msg protocol.ClientMessage) error
}

// Config 客户端本地规则与物理参数
type Config struct {
	Board     engine.Board
	Physics   engine.PhysicsConfig
	Tables    engine.Tables
	Placement engine.Placement
	// Linger game_over 之后继续运行的时间
	Linger time.Duration
}

func DefaultConfig() Config {
	b := engine.DefaultBoard()
	return Config{
		Board:     b,
		Physics:   engine.DefaultPhysicsConfig(),
		Tables:    engine.DefaultTables(b),
		Placement: engine.DefaultPlacement(),
		Linger:    3 * time.Second,
	}
}

// Game 棋子图只由 Tick 所在协程修改；输入与服务端消息经队列进入
type Game struct {
	cfg     Config
	factory *engine.Factory
	alloc   *engine.SeqAllocator
	pieces  []*engine.Piece
	cells   map[engine.Cell]*engine.Piece // 每个 tick 由物理位置重建

	bus     *events.Bus
	History *stats.History
	Score   *stats.ScoreBoard
	Victory *stats.Victory

	sender   Sender
	color    engine.Color
	hasColor bool
	playerID string
	started  bool
	over     bool
	overAt   int64
	winner   string
	lastTick int64

	commands chan engine.Command
	inbox    chan []byte
	done     chan struct{}
	stopOnce sync.Once

	// OnMessage 每条服务端消息处理后回调，可为 nil
	OnMessage func(typ string, payload []byte)

	viewMu sync.RWMutex
	view   map[string]string

	log *zap.SugaredLogger
}

// NewGame 按摆放表建子；sender 为 nil 时只能执行原地动作
func NewGame(cfg Config, sender Sender, log *zap.SugaredLogger) (*Game, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f, err := engine.NewFactory(cfg.Board, cfg.Physics, cfg.Tables)
	if err != nil {
		return nil, err
	}
	g := &Game{
		cfg:      cfg,
		factory:  f,
		alloc:    engine.NewSeqAllocator(),
		cells:    make(map[engine.Cell]*engine.Piece),
		bus:      events.NewBus(log),
		History:  stats.NewHistory(),
		Score:    stats.NewScoreBoard(),
		Victory:  stats.NewVictory(),
		sender:   sender,
		commands: make(chan engine.Command, 64),
		inbox:    make(chan []byte, 64),
		done:     make(chan struct{}),
		log:      log,
	}
	g.History.Attach(g.bus)
	g.Score.Attach(g.bus)
	g.Victory.Attach(g.bus)

	for _, cell := range cfg.Placement.Cells() {
		p, err := f.CreatePiece(cfg.Placement[cell], cell, g.alloc)
		if err != nil {
			return nil, err
		}
		g.pieces = append(g.pieces, p)
	}
	g.rebuildCells()
	g.publishView()
	return g, nil
}

func (g *Game) Bus() *events.Bus { return g.bus }

// Color ok=false 表示尚未收到 assign_color
func (g *Game) Color() (engine.Color, bool) { return g.color, g.hasColor }

func (g *Game) PlayerID() string { return g.playerID }
func (g *Game) Started() bool    { return g.started }

// Over game_over 之后为 true
func (g *Game) Over() bool { return g.over }

// Winner 服务端宣布的胜方
func (g *Game) Winner() string { return g.winner }

// Pieces 当前存活的棋子（仅供 Tick 协程使用）
func (g *Game) Pieces() []*engine.Piece {
	return append([]*engine.Piece(nil), g.pieces...)
}

// PieceAt 上一次结算后占据 cell 的棋子
func (g *Game) PieceAt(c engine.Cell) (*engine.Piece, bool) {
	p, ok := g.cells[c]
	return p, ok
}

// View 代数记号 -> 棋子代码，可在任意协程读取
func (g *Game) View() map[string]string {
	g.viewMu.RLock()
	defer g.viewMu.RUnlock()
	out := make(map[string]string, len(g.view))
	for k, v := range g.view {
		out[k] = v
	}
	return out
}

// Submit 输入协程调用；不修改任何棋子状态
func (g *Game) Submit(cmd engine.Command) error {
	select {
	case g.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Deliver 网络读协程调用；消息在下一个 Tick 开头处理。Stop 之后直接丢弃
func (g *Game) Deliver(payload []byte) {
	select {
	case g.inbox <- payload:
	case <-g.done:
	}
}

// Stop 循环不再推进；阻塞中的 Deliver 随之返回
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.done) })
}

// Tick 服务端消息 -> 物理推进 -> 碰撞结算 -> 本地指令
func (g *Game) Tick(now int64) {
	g.lastTick = now
	g.drainInbox(now)
	for _, p := range g.pieces {
		p.Update(now)
	}
	g.resolve(now)
	g.drainCommands(now)
	g.publishView()
}

// Done game_over 之后 linger 时间已过
func (g *Game) Done(now int64) bool {
	return g.over && now-g.overAt >= g.cfg.Linger.Milliseconds()
}

func (g *Game) drainInbox(now int64) {
	for {
		select {
		case payload := <-g.inbox:
			g.handleServer(payload, now)
		default:
			return
		}
	}
}

func (g *Game) drainCommands(now int64) {
	for {
		select {
		case cmd := <-g.commands:
			if _, err := g.Accept(cmd, now); err != nil {
				g.log.Debugf("command %s rejected: %v", cmd, err)
			}
		default:
			return
		}
	}
}

// resolve 以同一快照结算所有碰撞，再统一移除被吃的棋子
func (g *Game) resolve(now int64) {
	res := engine.ResolvePositions(g.cfg.Board, g.pieces, now)
	g.cells = res.Occupancy
	if len(res.Captures) == 0 {
		return
	}
	dead := make(map[*engine.Piece]bool, len(res.Captures))
	for _, c := range res.Captures {
		dead[c.Captured] = true
	}
	live := g.pieces[:0]
	for _, p := range g.pieces {
		if !dead[p] {
			live = append(live, p)
		}
	}
	g.pieces = live
	for _, c := range res.Captures {
		g.publishCapture(c.Captured, c.By, c.Cell, c.Timestamp)
	}
}

func (g *Game) publishCapture(captured, by *engine.Piece, cell engine.Cell, ts int64) {
	ev := events.Capture{
		CapturedID: captured.ID(),
		Captured:   captured.Code(),
		ByID:       by.ID(),
		By:         by.Code(),
		Position:   g.cfg.Board.CellToAlgebraic(cell),
		Timestamp:  ts,
	}
	g.log.Infof("%s captured by %s at %s", ev.CapturedID, ev.ByID, ev.Position)
	g.bus.Publish(ev)
	if captured.Code().IsKing() {
		g.bus.Publish(events.KingCapture{Capture: ev})
	}
}

func (g *Game) rebuildCells() {
	g.cells = engine.ResolvePositions(g.cfg.Board, g.pieces, g.lastTick).Occupancy
}

func (g *Game) removePiece(target *engine.Piece) {
	for i, p := range g.pieces {
		if p == target {
			g.pieces = append(g.pieces[:i], g.pieces[i+1:]...)
			return
		}
	}
}

func (g *Game) publishView() {
	view := make(map[string]string, len(g.cells))
	for c, p := range g.cells {
		view[g.cfg.Board.CellToAlgebraic(c)] = p.Code().String()
	}
	g.viewMu.Lock()
	g.view = view
	g.viewMu.Unlock()
}

// KingsRemaining 少于两个王即分出胜负
func (g *Game) KingsRemaining() int {
	n := 0
	for _, p := range g.pieces {
		if p.Code().IsKing() {
			n++
		}
	}
	return n
}

// Run 按 period 推进，直到 ctx 结束或 game_over 后 linger 到期
func (g *Game) Run(ctx context.Context, period time.Duration) {
	defer g.Stop()
	start := time.Now()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case t := <-ticker.C:
			now := t.Sub(start).Milliseconds()
			g.Tick(now)
			if g.Done(now) {
				return
			}
		}
	}
}
