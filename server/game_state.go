package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kungfuchess/engine"
	"kungfuchess/events"
	"kungfuchess/protocol"
	"kungfuchess/stats"
)

// MoveRejected 非法走子；Reason 原样作为 move_error.message
type MoveRejected struct {
	Reason string
}

func (e *MoveRejected) Error() string { return e.Reason }
func (e *MoveRejected) Unwrap() error { return engine.ErrIllegalMove }

// GameState 服务端权威棋盘：代数记号 -> 棋子代码，无连续物理
type GameState struct {
	board   engine.Board
	initial map[string]engine.Code
	squares map[string]engine.Code
	tables  engine.Tables

	bus     *events.Bus
	History *stats.History
	Score   *stats.ScoreBoard
	Victory *stats.Victory

	started   bool
	over      bool
	startTime time.Time
	now       func() time.Time
	log       *zap.SugaredLogger
}

// NewGameState 订阅者在此注册，之后按 move_made -> piece_captured -> king_captured 顺序收到事件
func NewGameState(board engine.Board, placement engine.Placement, tables engine.Tables, bus *events.Bus, log *zap.SugaredLogger) *GameState {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if bus == nil {
		bus = events.NewBus(log)
	}
	g := &GameState{
		board:   board,
		initial: placement.Squares(board),
		tables:  tables,
		bus:     bus,
		History: stats.NewHistory(),
		Score:   stats.NewScoreBoard(),
		Victory: stats.NewVictory(),
		now:     time.Now,
		log:     log,
	}
	g.History.Attach(bus)
	g.Score.Attach(bus)
	g.Victory.Attach(bus)
	g.squares = copySquares(g.initial)
	return g
}

func copySquares(in map[string]engine.Code) map[string]engine.Code {
	out := make(map[string]engine.Code, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (g *GameState) Bus() *events.Bus { return g.bus }
func (g *GameState) Started() bool    { return g.started }
func (g *GameState) Over() bool       { return g.over }

// StartGame 已开始时返回 false
func (g *GameState) StartGame(message string) bool {
	if g.started || g.over {
		return false
	}
	if g.startTime.IsZero() {
		g.startTime = g.now()
	}
	g.started = true
	g.bus.Publish(events.Start{Timestamp: g.elapsedMs(), Message: message})
	g.log.Infof("game started")
	return true
}

// Pause 暂停后 IsValidMove 拒绝所有走子，StartGame 可恢复
func (g *GameState) Pause() {
	g.started = false
}

// End 对局结束，不可再开始
func (g *GameState) End(reason, winner string) {
	if g.over {
		return
	}
	g.over = true
	g.started = false
	g.bus.Publish(events.End{Timestamp: g.elapsedMs(), Reason: reason, Winner: winner})
	g.log.Infof("game over: reason=%s winner=%s", reason, winner)
}

func (g *GameState) elapsedMs() int64 {
	if g.startTime.IsZero() {
		return 0
	}
	return g.now().Sub(g.startTime).Milliseconds()
}

// At 某格的棋子代码
func (g *GameState) At(square string) (engine.Code, bool) {
	code, ok := g.squares[square]
	return code, ok
}

// BoardState 只含有子的格，编码为 "PW" 形式
func (g *GameState) BoardState() map[string]string {
	out := make(map[string]string, len(g.squares))
	for sq, code := range g.squares {
		out[sq] = code.String()
	}
	return out
}

// IsValidMove 只有马受走法表约束，其余棋子不受限
func (g *GameState) IsValidMove(from, to, piece string, color engine.Color) (bool, string) {
	if g.over {
		return false, "game is over"
	}
	if !g.started {
		return false, "game has not started"
	}
	src, err := g.board.AlgebraicToCell(from)
	if err != nil {
		return false, fmt.Sprintf("invalid square %q", from)
	}
	dst, err := g.board.AlgebraicToCell(to)
	if err != nil {
		return false, fmt.Sprintf("invalid square %q", to)
	}
	from, to = g.board.CellToAlgebraic(src), g.board.CellToAlgebraic(dst)
	code, ok := g.squares[from]
	if !ok {
		return false, fmt.Sprintf("no piece at %s", from)
	}
	if err := engine.CheckOwner(code, color); err != nil {
		return false, "cannot move the other player's piece"
	}
	if from == to {
		return false, "cannot move a piece onto its own square"
	}
	if code.Type == engine.Knight {
		if err := engine.CheckDelta(g.tables.Lookup(code), code, src, dst); err != nil {
			return false, fmt.Sprintf("illegal knight move for %s", code)
		}
	}
	return true, "ok"
}

// canonical 棋盘键与广播只使用标准写法；无法解析时原样返回，由 IsValidMove 拒绝
func (g *GameState) canonical(sq string) string {
	c, err := g.board.AlgebraicToCell(sq)
	if err != nil {
		return sq
	}
	return g.board.CellToAlgebraic(c)
}

// ShouldPromotePawn 白兵到第 8 横线、黑兵到第 1 横线
func (g *GameState) ShouldPromotePawn(code engine.Code, to string) bool {
	if code.Type != engine.Pawn {
		return false
	}
	dst, err := g.board.AlgebraicToCell(to)
	if err != nil {
		return false
	}
	if code.Color == engine.White {
		return dst.Row == 0
	}
	return dst.Row == g.board.Rows-1
}

// ExecuteMove 非法时返回 *MoveRejected，棋盘不变
func (g *GameState) ExecuteMove(from, to, piece string, color engine.Color) (protocol.MoveExecuted, error) {
	from, to = g.canonical(from), g.canonical(to)
	if ok, reason := g.IsValidMove(from, to, piece, color); !ok {
		return protocol.MoveExecuted{}, &MoveRejected{Reason: reason}
	}

	captured, hadCapture := g.squares[to]
	code := g.squares[from]
	delete(g.squares, from)

	promoted := false
	if g.ShouldPromotePawn(code, to) {
		code = code.Promoted()
		promoted = true
	}
	g.squares[to] = code

	ts := g.elapsedMs()
	g.bus.Publish(events.Move{
		PieceID:   piece,
		Piece:     code,
		From:      from,
		To:        to,
		Timestamp: ts,
		Player:    color,
		Promoted:  promoted,
	})

	result := protocol.MoveExecuted{
		Type:       protocol.TypeMoveExecuted,
		From:       from,
		To:         to,
		Piece:      code.String(),
		Promoted:   promoted,
		BoardState: g.BoardState(),
	}
	if hadCapture {
		capt := events.Capture{
			CapturedID: captured.String(),
			Captured:   captured,
			ByID:       piece,
			By:         code,
			Position:   to,
			Timestamp:  ts,
		}
		g.bus.Publish(capt)
		if captured.IsKing() {
			g.bus.Publish(events.KingCapture{Capture: capt})
		}
		s := captured.String()
		result.Captured = &s
	}
	if promoted {
		g.log.Infof("pawn promoted at %s -> %s", to, code)
	}
	return result, nil
}

// FullState history 为 move_history 保留的条数
func (g *GameState) FullState(history int) protocol.FullState {
	return protocol.FullState{
		Type:        protocol.TypeFullState,
		Board:       g.BoardState(),
		GameStarted: g.started,
		MoveHistory: g.History.Last(history),
		Score:       g.Score.Scores(),
	}
}

// IsRejection err 是否为非法走子
func IsRejection(err error) bool {
	var r *MoveRejected
	return errors.As(err, &r)
}
