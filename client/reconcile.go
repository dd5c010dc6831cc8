package client

import (
	"encoding/json"

	"kungfuchess/engine"
	"kungfuchess/events"
	"kungfuchess/protocol"
)

// handleServer 在 Tick 协程中处理一条服务端消息；无法解析的消息丢弃
func (g *Game) handleServer(payload []byte, now int64) {
	var env protocol.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		g.log.Warnf("dropping malformed server message: %v", err)
		return
	}
	switch env.Type {
	case protocol.TypeAssignColor:
		var m protocol.AssignColor
		if g.decode(payload, &m) {
			if c, ok := engine.ParseColor(m.Color); ok {
				g.color, g.hasColor = c, true
				g.playerID = m.PlayerID
				g.log.Infof("assigned %s as %s", m.Color, m.PlayerID)
			}
		}
	case protocol.TypeFullState:
		var m protocol.FullState
		if g.decode(payload, &m) {
			g.started = m.GameStarted
			g.ApplyBoardState(m.Board)
		}
	case protocol.TypeMoveExecuted:
		var m protocol.MoveExecuted
		if g.decode(payload, &m) {
			g.ApplyServerMove(m, now)
		}
	case protocol.TypeGameStarted:
		g.started = true
		g.bus.Publish(events.Start{Timestamp: now})
	case protocol.TypeGameOver:
		var m protocol.GameOver
		if g.decode(payload, &m) {
			g.over, g.overAt, g.winner = true, now, m.Winner
			g.bus.Publish(events.End{Timestamp: now, Reason: m.Reason, Winner: m.Winner})
			g.log.Infof("game over: %s wins (%s)", m.Winner, m.Reason)
		}
	case protocol.TypeMoveError:
		var m protocol.MoveError
		if g.decode(payload, &m) {
			g.log.Warnf("server rejected move: %s", m.Message)
		}
	case protocol.TypePlayerDisconnected, protocol.TypeInfo, protocol.TypeError:
		g.log.Infof("server: %s", payload)
	default:
		g.log.Warnf("unknown server message type %q", env.Type)
	}
	if g.OnMessage != nil {
		g.publishView()
		g.OnMessage(env.Type, payload)
	}
}

func (g *Game) decode(payload []byte, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		g.log.Warnf("dropping malformed server message: %v", err)
		return false
	}
	return true
}

// pieceOn 物理所在格为 cell 的棋子，优先代码匹配者
func (g *Game) pieceOn(cell engine.Cell, code string) *engine.Piece {
	var fallback *engine.Piece
	for _, p := range g.pieces {
		if p.Cell() != cell {
			continue
		}
		if code == "" || p.Code().String() == code {
			return p
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback
}

// ApplyServerMove 可走则按走法表启动移动，否则直接传送；promoted 时换用后的状态图
func (g *Game) ApplyServerMove(m protocol.MoveExecuted, now int64) {
	b := g.cfg.Board
	src, err := b.AlgebraicToCell(m.From)
	if err != nil {
		g.log.Warnf("move_executed with bad from %q", m.From)
		return
	}
	dst, err := b.AlgebraicToCell(m.To)
	if err != nil {
		g.log.Warnf("move_executed with bad to %q", m.To)
		return
	}

	expect := m.Piece
	if m.Promoted {
		if c, err := engine.ParseCode(m.Piece); err == nil {
			expect = engine.Code{Type: engine.Pawn, Color: c.Color}.String()
		}
	}
	piece := g.pieceOn(src, expect)
	if piece == nil {
		g.log.Warnf("no local piece at %s for %s; resyncing from board_state", m.From, m.Piece)
		if m.BoardState != nil {
			g.ApplyBoardState(m.BoardState)
		}
		return
	}

	cmd := engine.NewCommand(now, piece.ID(), engine.CmdMove, src, dst)
	if !piece.OnCommand(cmd, now) {
		// 本地状态机不接受（冷却中或走法表外）：以服务端为准直接放置
		if m.Captured != nil {
			if victim := g.pieceOn(dst, *m.Captured); victim != nil && victim != piece {
				g.removePiece(victim)
				g.publishCapture(victim, piece, dst, now)
			}
		}
		piece.Teleport(dst)
		g.log.Debugf("teleported %s to %s", piece.ID(), m.To)
	}

	if m.Promoted && !piece.IsPromoted() {
		to := piece.Code().Promoted()
		piece.Promote(g.factory.Graph(to), engine.PromotionID(piece.ID(), to))
		g.log.Infof("%s promoted at %s", piece.ID(), m.To)
	}

	g.bus.Publish(events.Move{
		PieceID:   piece.ID(),
		Piece:     piece.Code(),
		From:      m.From,
		To:        m.To,
		Timestamp: now,
		Player:    piece.Color(),
		Promoted:  m.Promoted,
	})
	g.rebuildCells()
}

// ApplyBoardState 把本地棋子对齐到权威棋盘：原位的保留，同代码的传送，缺的新建，多余的移除
func (g *Game) ApplyBoardState(board map[string]string) {
	b := g.cfg.Board
	want := make(map[engine.Cell]engine.Code, len(board))
	for sq, s := range board {
		cell, err := b.AlgebraicToCell(sq)
		if err != nil {
			g.log.Warnf("full_state: bad square %q", sq)
			continue
		}
		code, err := engine.ParseCode(s)
		if err != nil {
			g.log.Warnf("full_state: bad code %q at %s", s, sq)
			continue
		}
		want[cell] = code
	}

	matched := make(map[*engine.Piece]bool, len(g.pieces))
	var missing []engine.Cell
	for _, cell := range engine.Placement(want).Cells() {
		code := want[cell]
		found := false
		for _, p := range g.pieces {
			if !matched[p] && p.Cell() == cell && p.Code() == code {
				matched[p] = true
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, cell)
		}
	}

	for _, cell := range missing {
		code := want[cell]
		var reuse *engine.Piece
		for _, p := range g.pieces {
			if !matched[p] && p.Code() == code {
				reuse = p
				break
			}
		}
		if reuse != nil {
			reuse.Teleport(cell)
			matched[reuse] = true
			continue
		}
		p, err := g.factory.CreatePiece(code, cell, g.alloc)
		if err != nil {
			g.log.Warnf("full_state: %v", err)
			continue
		}
		g.pieces = append(g.pieces, p)
		matched[p] = true
	}

	live := g.pieces[:0]
	for _, p := range g.pieces {
		if matched[p] {
			live = append(live, p)
		}
	}
	g.pieces = live
	g.rebuildCells()
	g.publishView()
}
