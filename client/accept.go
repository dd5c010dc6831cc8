package client

import (
	"fmt"

	"kungfuchess/engine"
	"kungfuchess/protocol"
)

// occupancy 上一次结算后的格 -> 代码视图
func (g *Game) occupancy() engine.CellMap {
	occ := make(engine.CellMap, len(g.cells))
	for c, p := range g.cells {
		occ[c] = p.Code()
	}
	return occ
}

// Accept 本地受理：原地动作立即执行（local=true），跨格走子发往服务端
func (g *Game) Accept(cmd engine.Command, now int64) (local bool, err error) {
	src, ok := cmd.Source()
	if !ok {
		return false, fmt.Errorf("%w: command without source", engine.ErrNoPiece)
	}
	dst := src
	if cmd.Type() != engine.CmdJump {
		if d, ok := cmd.Destination(); ok {
			dst = d
		}
	}

	piece, ok := g.cells[src]
	if !ok {
		return false, fmt.Errorf("%w: %s", engine.ErrNoPiece, g.cfg.Board.CellToAlgebraic(src))
	}
	if piece.Physics().Kind == engine.PhysicsLongRest {
		return false, fmt.Errorf("%w: %s", engine.ErrCooldown, piece.ID())
	}

	code := piece.Code()
	occ := g.occupancy()
	if err := engine.CheckPawnShape(code, src, dst, occ); err != nil {
		return false, err
	}
	if err := engine.CheckDestination(code, src, dst, occ); err != nil {
		return false, err
	}
	if code.Type != engine.Pawn && code.Type != engine.Knight {
		if err := engine.CheckPath(src, dst, occ); err != nil {
			return false, err
		}
	}
	if g.hasColor {
		if err := engine.CheckOwner(code, g.color); err != nil {
			return false, err
		}
	}

	if src == dst || cmd.Type() == engine.CmdJump {
		bound := cmd.WithPiece(piece.ID())
		if !piece.OnCommand(bound, now) {
			return false, fmt.Errorf("%w: %s cannot %s now", engine.ErrIllegalMove, piece.ID(), cmd.Type())
		}
		return true, nil
	}

	if g.sender == nil {
		return false, ErrNotConnected
	}
	msg := protocol.ClientMessage{
		Action: protocol.ActionMove,
		From:   g.cfg.Board.CellToAlgebraic(src),
		To:     g.cfg.Board.CellToAlgebraic(dst),
		Piece:  piece.ID(),
	}
	if err := g.sender.Send(msg); err != nil {
		return false, fmt.Errorf("send move: %w", err)
	}
	g.log.Debugf("sent move %s %s->%s", msg.Piece, msg.From, msg.To)
	return false, nil
}

// RequestState 请求服务端重发 full_state
func (g *Game) RequestState() error {
	if g.sender == nil {
		return ErrNotConnected
	}
	return g.sender.Send(protocol.ClientMessage{Action: protocol.ActionGetState})
}
