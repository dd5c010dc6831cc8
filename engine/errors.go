package engine

import "errors"

var (
	ErrBadSquare   = errors.New("invalid square")
	ErrBadCode     = errors.New("invalid piece code")
	ErrNoPiece     = errors.New("no piece at source")
	ErrCooldown    = errors.New("piece is cooling down")
	ErrPawnShape   = errors.New("illegal pawn move")
	ErrOwnPiece    = errors.New("destination occupied by own piece")
	ErrBlocked     = errors.New("path is blocked")
	ErrWrongColor  = errors.New("piece belongs to the other player")
	ErrIllegalMove = errors.New("illegal move")
)
