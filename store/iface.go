package store

import "time"

// Sink 对局记录的写入与查询；服务端只依赖此接口
type Sink interface {
	CreateMatch(id, room string, startedAt time.Time) error
	EndMatch(id, winner, reason string, endedAt time.Time) error
	GetMatch(id string) (*Match, error)
	LatestMatch(room string) (*Match, error)
	InsertMove(m MoveRecord) (int64, error)
	ListMoves(matchID string, limit int) ([]MoveRecord, error)
	InsertCapture(c CaptureRecord) (int64, error)
	ListCaptures(matchID string) ([]CaptureRecord, error)
	Close() error
}

var _ Sink = (*Store)(nil)
