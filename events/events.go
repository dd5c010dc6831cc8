package events

import "kungfuchess/engine"

// Kind 事件类型
type Kind string

const (
	MoveMade      Kind = "move_made"
	PieceCaptured Kind = "piece_captured"
	KingCaptured  Kind = "king_captured"
	GameStarted   Kind = "game_start"
	GameEnded     Kind = "game_end"
)

// Event 所有事件载荷都实现 Kind
type Event interface {
	Kind() Kind
}

// Move 一步棋已执行
type Move struct {
	PieceID   string
	Piece     engine.Code
	From      string
	To        string
	Timestamp int64
	Player    engine.Color
	Promoted  bool
}

func (Move) Kind() Kind { return MoveMade }

// Capture 棋子被吃
type Capture struct {
	CapturedID string
	Captured   engine.Code
	ByID       string
	By         engine.Code
	Position   string
	Timestamp  int64
}

func (Capture) Kind() Kind { return PieceCaptured }

// KingCapture 王被吃，唯一的胜负信号
type KingCapture struct {
	Capture
}

func (KingCapture) Kind() Kind { return KingCaptured }

// Start 对局开始
type Start struct {
	Timestamp int64
	Message   string
}

func (Start) Kind() Kind { return GameStarted }

// End 对局结束；Winner 为空表示无胜者
type End struct {
	Timestamp int64
	Reason    string
	Winner    string
}

func (End) Kind() Kind { return GameEnded }
