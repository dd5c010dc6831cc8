// Package stats 汇总对局事件：走子记录、比分与胜负
package stats

import (
	"sync"
	"time"

	"kungfuchess/engine"
	"kungfuchess/events"
)

// MoveEntry 走子记录，字段名即 full_state.move_history 的线上格式
type MoveEntry struct {
	MoveNumber int    `json:"move_number"`
	PieceID    string `json:"piece_id"`
	PieceType  string `json:"piece_type"`
	From       string `json:"from"`
	To         string `json:"to"`
	Timestamp  int64  `json:"timestamp"`
	Player     string `json:"player"`
	Promoted   bool   `json:"promoted,omitempty"`
	Time       string `json:"time"`
}

// History 订阅 move_made
type History struct {
	mu    sync.Mutex
	moves []MoveEntry
	now   func() time.Time
}

func NewHistory() *History {
	return &History{now: time.Now}
}

// Attach 注册到总线
func (h *History) Attach(bus *events.Bus) func() {
	return events.On(bus, h.OnMove)
}

func (h *History) OnMove(m events.Move) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moves = append(h.moves, MoveEntry{
		MoveNumber: len(h.moves) + 1,
		PieceID:    m.PieceID,
		PieceType:  m.Piece.String(),
		From:       m.From,
		To:         m.To,
		Timestamp:  m.Timestamp,
		Player:     m.Player.String(),
		Promoted:   m.Promoted,
		Time:       h.now().Format("15:04:05"),
	})
}

// Moves 全部记录的副本
func (h *History) Moves() []MoveEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]MoveEntry(nil), h.moves...)
}

// Last 最近 n 条
func (h *History) Last(n int) []MoveEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 {
		return []MoveEntry{}
	}
	start := len(h.moves) - n
	if start < 0 {
		start = 0
	}
	return append([]MoveEntry{}, h.moves[start:]...)
}

// ByColor 某一方的记录
func (h *History) ByColor(c engine.Color) []MoveEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []MoveEntry
	for _, m := range h.moves {
		if m.Player == c.String() {
			out = append(out, m)
		}
	}
	return out
}
