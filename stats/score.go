package stats

import (
	"sync"

	"kungfuchess/engine"
	"kungfuchess/events"
)

// CapturedPiece 吃子记录
type CapturedPiece struct {
	Piece     string `json:"piece"`
	Points    int    `json:"points"`
	Timestamp int64  `json:"timestamp"`
}

// ScoreBoard 按吃子方颜色累计分值
type ScoreBoard struct {
	mu       sync.Mutex
	scores   [2]int
	captured [2][]CapturedPiece
}

func NewScoreBoard() *ScoreBoard { return &ScoreBoard{} }

func (s *ScoreBoard) Attach(bus *events.Bus) func() {
	return events.On(bus, s.OnCapture)
}

func (s *ScoreBoard) OnCapture(c events.Capture) {
	by := c.By.Color
	points := c.Captured.Type.Value()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[by] += points
	s.captured[by] = append(s.captured[by], CapturedPiece{
		Piece:     c.CapturedID,
		Points:    points,
		Timestamp: c.Timestamp,
	})
}

func (s *ScoreBoard) Score(c engine.Color) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[c]
}

// Difference 正数白方领先
func (s *ScoreBoard) Difference() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[engine.White] - s.scores[engine.Black]
}

// Scores full_state.score 的线上格式
func (s *ScoreBoard) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{
		engine.White.String(): s.scores[engine.White],
		engine.Black.String(): s.scores[engine.Black],
	}
}

// Captured c 方吃掉的棋子
func (s *ScoreBoard) Captured(c engine.Color) []CapturedPiece {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CapturedPiece(nil), s.captured[c]...)
}
