package stats

import (
	"sync"

	"kungfuchess/engine"
	"kungfuchess/events"
)

// Victory 只监听 king_captured
type Victory struct {
	mu        sync.Mutex
	announced bool
	winner    engine.Color
	at        int64
}

func NewVictory() *Victory { return &Victory{} }

func (v *Victory) Attach(bus *events.Bus) func() {
	return events.On(bus, v.OnKingCaptured)
}

// OnKingCaptured 第一次吃王决定胜者，之后忽略
func (v *Victory) OnKingCaptured(k events.KingCapture) {
	if !k.Captured.IsKing() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.announced {
		return
	}
	v.announced = true
	v.winner = k.Captured.Color.Opposite()
	v.at = k.Timestamp
}

func (v *Victory) IsVictory() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.announced
}

// Winner ok=false 表示尚未分出胜负
func (v *Victory) Winner() (engine.Color, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.winner, v.announced
}

// Message 如 "WHITE WINS!"
func (v *Victory) Message() string {
	w, ok := v.Winner()
	if !ok {
		return ""
	}
	if w == engine.White {
		return "WHITE WINS!"
	}
	return "BLACK WINS!"
}
