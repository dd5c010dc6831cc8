package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kungfuchess/events"
)

const recorderBuffer = 256

// Recorder 把总线事件异步写入 Sink，写库不阻塞对局循环
type Recorder struct {
	sink    Sink
	matchID string
	room    string
	log     *zap.SugaredLogger

	jobs    chan func() error
	unsubs  []func()
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewRecorder 生成对局 id 并写入 matches；失败时不订阅任何事件
func NewRecorder(sink Sink, room string, log *zap.SugaredLogger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Recorder{
		sink:    sink,
		matchID: uuid.NewString(),
		room:    room,
		log:     log,
		jobs:    make(chan func() error, recorderBuffer),
	}
	if err := sink.CreateMatch(r.matchID, room, time.Now()); err != nil {
		return nil, err
	}
	r.wg.Add(1)
	go r.run()
	return r, nil
}

func (r *Recorder) MatchID() string { return r.matchID }

// Attach 订阅 move_made、piece_captured、game_end
func (r *Recorder) Attach(bus *events.Bus) {
	r.unsubs = append(r.unsubs,
		events.On(bus, r.onMove),
		events.On(bus, r.onCapture),
		events.On(bus, r.onEnd),
	)
}

func (r *Recorder) onMove(m events.Move) {
	rec := MoveRecord{
		MatchID:   r.matchID,
		PieceID:   m.PieceID,
		PieceType: m.Piece.String(),
		From:      m.From,
		To:        m.To,
		Player:    m.Player.String(),
		Promoted:  m.Promoted,
		Timestamp: m.Timestamp,
	}
	r.enqueue(func() error {
		_, err := r.sink.InsertMove(rec)
		return err
	})
}

func (r *Recorder) onCapture(c events.Capture) {
	rec := CaptureRecord{
		MatchID:    r.matchID,
		CapturedID: c.CapturedID,
		Captured:   c.Captured.String(),
		ByID:       c.ByID,
		By:         c.By.String(),
		Position:   c.Position,
		Timestamp:  c.Timestamp,
	}
	r.enqueue(func() error {
		_, err := r.sink.InsertCapture(rec)
		return err
	})
}

func (r *Recorder) onEnd(e events.End) {
	at := time.Now()
	r.enqueue(func() error {
		return r.sink.EndMatch(r.matchID, e.Winner, e.Reason, at)
	})
}

// enqueue 缓冲满时丢弃并计数
func (r *Recorder) enqueue(job func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.jobs <- job:
	default:
		r.dropped++
		r.log.Warnf("recorder %s: buffer full, record dropped", r.matchID)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for job := range r.jobs {
		if err := job(); err != nil {
			r.log.Errorf("recorder %s: %v", r.matchID, err)
		}
	}
}

// Dropped 因缓冲满丢弃的记录数
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close 取消订阅，写完缓冲中的记录后返回
func (r *Recorder) Close() {
	for _, u := range r.unsubs {
		u()
	}
	r.unsubs = nil

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}
