package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"kungfuchess/engine"
	"kungfuchess/events"
	"kungfuchess/protocol"
	"kungfuchess/store"
)

// DefaultRoom 未指定 ?room= 时使用
const DefaultRoom = "room-1"

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room closed")
)

const (
	startMessage = "The game has started! No turns: move whenever you want."
	fullMessage  = "Both players connected: the game is on!"
	pauseMessage = "Game paused: waiting for a player to join."
)

type joinRequest struct {
	conn  *ClientConn
	reply chan joinResult
}

type joinResult struct {
	id  PlayerID
	err error
}

// Room 一局对局：两个颜色席位，权威状态只由循环协程修改
type Room struct {
	ID string

	opts     Options
	state    *GameState
	seats    [2]*Player // 按颜色索引
	nextSeq  int
	recorder *store.Recorder

	joinChan  chan joinRequest
	inputChan chan Input
	leaveChan chan PlayerID
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once

	loopStarted bool

	cfgMu sync.RWMutex
	cfg   RoomConfig

	// onIdle 由管理器设置；房间空且未在对局中时在循环协程内调用
	onIdle func(*Room)

	metrics *RoomMetrics
	players atomic.Int32
	started atomic.Bool
	matchID atomic.Value

	log *zap.SugaredLogger
}

// NewRoom 创建房间，初始化数据结构；需调用 Start 启动循环
func NewRoom(id string, opts Options) *Room {
	r := &Room{
		ID:        id,
		opts:      opts,
		joinChan:  make(chan joinRequest),
		inputChan: make(chan Input, 256), // 足够缓冲，避免网络读阻塞
		leaveChan: make(chan PlayerID, 8),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		cfg:       opts.Config,
		metrics:   &RoomMetrics{},
		log:       Log.With("room", id),
	}
	r.matchID.Store("")
	r.newGame()
	return r
}

func (r *Room) newGame() {
	bus := events.NewBus(r.log)
	r.state = NewGameState(r.opts.Board, r.opts.Placement, r.opts.Tables, bus, r.log)
	r.started.Store(false)
}

// Config 当前配置副本
func (r *Room) Config() RoomConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

func (r *Room) SetConfig(c RoomConfig) {
	r.cfgMu.Lock()
	r.cfg = c
	r.cfgMu.Unlock()
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// RoomStatus 供 HTTP 读取，不经过循环协程
type RoomStatus struct {
	Room    string `json:"room"`
	Players int    `json:"players"`
	Started bool   `json:"game_started"`
	MatchID string `json:"match_id,omitempty"`
}

func (r *Room) Status() RoomStatus {
	return RoomStatus{
		Room:    r.ID,
		Players: int(r.players.Load()),
		Started: r.started.Load(),
		MatchID: r.MatchID(),
	}
}

// MatchID 当前对局的持久化 id；未启用持久化时为空
func (r *Room) MatchID() string {
	id, _ := r.matchID.Load().(string)
	return id
}

// Join 在循环协程中分配席位；满员返回 ErrRoomFull
func (r *Room) Join(conn *ClientConn) (PlayerID, error) {
	req := joinRequest{conn: conn, reply: make(chan joinResult, 1)}
	select {
	case r.joinChan <- req:
	case <-r.done:
		return "", ErrRoomClosed
	}
	select {
	case res := <-req.reply:
		return res.id, res.err
	case <-r.done:
		return "", ErrRoomClosed
	}
}

// OnInput 按到达顺序排队；队列满时阻塞该连接的读协程，不丢弃
func (r *Room) OnInput(in Input) {
	select {
	case r.inputChan <- in:
	case <-r.done:
	}
}

// RequestLeave 请求在循环协程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(pid PlayerID) {
	select {
	case r.leaveChan <- pid:
	case <-r.done:
	}
}

func (r *Room) count() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) playerByID(id PlayerID) *Player {
	for _, p := range r.seats {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// freeSeat 先白后黑
func (r *Room) freeSeat() (engine.Color, bool) {
	for _, c := range []engine.Color{engine.White, engine.Black} {
		if r.seats[c] == nil {
			return c, true
		}
	}
	return 0, false
}

func (r *Room) handleJoin(req joinRequest) {
	color, ok := r.freeSeat()
	if !ok {
		r.metrics.IncRoomFull()
		req.reply <- joinResult{err: ErrRoomFull}
		return
	}
	r.nextSeq++
	p := &Player{
		ID:      PlayerID(fmt.Sprintf("player_%d", r.nextSeq)),
		Color:   color,
		Session: req.conn.session,
		Conn:    req.conn,
	}
	r.seats[color] = p
	r.players.Store(int32(r.count()))
	r.metrics.IncJoin()
	req.reply <- joinResult{id: p.ID}
	r.log.Infof("player %s (%s) joined as %s", p.ID, p.Session, color)

	r.send(p, protocol.AssignColor{Type: protocol.TypeAssignColor, Color: color.String(), PlayerID: string(p.ID)})
	r.send(p, r.state.FullState(r.Config().HistoryLen))

	if !r.state.Started() && !r.state.Over() {
		r.startMatch()
		r.broadcast(protocol.GameStarted{Type: protocol.TypeGameStarted, Message: startMessage})
	}
	if r.count() == 2 {
		r.broadcast(protocol.Notice{Type: protocol.TypeInfo, Message: fullMessage})
	}
}

// startMatch 首次开始时创建持久化记录；暂停后恢复沿用同一 match id
func (r *Room) startMatch() {
	if r.recorder == nil && r.opts.Sink != nil {
		rec, err := store.NewRecorder(r.opts.Sink, r.ID, r.log)
		if err != nil {
			r.log.Errorf("persistence disabled for this match: %v", err)
		} else {
			rec.Attach(r.state.Bus())
			r.recorder = rec
			r.matchID.Store(rec.MatchID())
		}
	}
	r.state.StartGame(startMessage)
	r.started.Store(true)
}

func (r *Room) handleLeave(id PlayerID) {
	p := r.playerByID(id)
	if p == nil {
		return
	}
	r.remove(p, "connection closed")
}

// remove 关闭连接并按断线策略处理对局
func (r *Room) remove(p *Player, why string) {
	if r.seats[p.Color] != p {
		return
	}
	r.seats[p.Color] = nil
	r.players.Store(int32(r.count()))
	defer r.notifyIdle()
	p.Conn.Close()
	r.metrics.IncDisconnect()
	r.log.Infof("player %s (%s) left: %s", p.ID, p.Color, why)

	r.broadcast(protocol.PlayerDisconnected{Type: protocol.TypePlayerDisconnected, Player: string(p.ID), Color: p.Color.String()})

	if r.state.Over() {
		if r.count() == 0 {
			r.resetMatch()
		}
		return
	}
	if !r.state.Started() {
		return
	}
	switch r.Config().OnDisconnect {
	case PolicyPause:
		r.state.Pause()
		r.started.Store(false)
		r.broadcast(protocol.Notice{Type: protocol.TypeInfo, Message: pauseMessage})
	case PolicyEnd:
		r.endMatch("opponent_disconnected", p.Color.Opposite().String())
	}
}

func (r *Room) notifyIdle() {
	if r.onIdle != nil && r.count() == 0 && !r.state.Started() {
		r.onIdle(r)
	}
}

// resetMatch 对局结束且无人在线时换新棋盘
func (r *Room) resetMatch() {
	if r.recorder != nil {
		r.recorder.Close()
		r.recorder = nil
	}
	r.matchID.Store("")
	r.newGame()
	r.log.Infof("room reset for a new match")
}

func (r *Room) endMatch(reason, winner string) {
	r.state.End(reason, winner)
	r.started.Store(false)
	r.broadcast(protocol.GameOver{Type: protocol.TypeGameOver, Winner: winner, Reason: reason})
}

// handleInput 每条消息处理完毕后才取下一条
func (r *Room) handleInput(in Input) {
	p := r.playerByID(in.PlayerID)
	if p == nil {
		return
	}
	switch in.Msg.Action {
	case protocol.ActionGetState:
		r.send(p, r.state.FullState(r.Config().HistoryLen))
	case protocol.ActionMove:
		res, err := r.state.ExecuteMove(in.Msg.From, in.Msg.To, in.Msg.Piece, p.Color)
		if err != nil {
			r.metrics.IncRejected()
			r.log.Debugf("move %s->%s by %s rejected: %v", in.Msg.From, in.Msg.To, p.ID, err)
			r.send(p, protocol.MoveError{Type: protocol.TypeMoveError, Message: err.Error()})
			return
		}
		r.metrics.IncAccepted()
		r.log.Debugf("move %s %s->%s by %s", res.Piece, res.From, res.To, p.ID)
		r.broadcast(res)
		if w, ok := r.state.Victory.Winner(); ok {
			r.endMatch("king_captured", w.String())
		}
	}
}

// send 单发；队列满视为连接失效
func (r *Room) send(p *Player, v any) {
	if !p.Conn.Enqueue(protocol.Encode(v)) {
		r.metrics.IncSendDropped()
		r.remove(p, "send queue full")
	}
}

// broadcast 一个连接失败不影响其他连接的投递
func (r *Room) broadcast(v any) {
	b := protocol.Encode(v)
	r.metrics.IncBroadcast()
	var failed []*Player
	for _, p := range r.seats {
		if p == nil {
			continue
		}
		if !p.Conn.Enqueue(b) {
			failed = append(failed, p)
		}
	}
	for _, p := range failed {
		r.metrics.IncSendDropped()
		r.remove(p, "send queue full")
	}
}
