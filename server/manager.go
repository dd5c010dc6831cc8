package server

import (
	"errors"
	"sync"

	"kungfuchess/engine"
	"kungfuchess/store"
)

// Options 新房间的棋盘、规则与持久化；Sink 为 nil 时不持久化
type Options struct {
	Board     engine.Board
	Placement engine.Placement
	Tables    engine.Tables
	Config    RoomConfig
	Sink      store.Sink
}

// DefaultOptions 内置开局与走法表
func DefaultOptions() Options {
	b := engine.DefaultBoard()
	return Options{
		Board:     b,
		Placement: engine.DefaultPlacement(),
		Tables:    engine.DefaultTables(b),
		Config:    DefaultRoomConfig(),
	}
}

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	opts   Options
	closed bool
}

var errManagerClosed = errors.New("server shutting down")

func NewRoomManager(opts Options) *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room), opts: opts}
}

// Sink 可能为 nil
func (m *RoomManager) Sink() store.Sink { return m.opts.Sink }

// GetOrCreateRoom 获取或创建房间，并确保循环已启动
func (m *RoomManager) GetOrCreateRoom(id string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errManagerClosed
	}
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.opts)
		if id != DefaultRoom {
			r.onIdle = func(r *Room) { go m.reap(r) }
		}
		m.rooms[id] = r
		r.Start()
	}
	return r, nil
}

// reap 移除空闲房间并停止其循环；期间有人加入则保留
func (m *RoomManager) reap(r *Room) {
	m.mu.Lock()
	if cur, ok := m.rooms[r.ID]; m.closed || !ok || cur != r || r.players.Load() != 0 || r.started.Load() {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, r.ID)
	m.mu.Unlock()
	r.Stop()
	Log.Infof("room %s reaped: empty", r.ID)
}

// Room 只查找，不创建
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Rooms 所有房间的状态
func (m *RoomManager) Rooms() []RoomStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomStatus, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Status())
	}
	return out
}

// Close 停止所有房间，之后的连接被拒绝
func (m *RoomManager) Close() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
