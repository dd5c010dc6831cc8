package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	MessagesIn     int64 // 处理的入站消息数
	MovesAccepted  int64 // 执行成功的走子
	MovesRejected  int64 // 回复 move_error 的走子
	Malformed      int64 // 无法解析而丢弃的消息
	Broadcasts     int64 // 广播次数
	SendDropped    int64 // 因发送队列满而断开的连接
	Joins          int64 // 成功注册的玩家
	RoomFull       int64 // 因满员被拒绝的连接
	Disconnects    int64 // 断线的玩家
	TotalProcessNs int64 // 消息处理累计耗时（纳秒）
}

func (m *RoomMetrics) IncMalformed()   { atomic.AddInt64(&m.Malformed, 1) }
func (m *RoomMetrics) IncAccepted()    { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *RoomMetrics) IncRejected()    { atomic.AddInt64(&m.MovesRejected, 1) }
func (m *RoomMetrics) IncBroadcast()   { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) IncSendDropped() { atomic.AddInt64(&m.SendDropped, 1) }
func (m *RoomMetrics) IncJoin()        { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncRoomFull()    { atomic.AddInt64(&m.RoomFull, 1) }
func (m *RoomMetrics) IncDisconnect()  { atomic.AddInt64(&m.Disconnects, 1) }
func (m *RoomMetrics) AddProcess(ns int64) {
	atomic.AddInt64(&m.MessagesIn, 1)
	atomic.AddInt64(&m.TotalProcessNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	n := atomic.LoadInt64(&m.MessagesIn)
	total := atomic.LoadInt64(&m.TotalProcessNs)
	var avgMs float64
	if n > 0 {
		avgMs = float64(total) / float64(n) / 1e6
	}
	return map[string]any{
		"messages_in":    n,
		"moves_accepted": atomic.LoadInt64(&m.MovesAccepted),
		"moves_rejected": atomic.LoadInt64(&m.MovesRejected),
		"malformed":      atomic.LoadInt64(&m.Malformed),
		"broadcasts":     atomic.LoadInt64(&m.Broadcasts),
		"send_dropped":   atomic.LoadInt64(&m.SendDropped),
		"joins":          atomic.LoadInt64(&m.Joins),
		"room_full":      atomic.LoadInt64(&m.RoomFull),
		"disconnects":    atomic.LoadInt64(&m.Disconnects),
		"avg_process_ms": avgMs,
	}
}
