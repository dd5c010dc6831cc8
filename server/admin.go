package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"kungfuchess/protocol"
	"kungfuchess/store"
)

func roomParam(r *http.Request) string {
	id := r.URL.Query().Get("room")
	if id == "" {
		id = DefaultRoom
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAdminConfig 提供房间配置的读取与更新
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	// 只查找：房间由 /ws 接入创建
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	type patch struct {
		OnDisconnect *string `json:"on_disconnect,omitempty"`
		HistoryLen   *int    `json:"history_len,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, room.Config())
	case http.MethodPost:
		var body patch
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cfg := room.Config()
		if body.OnDisconnect != nil {
			p, err := ParseDisconnectPolicy(*body.OnDisconnect)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			cfg.OnDisconnect = p
		}
		if body.HistoryLen != nil {
			if *body.HistoryLen < 0 {
				http.Error(w, "history_len must be >= 0", http.StatusBadRequest)
				return
			}
			cfg.HistoryLen = *body.HistoryLen
		}
		room.SetConfig(cfg)
		Log.Infof("config updated: room=%s on_disconnect=%s history_len=%d", roomID, cfg.OnDisconnect, cfg.HistoryLen)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": cfg})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标；不带 room 时列出所有房间
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		rooms := m.Rooms()
		sort.Slice(rooms, func(i, j int) bool { return rooms[i].Room < rooms[j].Room })
		writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
		return
	}
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  room.Status(),
		"metrics": room.Metrics().Snapshot(),
	})
}

// HandleHistory 当前（或最近一局）对局的持久化走子
// GET /history?room=room-1&limit=50
func (m *RoomManager) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sink := m.Sink()
	if sink == nil {
		http.Error(w, "persistence disabled", http.StatusNotFound)
		return
	}
	roomID := roomParam(r)
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	matchID := ""
	if room, ok := m.Room(roomID); ok {
		matchID = room.MatchID()
	}
	if matchID == "" {
		latest, err := sink.LatestMatch(roomID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no matches for room", http.StatusNotFound)
			return
		}
		if err != nil {
			Log.Errorf("history %s: %v", roomID, err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		matchID = latest.ID
	}

	match, err := sink.GetMatch(matchID)
	if err != nil {
		Log.Errorf("history %s: %v", roomID, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	moves, err := sink.ListMoves(matchID, limit)
	if err != nil {
		Log.Errorf("history %s: %v", roomID, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	captures, err := sink.ListCaptures(matchID)
	if err != nil {
		Log.Errorf("history %s: %v", roomID, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if moves == nil {
		moves = []store.MoveRecord{}
	}
	if captures == nil {
		captures = []store.CaptureRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"match":    match,
		"moves":    moves,
		"captures": captures,
	})
}

// HandleSchema 所有线上消息的 JSON Schema
func HandleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.Schema())
}

// Routes 服务端全部 HTTP 入口
func Routes(m *RoomManager) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/metrics", m.HandleMetrics)
	mux.HandleFunc("/history", m.HandleHistory)
	mux.HandleFunc("/schema", HandleSchema)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
