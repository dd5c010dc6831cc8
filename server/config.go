package server

import (
	"fmt"
	"strings"
)

// DisconnectPolicy 对局中有玩家断线时的处理方式
type DisconnectPolicy string

const (
	// PolicyContinue 剩余玩家继续对局
	PolicyContinue DisconnectPolicy = "continue"
	// PolicyPause 暂停，直到有新玩家注册
	PolicyPause DisconnectPolicy = "pause"
	// PolicyEnd 向剩余玩家广播 game_over
	PolicyEnd DisconnectPolicy = "end"
)

// ParseDisconnectPolicy 空字符串视为 continue
func ParseDisconnectPolicy(s string) (DisconnectPolicy, error) {
	switch p := DisconnectPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyContinue, nil
	case PolicyContinue, PolicyPause, PolicyEnd:
		return p, nil
	}
	return "", fmt.Errorf("unknown disconnect policy %q (want continue|pause|end)", s)
}

// RoomConfig 可通过 /admin/config 热更新
type RoomConfig struct {
	OnDisconnect DisconnectPolicy `json:"on_disconnect"`
	HistoryLen   int              `json:"history_len"`
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{OnDisconnect: PolicyContinue, HistoryLen: 10}
}
