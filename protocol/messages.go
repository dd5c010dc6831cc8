// Package protocol 定义客户端与服务端之间的 JSON 消息
package protocol

import (
	"encoding/json"

	"kungfuchess/stats"
)

// 客户端动作
const (
	ActionMove     = "move"
	ActionGetState = "get_state"
)

// 服务端消息类型
const (
	TypeAssignColor        = "assign_color"
	TypeFullState          = "full_state"
	TypeMoveExecuted       = "move_executed"
	TypeGameStarted        = "game_started"
	TypeGameOver           = "game_over"
	TypeMoveError          = "move_error"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
	TypeInfo               = "info"
)

// ClientMessage 客户端 -> 服务端
// 示例：{"action":"move","from":"e2","to":"e4","piece":"PW5"}
type ClientMessage struct {
	Action string `json:"action" jsonschema:"enum=move,enum=get_state"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Piece  string `json:"piece,omitempty"`
}

// Envelope 只解析 type，用于分派
type Envelope struct {
	Type string `json:"type"`
}

type AssignColor struct {
	Type     string `json:"type"`
	Color    string `json:"color" jsonschema:"enum=white,enum=black"`
	PlayerID string `json:"player_id"`
}

type FullState struct {
	Type        string            `json:"type"`
	Board       map[string]string `json:"board"`
	GameStarted bool              `json:"game_started"`
	MoveHistory []stats.MoveEntry `json:"move_history"`
	Score       map[string]int    `json:"score"`
}

// MoveExecuted Captured 为空时编码为 null
type MoveExecuted struct {
	Type       string            `json:"type"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Piece      string            `json:"piece"`
	Captured   *string           `json:"captured"`
	Promoted   bool              `json:"promoted"`
	BoardState map[string]string `json:"board_state"`
}

type GameStarted struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type GameOver struct {
	Type   string `json:"type"`
	Winner string `json:"winner" jsonschema:"enum=white,enum=black"`
	Reason string `json:"reason"`
}

type MoveError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PlayerDisconnected struct {
	Type   string `json:"type"`
	Player string `json:"player"`
	Color  string `json:"color"`
}

// Notice 用于 error 与 info
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode 编码失败只可能来自程序错误，直接 panic
func Encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
