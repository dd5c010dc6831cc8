package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"kungfuchess/protocol"
)

// ErrMalformed 无法解析或缺少字段的入站消息
var ErrMalformed = errors.New("malformed message")

// Input 客户端输入（意图），由房间循环按到达顺序处理
type Input struct {
	PlayerID PlayerID
	Msg      protocol.ClientMessage
}

// ParseInput 解析 WebSocket 文本消息
// 示例：{"action":"move","from":"e2","to":"e4","piece":"PW5"}
func ParseInput(payload []byte) (protocol.ClientMessage, error) {
	var msg protocol.ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch msg.Action {
	case protocol.ActionMove:
		if msg.From == "" || msg.To == "" {
			return msg, fmt.Errorf("%w: move without from/to", ErrMalformed)
		}
	case protocol.ActionGetState:
	default:
		return msg, fmt.Errorf("%w: unknown action %q", ErrMalformed, msg.Action)
	}
	return msg, nil
}
