package server

import "kungfuchess/engine"

// PlayerID 表示玩家唯一标识，房间内按注册顺序分配 player_N
type PlayerID string

// Player 房间内占据一个颜色席位的连接
type Player struct {
	ID      PlayerID
	Color   engine.Color
	Session string // 连接级 uuid，仅用于日志关联

	Conn *ClientConn // 网络连接的发送端（写协程）
}
