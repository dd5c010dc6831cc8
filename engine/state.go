package engine

import (
	"fmt"
)

// StateSpec 状态节点：只读、多个棋子共享；物理实例由 Piece 持有
type StateSpec struct {
	Name    CommandType
	Physics PhysicsKind
	// Next 有序转移表；Next[0] 在物理结束时自动触发
	Next []CommandType
}

func (s *StateSpec) Accepts(t CommandType) bool {
	for _, n := range s.Next {
		if n == t {
			return true
		}
	}
	return false
}

// StateGraph 某一棋子代码的状态机拓扑与走法表
type StateGraph struct {
	Code   Code
	Moves  *Moves // nil 表示不限制
	states map[CommandType]*StateSpec
}

// DefaultStates idle -> move -> long_rest -> idle，idle -> jump -> short_rest -> idle
func DefaultStates() []StateSpec {
	return []StateSpec{
		{Name: CmdIdle, Physics: PhysicsIdle, Next: []CommandType{CmdMove, CmdJump}},
		{Name: CmdMove, Physics: PhysicsMove, Next: []CommandType{CmdLongRest}},
		{Name: CmdJump, Physics: PhysicsJump, Next: []CommandType{CmdShortRest}},
		{Name: CmdShortRest, Physics: PhysicsShortRest, Next: []CommandType{CmdIdle}},
		{Name: CmdLongRest, Physics: PhysicsLongRest, Next: []CommandType{CmdIdle}},
	}
}

// NewStateGraph 校验：必须有 idle；所有转移目标存在；会结束的状态至少有一个转移
func NewStateGraph(code Code, moves *Moves, specs []StateSpec) (*StateGraph, error) {
	g := &StateGraph{Code: code, Moves: moves, states: make(map[CommandType]*StateSpec, len(specs))}
	for i := range specs {
		s := specs[i]
		s.Next = append([]CommandType(nil), s.Next...)
		g.states[s.Name] = &s
	}
	if _, ok := g.states[CmdIdle]; !ok {
		return nil, fmt.Errorf("state graph %s: missing idle state", code)
	}
	for name, s := range g.states {
		if s.Physics != PhysicsIdle && len(s.Next) == 0 {
			return nil, fmt.Errorf("state graph %s: state %s has no completion transition", code, name)
		}
		for _, n := range s.Next {
			if _, ok := g.states[n]; !ok {
				return nil, fmt.Errorf("state graph %s: %s -> %s: unknown state", code, name, n)
			}
		}
	}
	return g, nil
}

// State 按名字取节点
func (g *StateGraph) State(name CommandType) (*StateSpec, bool) {
	s, ok := g.states[name]
	return s, ok
}

func (g *StateGraph) Initial() *StateSpec { return g.states[CmdIdle] }
