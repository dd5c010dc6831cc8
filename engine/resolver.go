package engine

import "sort"

// Capture 一次位置碰撞的结果
type Capture struct {
	Captured  *Piece
	By        *Piece
	Cell      Cell
	Timestamp int64
}

// Resolution 单个 tick 的结算结果
type Resolution struct {
	Occupancy map[Cell]*Piece // 每格至多一个幸存者
	Captures  []Capture
	Outside   []*Piece // 位置不在棋盘内的棋子，不参与本次结算
}

// Wins 同格冲突时 a 是否胜出：
// 进行中的动作胜过空闲/休息；都在动作中或都不在时，开始时间早者胜；
// 开始时间相同则序号小者胜
func Wins(a, b *Piece) bool {
	aBusy, bBusy := a.Busy(), b.Busy()
	if aBusy != bBusy {
		return aBusy
	}
	as, bs := a.physics.StartTime(), b.physics.StartTime()
	if as != bs {
		return as < bs
	}
	return a.seq < b.seq
}

// ResolvePositions 先对所有棋子取同一快照的位置，再逐格结算；不修改任何棋子
func ResolvePositions(board Board, pieces []*Piece, now int64) Resolution {
	ordered := append([]*Piece(nil), pieces...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	type placed struct {
		p    *Piece
		cell Cell
	}
	snapshot := make([]placed, 0, len(ordered))
	res := Resolution{Occupancy: make(map[Cell]*Piece, len(ordered))}
	for _, p := range ordered {
		cell, ok := board.WorldToCell(p.physics.Position())
		if !ok {
			res.Outside = append(res.Outside, p)
			continue
		}
		snapshot = append(snapshot, placed{p: p, cell: cell})
	}

	for _, s := range snapshot {
		occupant, taken := res.Occupancy[s.cell]
		if !taken {
			res.Occupancy[s.cell] = s.p
			continue
		}
		winner, loser := occupant, s.p
		if Wins(s.p, occupant) {
			winner, loser = s.p, occupant
		}
		res.Occupancy[s.cell] = winner
		res.Captures = append(res.Captures, Capture{Captured: loser, By: winner, Cell: s.cell, Timestamp: now})
	}

	// 三方及以上冲突时，先被吃者的 By 可能已在同一格落败，改记为最终胜者
	for i := range res.Captures {
		res.Captures[i].By = res.Occupancy[res.Captures[i].Cell]
	}
	return res
}
