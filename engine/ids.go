package engine

import "fmt"

// SeqAllocator 由开局上下文持有并传入棋子构造，序号单调递增且不复用
type SeqAllocator struct {
	next      int64
	instances map[Code]int
}

func NewSeqAllocator() *SeqAllocator {
	return &SeqAllocator{instances: make(map[Code]int)}
}

// Next 下一个唯一序号
func (a *SeqAllocator) Next() int64 {
	a.next++
	return a.next
}

// InstanceID 代码 + 该代码的实例编号，如 "PW3"
func (a *SeqAllocator) InstanceID(code Code) string {
	a.instances[code]++
	return fmt.Sprintf("%s%d", code, a.instances[code])
}
