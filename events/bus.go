package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler 订阅者就是普通函数
type Handler func(Event)

type subscription struct {
	id int64
	fn Handler
}

// Bus 进程内发布/订阅：按事件类型分发，同步调用
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	nextID int64
	log    *zap.SugaredLogger
}

func NewBus(log *zap.SugaredLogger) *Bus {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bus{subs: make(map[Kind][]subscription), log: log}
}

// Subscribe 返回取消订阅函数
func (b *Bus) Subscribe(kind Kind, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// On 按载荷类型订阅
func On[T Event](b *Bus, fn func(T)) func() {
	var zero T
	return b.Subscribe(zero.Kind(), func(e Event) {
		if v, ok := e.(T); ok {
			fn(v)
		}
	})
}

// Publish 按订阅顺序调用；单个订阅者 panic 不影响其余订阅者。返回成功调用数
func (b *Bus) Publish(e Event) int {
	b.mu.RLock()
	list := append([]subscription(nil), b.subs[e.Kind()]...)
	b.mu.RUnlock()

	if len(list) == 0 {
		b.log.Debugf("no subscribers for %s", e.Kind())
		return 0
	}
	delivered := 0
	for _, s := range list {
		if b.call(e, s.fn) {
			delivered++
		}
	}
	return delivered
}

func (b *Bus) call(e Event, fn Handler) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("event handler for %s panicked: %v", e.Kind(), r)
			ok = false
		}
	}()
	fn(e)
	return true
}

// Count 某类型的订阅者数量
func (b *Bus) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
