package events

import (
	"sync"
	"time"
)

// Bus 进程内事件广播。订阅者各自持有带缓冲的通道；
// 慢订阅者的事件会被丢弃而不是阻塞发布方（热路径不等待消费者）。
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

const subscriberBuffer = 64

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe 返回事件通道和取消函数。取消后通道会被关闭。
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish 广播一个事件（非阻塞）。
func (b *Bus) Publish(typ Type, payload any) {
	ev := Event{Type: typ, Timestamp: time.Now(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// 订阅者落后太多：丢弃
		}
	}
}
