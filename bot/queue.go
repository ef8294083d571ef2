package bot

import (
	"sync"

	"github.com/user/wabot/internal/whatsapp"
)

// eventQueue is an unbounded FIFO between the transport callback and the
// single consumer in Run. push never blocks.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []whatsapp.ChatEvent
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends ev and returns the queue depth. Events pushed after close are dropped.
func (q *eventQueue) push(ev whatsapp.ChatEvent) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
	return len(q.items)
}

// pop blocks until an event is available or the queue is closed. It also
// returns the number of events still waiting.
func (q *eventQueue) pop() (whatsapp.ChatEvent, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return whatsapp.ChatEvent{}, 0, false
	}
	ev := q.items[0]
	q.items[0] = whatsapp.ChatEvent{}
	q.items = q.items[1:]
	return ev, len(q.items), true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}
