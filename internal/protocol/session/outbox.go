package session

import "sync"

// Outbox is an unbounded FIFO of encoded frames bound for one endpoint. A single
// writer drains it, so frames leave in push order.
type Outbox struct {
	mu     sync.Mutex
	items  [][]byte
	ready  chan struct{}
	closed bool
}

func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

// Push enqueues b. It returns false once the outbox is closed.
func (o *Outbox) Push(b []byte) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.items = append(o.items, b)
	o.mu.Unlock()
	o.signal()
	return true
}

// Ready fires after a Push or Close.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Drain removes and returns every queued frame. closed reports whether the outbox
// has been closed; queued frames pushed before Close are still returned.
func (o *Outbox) Drain() (items [][]byte, closed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	items = o.items
	o.items = nil
	return items, o.closed
}

func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

func (o *Outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
