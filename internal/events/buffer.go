package events

import "sync"

type message struct {
	Kind string
	Data []byte
}

// buffer is an unbounded FIFO of pending events, decoupling producers from
// a writer that may be slow.
type buffer struct {
	lock  sync.Mutex
	queue []*message
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.queue = append(b.queue, msg)
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	msg := b.queue[0]
	b.queue = b.queue[1:]
	return msg
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.queue)
}
