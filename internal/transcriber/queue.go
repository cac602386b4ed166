package transcriber

import "sync"

// subtitleQueue is an unbounded FIFO with a single producer and a single
// consumer. notify holds at most one wake-up token.
type subtitleQueue struct {
	mu     sync.Mutex
	items  []Subtitle
	notify chan struct{}
}

func newSubtitleQueue() *subtitleQueue {
	return &subtitleQueue{notify: make(chan struct{}, 1)}
}

func (q *subtitleQueue) push(s Subtitle) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *subtitleQueue) pop() (Subtitle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Subtitle{}, false
	}
	s := q.items[0]
	q.items[0] = Subtitle{}
	q.items = q.items[1:]
	return s, true
}

func (q *subtitleQueue) drain() []Subtitle {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *subtitleQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
