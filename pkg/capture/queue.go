package capture

import "sync"

// serialQueue runs posted functions one at a time in posting order.
//
// There is no dedicated goroutine: the first poster drains the queue and
// anyone posting meanwhile (another goroutine, or a handler re-entering)
// only appends.
type serialQueue struct {
	mu       sync.Mutex
	pending  []func()
	draining bool
	closed   bool
}

// post enqueues fn and drains the queue unless someone else already is.
// It returns false if the queue is closed.
func (q *serialQueue) post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, fn)
	if q.draining {
		q.mu.Unlock()
		return true
	}
	q.draining = true

	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		next()

		q.mu.Lock()
	}
	q.draining = false
	q.pending = nil
	q.mu.Unlock()
	return true
}

// close drops pending functions and rejects further posts.
func (q *serialQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.mu.Unlock()
}
