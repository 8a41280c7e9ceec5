package mesh

import "sync"

// opQueue is an unbounded FIFO of session operations. Producers never block,
// so a slow peer cannot stall the signaling read loop.
type opQueue struct {
	mu     sync.Mutex
	ops    []func()
	wake   chan struct{}
	closed bool
}

func newOpQueue() *opQueue {
	return &opQueue{wake: make(chan struct{}, 1)}
}

// push reports false once the queue is closed.
func (q *opQueue) push(op func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.ops = append(q.ops, op)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// close drops queued operations. The running one, if any, completes.
func (q *opQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.ops = nil
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run executes operations in order until the queue is closed.
func (q *opQueue) run() {
	for range q.wake {
		for {
			q.mu.Lock()
			if q.closed {
				q.mu.Unlock()
				return
			}
			if len(q.ops) == 0 {
				q.mu.Unlock()
				break
			}
			op := q.ops[0]
			q.ops[0] = nil
			q.ops = q.ops[1:]
			q.mu.Unlock()

			op()
		}
	}
}
