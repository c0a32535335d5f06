package chunkmodel

import "sync"

// FrameQueue is a Scheduler whose callbacks run when the host calls Flush,
// once per rendered frame.
type FrameQueue struct {
	mu      sync.Mutex
	pending []func()
}

// RequestFrame queues fn for the next Flush.
func (q *FrameQueue) RequestFrame(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

// Flush runs the callbacks queued so far and returns how many ran.
// Callbacks queued while flushing wait for the following frame.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of callbacks waiting for a frame.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
