package audio

import (
	"sync"
	"sync/atomic"
)

// Frame is a fixed-duration chunk of PCM samples. Seq increases by one for
// every frame produced by the capture device, including frames that are
// later dropped by the queue, so gaps in Seq reveal drops.
type Frame struct {
	Seq  uint64
	Data []byte
}

// FrameQueue is a bounded single-producer single-consumer queue between the
// capture callback and the streaming sender. On overflow it drops the oldest
// queued frame rather than blocking the audio callback.
type FrameQueue struct {
	ch      chan Frame
	dropped atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewFrameQueue creates a queue holding at most size frames.
func NewFrameQueue(size int) *FrameQueue {
	return &FrameQueue{ch: make(chan Frame, size)}
}

// Push enqueues a frame, evicting the oldest frame if the queue is full.
// Pushes after Close are silently discarded.
func (q *FrameQueue) Push(f Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	for {
		select {
		case q.ch <- f:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Frames returns the consumer side of the queue. The channel is closed when
// the queue is closed; frames already queued remain readable.
func (q *FrameQueue) Frames() <-chan Frame {
	return q.ch
}

// Dropped reports how many frames were evicted due to backpressure.
func (q *FrameQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close closes the queue. Safe to call more than once.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
