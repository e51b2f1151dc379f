package coordinator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity is the capacity used when none is configured.
const DefaultQueueCapacity = 100

// QueueEntry is a message accepted by the queue.
type QueueEntry struct {
	ID         uint64    `json:"id"`
	Message    string    `json:"message"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Receipt acknowledges a successful enqueue.
type Receipt struct {
	EntryID   uint64 `json:"entryId"`
	QueueSize int    `json:"queueSize"`
}

// Queue is a bounded FIFO ring buffer. Enqueue never blocks: when the queue
// is full the message is rejected and the overflow counter incremented.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	buf      []QueueEntry
	head     int // index of the oldest entry
	size     int
	nextID   uint64
	overflow atomic.Uint64
	accepted atomic.Uint64
	now      func() time.Time
}

// NewQueue creates a queue holding at most capacity entries. A non-positive
// capacity uses DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		buf: make([]QueueEntry, capacity),
		now: time.Now,
	}
}

// Enqueue appends message. It returns a *ConcurrencyError wrapping
// ErrQueueFull when the queue is at capacity.
func (q *Queue) Enqueue(message string) (Receipt, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.buf) {
		q.overflow.Add(1)
		return Receipt{QueueSize: q.size}, &ConcurrencyError{
			Op:     "enqueue",
			Reason: ErrQueueFull,
			Detail: fmt.Sprintf("capacity %d", len(q.buf)),
		}
	}

	q.nextID++
	tail := (q.head + q.size) % len(q.buf)
	q.buf[tail] = QueueEntry{ID: q.nextID, Message: message, EnqueuedAt: q.now()}
	q.size++
	q.accepted.Add(1)

	return Receipt{EntryID: q.nextID, QueueSize: q.size}, nil
}

// Dequeue removes and returns the oldest entry.
func (q *Queue) Dequeue() (QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return QueueEntry{}, false
	}
	e := q.pop()
	return e, true
}

// Drain removes up to max entries (all when max <= 0), oldest first.
func (q *Queue) Drain(max int) []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.size
	if max > 0 && max < n {
		n = max
	}
	out := make([]QueueEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, q.pop())
	}
	return out
}

func (q *Queue) pop() QueueEntry {
	e := q.buf[q.head]
	q.buf[q.head] = QueueEntry{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return e
}

// Snapshot returns the queued entries, oldest first, without removing them.
func (q *Queue) Snapshot() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]QueueEntry, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Overflows returns how many enqueues were rejected.
func (q *Queue) Overflows() uint64 {
	return q.overflow.Load()
}

// Accepted returns how many enqueues succeeded.
func (q *Queue) Accepted() uint64 {
	return q.accepted.Load()
}
