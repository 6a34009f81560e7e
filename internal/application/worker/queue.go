package worker

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

type Operation string

const (
	OpInitialize Operation = "INITIALIZE"
	OpAuthorize  Operation = "AUTHORIZE"
	OpConfirm    Operation = "CONFIRM"
	OpCancel     Operation = "CANCEL"
	OpExpire     Operation = "EXPIRE"
)

// Item is one lifecycle operation waiting for a worker. Lower Priority
// values are dequeued first; equal priorities keep FIFO order.
type Item struct {
	PaymentID  string
	Operation  Operation
	Payload    any
	EnqueuedAt time.Time
	Priority   int
}

var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded, backpressured queue of lifecycle operations. Enqueue
// blocks when full. Dequeue honors a global in-flight cap and never hands
// out an item whose payment identity is already being processed, so mutating
// operations for one identity are serialized.
type Queue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []Item
	capacity    int
	maxInFlight int
	inFlight    map[string]struct{}
	closed      bool
}

func NewQueue(capacity, maxInFlight int) *Queue {
	q := &Queue{
		capacity:    capacity,
		maxInFlight: maxInFlight,
		inFlight:    make(map[string]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue blocks while the queue is full. It fails once the queue has been
// closed for shutdown, and never silently drops.
func (q *Queue) Enqueue(ctx context.Context, item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	for {
		if q.closed {
			return ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(q.items) < q.capacity {
			break
		}
		q.cond.Wait()
	}

	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}

	// Stable insert: after every queued item of equal or higher urgency.
	idx := len(q.items)
	for i, queued := range q.items {
		if queued.Priority > item.Priority {
			idx = i
			break
		}
	}
	q.items = slices.Insert(q.items, idx, item)

	q.cond.Broadcast()
	return nil
}

// TryDequeue returns (nil, nil) when the in-flight count has reached the
// cap, even with items queued. Otherwise it blocks until an eligible item is
// available, the context is cancelled, or the queue closes empty. The
// returned item's payment identity is marked as processing; the caller must
// release it with CompleteProcessing.
func (q *Queue) TryDequeue(ctx context.Context) (*Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Re-checked on every wakeup: a waiter parked before the cap was
		// reached must not claim past it once siblings have.
		if len(q.inFlight) >= q.maxInFlight {
			return nil, nil
		}
		if idx, ok := q.eligible(); ok {
			item := q.items[idx]
			q.items = slices.Delete(q.items, idx, idx+1)
			q.inFlight[item.PaymentID] = struct{}{}
			q.cond.Broadcast()
			return &item, nil
		}
		if q.closed {
			return nil, ErrQueueClosed
		}
		q.cond.Wait()
	}
}

// eligible finds the first item whose identity is not currently in flight.
func (q *Queue) eligible() (int, bool) {
	for i, item := range q.items {
		if _, busy := q.inFlight[item.PaymentID]; !busy {
			return i, true
		}
	}
	return 0, false
}

// CompleteProcessing releases the in-flight marker so a later operation for
// the same identity may be dequeued.
func (q *Queue) CompleteProcessing(paymentID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inFlight, paymentID)
	q.cond.Broadcast()
}

// Close stops new enqueues and dequeues of an empty queue. Items already
// queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.inFlight)
}
