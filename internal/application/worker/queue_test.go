package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/worker"
)

func item(paymentID string) worker.Item {
	return worker.Item{PaymentID: paymentID, Operation: worker.OpAuthorize}
}

func TestQueue_Enqueue_WhenFull_ShouldBlockUntilSpaceFrees(t *testing.T) {
	// arrange: capacity 1, already full
	q := worker.NewQueue(1, 4)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Enqueue(context.Background(), item("p2"))
	}()

	// assert: the producer stays blocked while the queue is full
	select {
	case err := <-unblocked:
		t.Fatalf("enqueue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// act: drain one item to free space
	dequeued, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p1", dequeued.PaymentID)

	select {
	case err := <-unblocked:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("enqueue still blocked after space freed")
	}
}

func TestQueue_Enqueue_WhenClosed_ShouldFail(t *testing.T) {
	q := worker.NewQueue(4, 4)
	q.Close()

	err := q.Enqueue(context.Background(), item("p1"))

	require.ErrorIs(t, err, worker.ErrQueueClosed)
}

func TestQueue_Enqueue_WhenContextCancelled_ShouldReturn(t *testing.T) {
	q := worker.NewQueue(1, 4)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))

	ctx, cancel := context.WithCancel(context.Background())
	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Enqueue(ctx, item("p2"))
	}()

	cancel()

	select {
	case err := <-unblocked:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("enqueue did not observe cancellation")
	}
}

func TestQueue_TryDequeue_WhenInFlightCapReached_ShouldReturnNoItem(t *testing.T) {
	// arrange: cap of 1 concurrent operation, two items queued
	q := worker.NewQueue(4, 1)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	require.NoError(t, q.Enqueue(context.Background(), item("p2")))

	first, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	// act: the cap is reached, so no item comes back despite depth > 0
	second, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Nil(t, second)
	require.Equal(t, 1, q.Depth())

	// assert: completing the first operation frees the slot
	q.CompleteProcessing(first.PaymentID)
	third, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p2", third.PaymentID)
}

func TestQueue_TryDequeue_WhenMultipleWaitersBlocked_ShouldNotBreachInFlightCap(t *testing.T) {
	// arrange: cap of 1, two workers already parked on an empty queue
	q := worker.NewQueue(8, 1)

	type outcome struct {
		item *worker.Item
		err  error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			it, err := q.TryDequeue(context.Background())
			results <- outcome{item: it, err: err}
		}()
	}
	time.Sleep(50 * time.Millisecond)

	// act: two items arrive at once
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	require.NoError(t, q.Enqueue(context.Background(), item("p2")))

	// assert: only one waiter claims, the other yields with no item
	claimed := 0
	for i := 0; i < 2; i++ {
		select {
		case out := <-results:
			require.NoError(t, out.err)
			if out.item != nil {
				claimed++
			}
		case <-time.After(time.Second):
			t.Fatal("waiter never returned")
		}
	}
	require.Equal(t, 1, claimed)
	require.Equal(t, 1, q.InFlight())
}

func TestQueue_TryDequeue_ShouldSerializeSamePaymentIdentity(t *testing.T) {
	q := worker.NewQueue(4, 4)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	require.NoError(t, q.Enqueue(context.Background(), item("p2")))

	first, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p1", first.PaymentID)

	// The second p1 item is skipped while p1 is in flight.
	second, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p2", second.PaymentID)

	q.CompleteProcessing("p1")

	third, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p1", third.PaymentID)
}

func TestQueue_TryDequeue_ShouldRespectPriorityThenFIFO(t *testing.T) {
	q := worker.NewQueue(8, 8)
	require.NoError(t, q.Enqueue(context.Background(), worker.Item{PaymentID: "low", Operation: worker.OpCancel, Priority: 100}))
	require.NoError(t, q.Enqueue(context.Background(), worker.Item{PaymentID: "high", Operation: worker.OpConfirm, Priority: 10}))
	require.NoError(t, q.Enqueue(context.Background(), worker.Item{PaymentID: "high2", Operation: worker.OpConfirm, Priority: 10}))

	order := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		it, err := q.TryDequeue(context.Background())
		require.NoError(t, err)
		order = append(order, it.PaymentID)
	}

	require.Equal(t, []string{"high", "high2", "low"}, order)
}

func TestQueue_TryDequeue_WhenCancelledWhileBlocked_ShouldReturnWithoutClaimingWork(t *testing.T) {
	q := worker.NewQueue(4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.TryDequeue(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not observe cancellation")
	}
	require.Equal(t, 0, q.InFlight())
}

func TestQueue_TryDequeue_WhenClosedAndDrained_ShouldReturnClosedError(t *testing.T) {
	q := worker.NewQueue(4, 4)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	q.Close()

	// Queued items can still be drained after close.
	it, err := q.TryDequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p1", it.PaymentID)

	_, err = q.TryDequeue(context.Background())
	require.ErrorIs(t, err, worker.ErrQueueClosed)
}

func TestQueue_Introspection_ShouldReportDepthAndInFlight(t *testing.T) {
	q := worker.NewQueue(4, 4)
	require.NoError(t, q.Enqueue(context.Background(), item("p1")))
	require.NoError(t, q.Enqueue(context.Background(), item("p2")))

	require.Equal(t, 2, q.Depth())
	require.Equal(t, 0, q.InFlight())

	_, err := q.TryDequeue(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, q.Depth())
	require.Equal(t, 1, q.InFlight())
}
