package metrics

import "sync/atomic"

// Counters is constructed by the composition root and injected everywhere a
// component reports an outcome. No package-level state.
type Counters struct {
	ConfirmationsSucceeded uint64
	ConfirmationsFailed    uint64
	ConfirmationsReplayed  uint64
	PaymentsExpired        uint64
	OperationsProcessed    uint64
	OperationsFailed       uint64
	OperationRetries       uint64
	EventsPublished        uint64
	HandlerFailures        uint64
}

func (c *Counters) IncConfirmationsSucceeded() {
	atomic.AddUint64(&c.ConfirmationsSucceeded, 1)
}

func (c *Counters) IncConfirmationsFailed() {
	atomic.AddUint64(&c.ConfirmationsFailed, 1)
}

func (c *Counters) IncConfirmationsReplayed() {
	atomic.AddUint64(&c.ConfirmationsReplayed, 1)
}

func (c *Counters) AddPaymentsExpired(n uint64) {
	atomic.AddUint64(&c.PaymentsExpired, n)
}

func (c *Counters) IncOperationsProcessed() {
	atomic.AddUint64(&c.OperationsProcessed, 1)
}

func (c *Counters) IncOperationsFailed() {
	atomic.AddUint64(&c.OperationsFailed, 1)
}

func (c *Counters) IncOperationRetries() {
	atomic.AddUint64(&c.OperationRetries, 1)
}

func (c *Counters) IncEventsPublished() {
	atomic.AddUint64(&c.EventsPublished, 1)
}

func (c *Counters) IncHandlerFailures() {
	atomic.AddUint64(&c.HandlerFailures, 1)
}

func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"confirmations_succeeded": atomic.LoadUint64(&c.ConfirmationsSucceeded),
		"confirmations_failed":    atomic.LoadUint64(&c.ConfirmationsFailed),
		"confirmations_replayed":  atomic.LoadUint64(&c.ConfirmationsReplayed),
		"payments_expired":        atomic.LoadUint64(&c.PaymentsExpired),
		"operations_processed":    atomic.LoadUint64(&c.OperationsProcessed),
		"operations_failed":       atomic.LoadUint64(&c.OperationsFailed),
		"operation_retries":       atomic.LoadUint64(&c.OperationRetries),
		"events_published":        atomic.LoadUint64(&c.EventsPublished),
		"handler_failures":        atomic.LoadUint64(&c.HandlerFailures),
	}
}
