package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
)

type Handler interface {
	Handle(ctx context.Context, item Item) error
}

type HandlerFunc func(ctx context.Context, item Item) error

func (f HandlerFunc) Handle(ctx context.Context, item Item) error {
	return f(ctx, item)
}

// PermanentError marks a business failure that must not be retried, e.g. a
// validation rejection. Transient failures stay plain errors.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Pool drains the queue with a capped number of concurrent workers. Failed
// operations are retried up to MaxAttempts with a fixed delay; exhaustion is
// logged only, the queue carries no response channel back to a caller.
type Pool struct {
	Queue       *Queue
	Handlers    map[Operation]Handler
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
	IdleDelay   time.Duration
	Logger      logging.Logger
	Metrics     *metrics.Counters

	wg sync.WaitGroup
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
}

// Shutdown stops new dequeues and waits for in-flight work to finish.
func (p *Pool) Shutdown() {
	p.Queue.Close()
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	idle := p.IdleDelay
	if idle <= 0 {
		idle = 50 * time.Millisecond
	}

	for {
		item, err := p.Queue.TryDequeue(ctx)
		if err != nil {
			return
		}
		if item == nil {
			// In-flight cap reached, back off before asking again.
			select {
			case <-ctx.Done():
				return
			case <-time.After(idle):
			}
			continue
		}

		p.process(ctx, *item)
		p.Queue.CompleteProcessing(item.PaymentID)
	}
}

func (p *Pool) process(ctx context.Context, item Item) {
	handler, ok := p.Handlers[item.Operation]
	if !ok {
		p.Logger.Error("worker: no handler for operation", map[string]any{
			"operation":  string(item.Operation),
			"payment_id": item.PaymentID,
		})
		p.Metrics.IncOperationsFailed()
		return
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = handler.Handle(ctx, item)
		if err == nil {
			p.Metrics.IncOperationsProcessed()
			return
		}

		if IsPermanent(err) {
			p.Logger.Error("worker: operation rejected", map[string]any{
				"operation":  string(item.Operation),
				"payment_id": item.PaymentID,
				"error":      err.Error(),
			})
			p.Metrics.IncOperationsFailed()
			return
		}

		if attempt == attempts {
			break
		}

		p.Metrics.IncOperationRetries()
		p.Logger.Warn("worker: operation failed, retrying", map[string]any{
			"operation":  string(item.Operation),
			"payment_id": item.PaymentID,
			"attempt":    attempt,
			"error":      err.Error(),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.RetryDelay):
		}
	}

	p.Logger.Error("worker: giving up on operation", map[string]any{
		"operation":  string(item.Operation),
		"payment_id": item.PaymentID,
		"attempts":   attempts,
		"error":      fmt.Sprintf("%v", err),
	})
	p.Metrics.IncOperationsFailed()
}
