package eventbus

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
)

// Handler receives transition events. Matches is the handler's own
// applicability predicate; the bus re-checks it at dispatch time on top of
// the subscription filter.
type Handler interface {
	Handle(ctx context.Context, evt event.PaymentTransition) error
	Matches(from, to payment.Status) bool
}

type subscription struct {
	id       string
	priority int
	from     *payment.Status
	to       *payment.Status
	handler  Handler
}

func (s *subscription) applies(evt event.PaymentTransition) bool {
	if s.from != nil && *s.from != evt.From {
		return false
	}
	if s.to != nil && *s.to != evt.To {
		return false
	}
	return s.handler.Matches(evt.From, evt.To)
}

// Bus fans transition events out to subscribed handlers, best-effort.
// Subscriptions live in a map keyed by a stable id, so Unsubscribe really
// removes them. Delivery is at-most-once and non-durable.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*subscription
	Logger  logging.Logger
	Metrics *metrics.Counters
}

func New(logger logging.Logger, counters *metrics.Counters) *Bus {
	return &Bus{
		subs:    make(map[string]*subscription),
		Logger:  logger,
		Metrics: counters,
	}
}

// Subscribe registers a handler with an optional (from, to) filter; nil
// means wildcard. Lower priorities run first. The returned id is the handle
// for Unsubscribe.
func (b *Bus) Subscribe(handler Handler, priority int, from, to *payment.Status) string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[id] = &subscription{
		id:       id,
		priority: priority,
		from:     from,
		to:       to,
		handler:  handler,
	}
	return id
}

// SubscribeFunc registers a plain function whose own predicate accepts
// every transition.
func (b *Bus) SubscribeFunc(fn func(ctx context.Context, evt event.PaymentTransition) error, priority int, from, to *payment.Status) string {
	return b.Subscribe(funcHandler(fn), priority, from, to)
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Publish dispatches to every applicable handler. Handlers of the same
// priority run concurrently; a lower priority tier completes before the next
// one starts. A failing or panicking handler is logged and never blocks its
// siblings nor the transition that produced the event.
func (b *Bus) Publish(ctx context.Context, evt event.PaymentTransition) {
	b.mu.RLock()
	applicable := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.applies(evt) {
			applicable = append(applicable, sub)
		}
	}
	b.mu.RUnlock()

	b.Metrics.IncEventsPublished()

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].priority < applicable[j].priority
	})

	for start := 0; start < len(applicable); {
		end := start
		for end < len(applicable) && applicable[end].priority == applicable[start].priority {
			end++
		}

		var wg sync.WaitGroup
		for _, sub := range applicable[start:end] {
			sub := sub
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.dispatch(ctx, sub, evt)
			}()
		}
		wg.Wait()

		start = end
	}
}

func (b *Bus) dispatch(ctx context.Context, sub *subscription, evt event.PaymentTransition) {
	defer func() {
		if r := recover(); r != nil {
			b.Metrics.IncHandlerFailures()
			b.Logger.Error("eventbus: handler panicked", map[string]any{
				"subscription": sub.id,
				"payment_id":   evt.PaymentID,
				"panic":        fmt.Sprintf("%v", r),
			})
		}
	}()

	if err := sub.handler.Handle(ctx, evt); err != nil {
		b.Metrics.IncHandlerFailures()
		b.Logger.Error("eventbus: handler failed", map[string]any{
			"subscription": sub.id,
			"payment_id":   evt.PaymentID,
			"from":         string(evt.From),
			"to":           string(evt.To),
			"error":        err.Error(),
		})
	}
}

type funcHandler func(ctx context.Context, evt event.PaymentTransition) error

func (f funcHandler) Handle(ctx context.Context, evt event.PaymentTransition) error {
	return f(ctx, evt)
}

func (f funcHandler) Matches(payment.Status, payment.Status) bool {
	return true
}
