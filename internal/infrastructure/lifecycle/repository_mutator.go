package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
)

type EventPublisher interface {
	Publish(ctx context.Context, evt event.PaymentTransition)
}

// RepositoryMutator implements the lifecycle mutator contract against the
// payment repository: it applies the status change with a version-checked
// update, then publishes the transition event.
type RepositoryMutator struct {
	Payments payment.Repository
	Events   EventPublisher
	Logger   logging.Logger
	Now      func() time.Time
}

func (m *RepositoryMutator) Initialize(ctx context.Context, paymentID string) error {
	return m.transition(ctx, paymentID, payment.StatusNew, nil, nil)
}

func (m *RepositoryMutator) Authorize(ctx context.Context, paymentID string) error {
	return m.transition(ctx, paymentID, payment.StatusAuthorized, func(p *payment.Payment, now time.Time) {
		p.AuthorizedAt = &now
	}, nil)
}

func (m *RepositoryMutator) Confirm(ctx context.Context, paymentID string) error {
	return m.transition(ctx, paymentID, payment.StatusConfirmed, func(p *payment.Payment, now time.Time) {
		p.ConfirmedAt = &now
	}, nil)
}

func (m *RepositoryMutator) Cancel(ctx context.Context, paymentID string, reason string) error {
	mutate := func(p *payment.Payment, now time.Time) {
		p.CancelledAt = &now
		if reason != "" {
			p.ErrorMessage = reason
		}
	}
	return m.transition(ctx, paymentID, payment.StatusCancelled, mutate, map[string]string{"reason": reason})
}

func (m *RepositoryMutator) Expire(ctx context.Context, paymentID string) error {
	return m.transition(ctx, paymentID, payment.StatusExpired, func(p *payment.Payment, now time.Time) {
		p.ErrorCode = "PAYMENT_EXPIRED"
		p.ErrorMessage = fmt.Sprintf("payment expired while %s", p.Status)
	}, nil)
}

func (m *RepositoryMutator) transition(
	ctx context.Context,
	paymentID string,
	to payment.Status,
	mutate func(*payment.Payment, time.Time),
	evtContext map[string]string,
) error {
	p, err := m.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}

	from := p.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("illegal transition %s -> %s for payment %s", from, to, paymentID)
	}

	now := m.now()
	if mutate != nil {
		mutate(p, now)
	}
	p.Status = to
	p.UpdatedAt = now

	if err := m.Payments.Update(ctx, p); err != nil {
		return err
	}

	m.Events.Publish(ctx, event.PaymentTransition{
		PaymentID:  p.ID,
		From:       from,
		To:         to,
		OccurredAt: now,
		Context:    evtContext,
	})

	m.Logger.Info("payment transitioned", map[string]any{
		"payment_id": p.ID,
		"from":       string(from),
		"to":         string(to),
	})
	return nil
}

func (m *RepositoryMutator) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
