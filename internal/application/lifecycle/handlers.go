package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
)

// ConfirmPayload rides on a queued CONFIRM item.
type ConfirmPayload struct {
	Amount         int64
	IdempotencyKey string
	Reason         string
}

// CancelPayload rides on a queued CANCEL item.
type CancelPayload struct {
	Reason string
}

// Handlers wires the queue's five operations to the validator, the mutator
// and the confirmation orchestrator. Validation rejections come back as
// permanent errors so the pool does not retry them.
type Handlers struct {
	Payments      payment.Repository
	Validator     *validation.Validator
	Mutator       contracts.LifecycleMutator
	Confirmations *confirmation.Service
	Logger        logging.Logger
}

func (h *Handlers) Map() map[worker.Operation]worker.Handler {
	return map[worker.Operation]worker.Handler{
		worker.OpInitialize: worker.HandlerFunc(h.Initialize),
		worker.OpAuthorize:  worker.HandlerFunc(h.Authorize),
		worker.OpConfirm:    worker.HandlerFunc(h.Confirm),
		worker.OpCancel:     worker.HandlerFunc(h.Cancel),
		worker.OpExpire:     worker.HandlerFunc(h.Expire),
	}
}

func (h *Handlers) Initialize(ctx context.Context, item worker.Item) error {
	return h.transition(ctx, item.PaymentID, payment.StatusNew, func(ctx context.Context) error {
		return h.Mutator.Initialize(ctx, item.PaymentID)
	})
}

func (h *Handlers) Authorize(ctx context.Context, item worker.Item) error {
	return h.transition(ctx, item.PaymentID, payment.StatusAuthorized, func(ctx context.Context) error {
		return h.Mutator.Authorize(ctx, item.PaymentID)
	})
}

func (h *Handlers) Confirm(ctx context.Context, item worker.Item) error {
	req := confirmation.Request{}
	if payload, ok := item.Payload.(ConfirmPayload); ok {
		req = confirmation.Request{
			Amount:         payload.Amount,
			IdempotencyKey: payload.IdempotencyKey,
			Reason:         payload.Reason,
		}
	}

	res := h.Confirmations.Confirm(ctx, item.PaymentID, req)
	if !res.Success {
		err := fmt.Errorf("confirmation failed: %v", res.Errors)
		// Lock contention and storage faults stay retryable; business
		// rejections are final for this item.
		if res.Transient {
			return err
		}
		return worker.Permanent(err)
	}
	return nil
}

func (h *Handlers) Cancel(ctx context.Context, item worker.Item) error {
	reason := ""
	if payload, ok := item.Payload.(CancelPayload); ok {
		reason = payload.Reason
	}
	return h.transition(ctx, item.PaymentID, payment.StatusCancelled, func(ctx context.Context) error {
		return h.Mutator.Cancel(ctx, item.PaymentID, reason)
	})
}

func (h *Handlers) Expire(ctx context.Context, item worker.Item) error {
	return h.transition(ctx, item.PaymentID, payment.StatusExpired, func(ctx context.Context) error {
		return h.Mutator.Expire(ctx, item.PaymentID)
	})
}

// transition loads the current status, validates the move and only then
// invokes the mutator.
func (h *Handlers) transition(ctx context.Context, paymentID string, to payment.Status, mutate func(context.Context) error) error {
	p, err := h.Payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return worker.Permanent(err)
		}
		// Repository faults are transient, leave them retryable.
		return err
	}

	res := h.Validator.ValidateTransition(ctx, p.ID, p.Status, to)
	if !res.Valid {
		return worker.Permanent(fmt.Errorf("transition %s -> %s rejected: %v", p.Status, to, res.ErrorMessages()))
	}

	return mutate(ctx)
}
