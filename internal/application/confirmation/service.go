package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
)

const DefaultLockLease = 5 * time.Minute

// Request is the caller's confirmation intent. Amount zero means "confirm
// whatever the payment holds"; a non-zero amount must match exactly, partial
// confirmation is never supported.
type Request struct {
	Amount         int64
	IdempotencyKey string
	Reason         string
}

type Result struct {
	Success        bool           `json:"success"`
	PaymentID      string         `json:"payment_id"`
	PreviousStatus payment.Status `json:"previous_status,omitempty"`
	CurrentStatus  payment.Status `json:"current_status,omitempty"`
	Errors         []string       `json:"errors,omitempty"`
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`
	Duration       time.Duration  `json:"duration"`

	// Transient marks system faults (lock contention, storage errors) a
	// caller may retry, as opposed to final business decisions.
	Transient bool `json:"-"`
}

// Service is the confirmation orchestrator. The lock scope is the payment
// identity only, so confirmations for different payments run fully in
// parallel. Synchronous callers and queue workers must share the same
// Service instance to share the lock and the idempotency cache.
type Service struct {
	Payments  payment.Repository
	Validator *validation.Validator
	Locks     contracts.LockService
	Mutator   contracts.LifecycleMutator
	Audit     contracts.AuditSink
	Results   *ResultCache
	Logger    logging.Logger
	Metrics   *metrics.Counters
	LockLease time.Duration
	Now       func() time.Time
}

func (s *Service) Confirm(ctx context.Context, paymentID string, req Request) Result {
	start := s.now()

	if req.IdempotencyKey != "" {
		if cached, ok := s.Results.Get(req.IdempotencyKey); ok {
			s.Metrics.IncConfirmationsReplayed()
			return cached
		}
	}

	lease := s.LockLease
	if lease <= 0 {
		lease = DefaultLockLease
	}

	handle, err := s.Locks.Acquire(ctx, "payment:confirm:"+paymentID, lease)
	if err != nil {
		res := s.transientFailure(paymentID, "", "", fmt.Sprintf("lock unavailable for payment %s", paymentID))
		res.Duration = s.now().Sub(start)
		s.audit(ctx, paymentID, res, req, "lock unavailable")
		return res
	}
	defer handle.Release()

	res := s.confirmLocked(ctx, paymentID, req)
	res.Duration = s.now().Sub(start)

	// Only final outcomes are replayable: a transient fault must not poison
	// the key, a retry with the same key runs for real.
	if req.IdempotencyKey != "" && !res.Transient {
		s.Results.Put(req.IdempotencyKey, res)
	}

	reason := ""
	if !res.Success && len(res.Errors) > 0 {
		reason = res.Errors[0]
	}
	s.audit(ctx, paymentID, res, req, reason)
	return res
}

func (s *Service) confirmLocked(ctx context.Context, paymentID string, req Request) Result {
	p, err := s.Payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return s.failure(paymentID, "", "", fmt.Sprintf("payment %s not found", paymentID))
		}
		s.Logger.Error("confirmation: loading payment", map[string]any{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return s.transientFailure(paymentID, "", "", "internal failure loading payment")
	}

	if p.Status != payment.StatusAuthorized {
		return s.failure(p.ID, p.Status, p.Status,
			fmt.Sprintf("payment must be AUTHORIZED to confirm, current status is %s", p.Status))
	}

	if req.Amount != 0 && req.Amount != p.Amount {
		return s.failure(p.ID, p.Status, p.Status,
			fmt.Sprintf("confirmation amount %d does not match payment amount %d", req.Amount, p.Amount))
	}

	vres := s.Validator.ValidateTransition(ctx, p.ID, payment.StatusAuthorized, payment.StatusConfirmed)
	if !vres.Valid {
		return s.failure(p.ID, p.Status, p.Status, vres.ErrorMessages()...)
	}

	if err := s.Mutator.Confirm(ctx, p.ID); err != nil {
		s.Logger.Error("confirmation: mutator failed", map[string]any{
			"payment_id": p.ID,
			"error":      err.Error(),
		})
		return s.transientFailure(p.ID, p.Status, p.Status, "internal failure applying confirmation")
	}

	// Reload for the authoritative post-state.
	reloaded, err := s.Payments.FindByID(ctx, p.ID)
	if err != nil {
		reloaded = p
		reloaded.Status = payment.StatusConfirmed
	}

	s.Metrics.IncConfirmationsSucceeded()
	return Result{
		Success:        true,
		PaymentID:      p.ID,
		PreviousStatus: payment.StatusAuthorized,
		CurrentStatus:  reloaded.Status,
		ConfirmedAt:    reloaded.ConfirmedAt,
	}
}

// ConfirmByOrderID resolves the active payment for a team order, then
// delegates to the identity-based path.
func (s *Service) ConfirmByOrderID(ctx context.Context, teamID, orderID string, req Request) Result {
	payments, err := s.Payments.FindByOrderID(ctx, teamID, orderID)
	if err != nil || len(payments) == 0 {
		return s.failure("", "", "", fmt.Sprintf("no payment found for order %s", orderID))
	}

	for _, p := range payments {
		if !p.Status.IsTerminal() {
			return s.Confirm(ctx, p.ID, req)
		}
	}
	return s.Confirm(ctx, payments[0].ID, req)
}

func (s *Service) ConfirmByPaymentID(ctx context.Context, externalID string, req Request) Result {
	p, err := s.Payments.FindByPaymentID(ctx, externalID)
	if err != nil {
		return s.failure("", "", "", fmt.Sprintf("no payment found for external id %s", externalID))
	}
	return s.Confirm(ctx, p.ID, req)
}

// CanConfirm reports whether a confirmation would currently pass, without
// acquiring the lock or mutating anything.
func (s *Service) CanConfirm(ctx context.Context, paymentID string) (bool, []string) {
	p, err := s.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return false, []string{fmt.Sprintf("payment %s not found", paymentID)}
	}
	if p.Status != payment.StatusAuthorized {
		return false, []string{fmt.Sprintf("payment must be AUTHORIZED to confirm, current status is %s", p.Status)}
	}

	vres := s.Validator.ValidateTransition(ctx, p.ID, payment.StatusAuthorized, payment.StatusConfirmed)
	if !vres.Valid {
		return false, vres.ErrorMessages()
	}
	return true, nil
}

// ConfirmablePayments lists AUTHORIZED payments still inside their
// expiration window.
func (s *Service) ConfirmablePayments(ctx context.Context) ([]*payment.Payment, error) {
	authorized, err := s.Payments.FindByStatus(ctx, payment.StatusAuthorized)
	if err != nil {
		return nil, err
	}

	now := s.now()
	confirmable := make([]*payment.Payment, 0, len(authorized))
	for _, p := range authorized {
		timeout := s.Validator.Timeouts.For(p.TeamID, p.Status)
		if p.Age(now) <= timeout {
			confirmable = append(confirmable, p)
		}
	}
	return confirmable, nil
}

func (s *Service) transientFailure(paymentID string, prev, curr payment.Status, errs ...string) Result {
	res := s.failure(paymentID, prev, curr, errs...)
	res.Transient = true
	return res
}

func (s *Service) failure(paymentID string, prev, curr payment.Status, errs ...string) Result {
	s.Metrics.IncConfirmationsFailed()
	return Result{
		Success:        false,
		PaymentID:      paymentID,
		PreviousStatus: prev,
		CurrentStatus:  curr,
		Errors:         errs,
	}
}

// audit records every exit path, success or failure. A failing sink never
// fails the confirmation.
func (s *Service) audit(ctx context.Context, paymentID string, res Result, req Request, reason string) {
	outcome := contracts.AuditOutcomeFailure
	if res.Success {
		outcome = contracts.AuditOutcomeSuccess
	}

	entry := contracts.AuditEntry{
		ID:             uuid.NewString(),
		PaymentID:      paymentID,
		Action:         "CONFIRM",
		Outcome:        outcome,
		PreviousStatus: res.PreviousStatus,
		CurrentStatus:  res.CurrentStatus,
		Amount:         req.Amount,
		Reason:         reason,
		Duration:       res.Duration,
		CreatedAt:      s.now(),
	}

	if err := s.Audit.Record(ctx, entry); err != nil {
		s.Logger.Error("confirmation: audit record failed", map[string]any{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
