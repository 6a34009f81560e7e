package contracts

import (
	"context"
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

// LifecycleMutator performs and persists the actual status change. The
// orchestration core validates and sequences calls to it but does not own
// persistence.
type LifecycleMutator interface {
	Initialize(ctx context.Context, paymentID string) error
	Authorize(ctx context.Context, paymentID string) error
	Confirm(ctx context.Context, paymentID string) error
	Cancel(ctx context.Context, paymentID string, reason string) error
	Expire(ctx context.Context, paymentID string) error
}

var ErrLockUnavailable = errors.New("lock unavailable")

type LockHandle interface {
	Release()
}

// LockService hands out per-key leases. Acquire fails fast with
// ErrLockUnavailable when the key is already held.
type LockService interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (LockHandle, error)
}

type AuditEntry struct {
	ID             string
	PaymentID      string
	Action         string
	Outcome        string
	PreviousStatus payment.Status
	CurrentStatus  payment.Status
	Amount         int64
	Reason         string
	Duration       time.Duration
	CreatedAt      time.Time
}

const (
	AuditOutcomeSuccess = "SUCCESS"
	AuditOutcomeFailure = "FAILURE"
)

// AuditSink records outcomes fire-and-forget. A failing sink must never fail
// the orchestration path; callers log the error and move on.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}
