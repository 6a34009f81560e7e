package payment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrVersionConflict signals a lost update: the payment changed between
	// the caller's read and its write.
	ErrVersionConflict = errors.New("payment version conflict")
)

type DailyTotals struct {
	Count  int
	Amount int64
}

type Repository interface {
	Save(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	FindByOrderID(ctx context.Context, teamID, orderID string) ([]*Payment, error)
	FindByStatus(ctx context.Context, status Status) ([]*Payment, error)
	FindActive(ctx context.Context) ([]*Payment, error)

	// Update persists the payment only if the stored version still matches
	// p.Version, then bumps the version. Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, p *Payment) error

	CountActiveByTeam(ctx context.Context, teamID string) (int, error)
	CountByTeamAndStatus(ctx context.Context, teamID string, status Status) (int, error)
	DailyTotalsByTeam(ctx context.Context, teamID string, since time.Time) (DailyTotals, error)
}
