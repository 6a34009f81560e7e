package expiration

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
)

const (
	DefaultSweepInterval = time.Minute
	DefaultWarningWindow = 5 * time.Minute
)

// Sweeper finds payments that outlived their status window and expires them
// through the lifecycle mutator. It never mutates on the warning path.
type Sweeper struct {
	Payments      payment.Repository
	Timeouts      *validation.Timeouts
	Mutator       contracts.LifecycleMutator
	Logger        logging.Logger
	Metrics       *metrics.Counters
	SweepInterval time.Duration
	WarningWindow time.Duration
	Now           func() time.Time
}

func (s *Sweeper) deadline(p *payment.Payment) time.Time {
	return p.CreatedAt.Add(s.Timeouts.For(p.TeamID, p.Status))
}

func (s *Sweeper) IsExpired(ctx context.Context, paymentID string) (bool, error) {
	p, err := s.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return false, err
	}
	if p.Status.IsTerminal() {
		return false, nil
	}
	return s.now().After(s.deadline(p)), nil
}

// TimeToExpiration returns the remaining window. The second return is false
// for terminal payments, which have no deadline.
func (s *Sweeper) TimeToExpiration(ctx context.Context, paymentID string) (time.Duration, bool, error) {
	p, err := s.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return 0, false, err
	}
	if p.Status.IsTerminal() {
		return 0, false, nil
	}
	return s.deadline(p).Sub(s.now()), true, nil
}

// ExpiringPayments lists active payments whose deadline falls inside the
// warning window. Already-expired payments are not repeated here.
func (s *Sweeper) ExpiringPayments(ctx context.Context, window time.Duration) ([]*payment.Payment, error) {
	active, err := s.Payments.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiring := make([]*payment.Payment, 0)
	for _, p := range active {
		deadline := s.deadline(p)
		if deadline.After(now) && deadline.Sub(now) <= window {
			expiring = append(expiring, p)
		}
	}
	return expiring, nil
}

func (s *Sweeper) ExpiredPayments(ctx context.Context) ([]*payment.Payment, error) {
	active, err := s.Payments.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expired := make([]*payment.Payment, 0)
	for _, p := range active {
		if now.After(s.deadline(p)) {
			expired = append(expired, p)
		}
	}
	return expired, nil
}

// ExpirePayments expires each id, rechecking expiry just before acting so a
// payment that changed status concurrently is skipped. Per-id failures are
// logged and do not abort the batch.
func (s *Sweeper) ExpirePayments(ctx context.Context, ids []string) int {
	expired := 0
	for _, id := range ids {
		stillExpired, err := s.IsExpired(ctx, id)
		if err != nil {
			s.Logger.Error("sweeper: recheck failed", map[string]any{
				"payment_id": id,
				"error":      err.Error(),
			})
			continue
		}
		if !stillExpired {
			continue
		}

		if err := s.Mutator.Expire(ctx, id); err != nil {
			s.Logger.Error("sweeper: expire failed", map[string]any{
				"payment_id": id,
				"error":      err.Error(),
			})
			continue
		}
		expired++
	}

	if expired > 0 {
		s.Metrics.AddPaymentsExpired(uint64(expired))
	}
	return expired
}

// Run sweeps on a timer until the context is cancelled. Each tick expires
// the full expired set, then reports the expiring-soon set for observability
// only.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.ExpiredPayments(ctx)
	if err != nil {
		s.Logger.Error("sweeper: listing expired payments", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if len(expired) > 0 {
		ids := make([]string, 0, len(expired))
		for _, p := range expired {
			ids = append(ids, p.ID)
		}
		n := s.ExpirePayments(ctx, ids)
		s.Logger.Info("sweeper: expired payments", map[string]any{
			"candidates": len(ids),
			"expired":    n,
		})
	}

	window := s.WarningWindow
	if window <= 0 {
		window = DefaultWarningWindow
	}

	expiring, err := s.ExpiringPayments(ctx, window)
	if err != nil {
		s.Logger.Error("sweeper: listing expiring payments", map[string]any{
			"error": err.Error(),
		})
		return
	}
	for _, p := range expiring {
		s.Logger.Warn("sweeper: payment expiring soon", map[string]any{
			"payment_id": p.ID,
			"status":     string(p.Status),
			"deadline":   s.deadline(p).UTC().Format(time.RFC3339),
		})
	}
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
