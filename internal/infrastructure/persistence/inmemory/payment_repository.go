package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

type PaymentRepository struct {
	mu          sync.RWMutex
	payments    map[string]*payment.Payment
	externalIDs map[string]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments:    make(map[string]*payment.Payment),
		externalIDs: make(map[string]string),
	}
}

func (r *PaymentRepository) Save(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := p.Clone()
	if stored.Version == 0 {
		stored.Version = 1
		p.Version = 1
	}
	r.payments[stored.ID] = stored
	if stored.PaymentID != "" {
		r.externalIDs[stored.PaymentID] = stored.ID
	}
	return nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByPaymentID(_ context.Context, paymentID string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.externalIDs[paymentID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByOrderID(_ context.Context, teamID, orderID string) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*payment.Payment
	for _, p := range r.payments {
		if p.TeamID == teamID && p.OrderID == orderID {
			found = append(found, p.Clone())
		}
	}
	return found, nil
}

func (r *PaymentRepository) FindByStatus(_ context.Context, status payment.Status) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*payment.Payment
	for _, p := range r.payments {
		if p.Status == status {
			found = append(found, p.Clone())
		}
	}
	return found, nil
}

func (r *PaymentRepository) FindActive(_ context.Context) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*payment.Payment
	for _, p := range r.payments {
		if !p.Status.IsTerminal() {
			found = append(found, p.Clone())
		}
	}
	return found, nil
}

func (r *PaymentRepository) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[p.ID]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	if stored.Version != p.Version {
		return payment.ErrVersionConflict
	}

	updated := p.Clone()
	updated.Version = stored.Version + 1
	r.payments[p.ID] = updated
	p.Version = updated.Version
	return nil
}

func (r *PaymentRepository) CountActiveByTeam(_ context.Context, teamID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.payments {
		if p.TeamID == teamID && !p.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (r *PaymentRepository) CountByTeamAndStatus(_ context.Context, teamID string, status payment.Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.payments {
		if p.TeamID == teamID && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *PaymentRepository) DailyTotalsByTeam(_ context.Context, teamID string, since time.Time) (payment.DailyTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var totals payment.DailyTotals
	for _, p := range r.payments {
		if p.TeamID == teamID && !p.CreatedAt.Before(since) {
			totals.Count++
			totals.Amount += p.Amount
		}
	}
	return totals, nil
}
