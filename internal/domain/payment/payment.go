package payment

import "time"

// Payment is the entity whose lifecycle the engine orchestrates. Amount is
// expressed in minor currency units and is write-once after creation.
// Version is the optimistic-concurrency token, bumped by the repository on
// every successful update.
type Payment struct {
	ID           string
	PaymentID    string // external identifier, unique
	TeamID       string
	OrderID      string
	Amount       int64
	Currency     string
	Status       Status
	Version      int64
	Description  string
	Receipt      string
	ErrorCode    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AuthorizedAt *time.Time
	ConfirmedAt  *time.Time
	CancelledAt  *time.Time
}

func (p *Payment) Clone() *Payment {
	c := *p
	c.AuthorizedAt = cloneTime(p.AuthorizedAt)
	c.ConfirmedAt = cloneTime(p.ConfirmedAt)
	c.CancelledAt = cloneTime(p.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Age is the time elapsed since the payment was created.
func (p *Payment) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}
