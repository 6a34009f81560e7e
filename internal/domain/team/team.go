package team

import (
	"context"
	"errors"
	"slices"
)

var ErrTeamNotFound = errors.New("team not found")

// Team owns payments and carries the limits the validator enforces.
// A zero limit means the limit is not enforced.
type Team struct {
	ID                    string
	Name                  string
	Active                bool
	Currencies            []string
	MaxPaymentAmount      int64
	DailyAmountLimit      int64
	DailyTransactionLimit int
	MaxActivePayments     int
	MaxProcessingPayments int
}

func (t *Team) SupportsCurrency(currency string) bool {
	return slices.Contains(t.Currencies, currency)
}

type Repository interface {
	Save(ctx context.Context, t *Team) error
	FindByID(ctx context.Context, id string) (*Team, error)
}
