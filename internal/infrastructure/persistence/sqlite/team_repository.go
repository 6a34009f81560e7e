package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/team"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Save(ctx context.Context, t *team.Team) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams
		 (id, name, active, currencies, max_payment_amount, daily_amount_limit,
		  daily_transaction_limit, max_active_payments, max_processing_payments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		  name = excluded.name,
		  active = excluded.active,
		  currencies = excluded.currencies,
		  max_payment_amount = excluded.max_payment_amount,
		  daily_amount_limit = excluded.daily_amount_limit,
		  daily_transaction_limit = excluded.daily_transaction_limit,
		  max_active_payments = excluded.max_active_payments,
		  max_processing_payments = excluded.max_processing_payments`,
		t.ID,
		t.Name,
		boolToInt(t.Active),
		strings.Join(t.Currencies, ","),
		t.MaxPaymentAmount,
		t.DailyAmountLimit,
		t.DailyTransactionLimit,
		t.MaxActivePayments,
		t.MaxProcessingPayments,
	)
	return err
}

func (r *TeamRepository) FindByID(ctx context.Context, id string) (*team.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, active, currencies, max_payment_amount, daily_amount_limit,
		 daily_transaction_limit, max_active_payments, max_processing_payments
		 FROM teams WHERE id = ?`, id)

	var t team.Team
	var active int
	var currencies string

	err := row.Scan(
		&t.ID,
		&t.Name,
		&active,
		&currencies,
		&t.MaxPaymentAmount,
		&t.DailyAmountLimit,
		&t.DailyTransactionLimit,
		&t.MaxActivePayments,
		&t.MaxProcessingPayments,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, team.ErrTeamNotFound
		}
		return nil, err
	}

	t.Active = active == 1
	if currencies != "" {
		t.Currencies = strings.Split(currencies, ",")
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
