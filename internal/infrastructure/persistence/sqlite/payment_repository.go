package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

const terminalStatuses = `('CONFIRMED', 'CANCELLED', 'REFUNDED', 'EXPIRED')`

const paymentColumns = `id, payment_id, team_id, order_id, amount, currency, status, version,
	 description, receipt, error_code, error_message,
	 created_at, updated_at, authorized_at, confirmed_at, cancelled_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if p.Version == 0 {
		p.Version = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments
		 (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.PaymentID,
		p.TeamID,
		p.OrderID,
		p.Amount,
		p.Currency,
		string(p.Status),
		p.Version,
		p.Description,
		p.Receipt,
		p.ErrorCode,
		p.ErrorMessage,
		p.CreatedAt,
		p.UpdatedAt,
		nullTime(p.AuthorizedAt),
		nullTime(p.ConfirmedAt),
		nullTime(p.CancelledAt),
	)
	return err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByPaymentID(ctx context.Context, paymentID string) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = ?`, paymentID)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, teamID, orderID string) ([]*payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE team_id = ? AND order_id = ?`,
		teamID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (r *PaymentRepository) FindByStatus(ctx context.Context, status payment.Status) ([]*payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE status = ?`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (r *PaymentRepository) FindActive(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE status NOT IN `+terminalStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET
		 status = ?, version = version + 1, description = ?, receipt = ?,
		 error_code = ?, error_message = ?, updated_at = ?,
		 authorized_at = ?, confirmed_at = ?, cancelled_at = ?
		 WHERE id = ? AND version = ?`,
		string(p.Status),
		p.Description,
		p.Receipt,
		p.ErrorCode,
		p.ErrorMessage,
		p.UpdatedAt,
		nullTime(p.AuthorizedAt),
		nullTime(p.ConfirmedAt),
		nullTime(p.CancelledAt),
		p.ID,
		p.Version,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the payment is gone or someone updated it first.
		if _, findErr := r.FindByID(ctx, p.ID); findErr != nil {
			return findErr
		}
		return payment.ErrVersionConflict
	}

	p.Version++
	return nil
}

func (r *PaymentRepository) CountActiveByTeam(ctx context.Context, teamID string) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE team_id = ? AND status NOT IN `+terminalStatuses,
		teamID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PaymentRepository) CountByTeamAndStatus(ctx context.Context, teamID string, status payment.Status) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE team_id = ? AND status = ?`,
		teamID, string(status))

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PaymentRepository) DailyTotalsByTeam(ctx context.Context, teamID string, since time.Time) (payment.DailyTotals, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM payments
		 WHERE team_id = ? AND created_at >= ?`,
		teamID, since)

	var totals payment.DailyTotals
	if err := row.Scan(&totals.Count, &totals.Amount); err != nil {
		return payment.DailyTotals{}, err
	}
	return totals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	var status string
	var authorizedAt, confirmedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.PaymentID,
		&p.TeamID,
		&p.OrderID,
		&p.Amount,
		&p.Currency,
		&status,
		&p.Version,
		&p.Description,
		&p.Receipt,
		&p.ErrorCode,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
		&authorizedAt,
		&confirmedAt,
		&cancelledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}

	p.Status = payment.Status(status)
	p.AuthorizedAt = timePtr(authorizedAt)
	p.ConfirmedAt = timePtr(confirmedAt)
	p.CancelledAt = timePtr(cancelledAt)
	return &p, nil
}

func scanPayments(rows *sql.Rows) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
