package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

// AuditRepository persists the confirmation audit trail. It satisfies the
// AuditSink contract.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry contracts.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO confirmation_audit
		 (id, payment_id, action, outcome, previous_status, current_status,
		  amount, reason, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.PaymentID,
		entry.Action,
		entry.Outcome,
		string(entry.PreviousStatus),
		string(entry.CurrentStatus),
		entry.Amount,
		entry.Reason,
		entry.Duration.Milliseconds(),
		entry.CreatedAt,
	)
	return err
}

func (r *AuditRepository) FindByPaymentID(ctx context.Context, paymentID string) ([]contracts.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payment_id, action, outcome, previous_status, current_status,
		 amount, reason, duration_ms, created_at
		 FROM confirmation_audit WHERE payment_id = ? ORDER BY created_at`,
		paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []contracts.AuditEntry
	for rows.Next() {
		var entry contracts.AuditEntry
		var prev, curr string
		var durationMs int64

		if err := rows.Scan(
			&entry.ID,
			&entry.PaymentID,
			&entry.Action,
			&entry.Outcome,
			&prev,
			&curr,
			&entry.Amount,
			&entry.Reason,
			&durationMs,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		entry.PreviousStatus = payment.Status(prev)
		entry.CurrentStatus = payment.Status(curr)
		entry.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
