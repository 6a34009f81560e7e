package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			currencies TEXT NOT NULL DEFAULT '',
			max_payment_amount INTEGER NOT NULL DEFAULT 0,
			daily_amount_limit INTEGER NOT NULL DEFAULT 0,
			daily_transaction_limit INTEGER NOT NULL DEFAULT 0,
			max_active_payments INTEGER NOT NULL DEFAULT 0,
			max_processing_payments INTEGER NOT NULL DEFAULT 0
		);`,

		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			payment_id TEXT NOT NULL UNIQUE,
			team_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			description TEXT NOT NULL DEFAULT '',
			receipt TEXT NOT NULL DEFAULT '',
			error_code TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			authorized_at DATETIME,
			confirmed_at DATETIME,
			cancelled_at DATETIME
		);`,

		`CREATE INDEX IF NOT EXISTS idx_payments_team_order ON payments (team_id, order_id);`,

		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);`,

		`CREATE TABLE IF NOT EXISTS confirmation_audit (
			id TEXT PRIMARY KEY,
			payment_id TEXT NOT NULL,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			previous_status TEXT NOT NULL DEFAULT '',
			current_status TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
