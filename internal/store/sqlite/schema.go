package sqlite

// migrations returns the schema statements, one per string, applied in order.
// Amounts are stored as decimal strings and dates as yyyy-mm-dd so both
// compare and round-trip exactly.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts_payable (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			amount       TEXT NOT NULL,
			description  TEXT NOT NULL,
			due_date     TEXT NOT NULL,
			payment_date TEXT,
			status       TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_payable_due_date ON accounts_payable(due_date, seq)`,
	}
}
