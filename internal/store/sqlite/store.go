// Package sqlite is a single-file Repository built on the pure-Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/payables/internal/core"
)

const columns = `id, amount, description, due_date, payment_date, status, created_at, updated_at`

const upsertSQL = `
	INSERT INTO accounts_payable (id, amount, description, due_date, payment_date, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		amount       = excluded.amount,
		description  = excluded.description,
		due_date     = excluded.due_date,
		payment_date = excluded.payment_date,
		status       = excluded.status,
		updated_at   = excluded.updated_at
	RETURNING created_at`

// Store implements core.Repository over database/sql.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.Repository = (*Store)(nil)

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migration: %w", err)
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) save(ctx context.Context, q queryer, p core.AccountsPayable, now time.Time) (core.AccountsPayable, error) {
	if p.IsNew() {
		p.ID = uuid.New()
	}

	var createdAt string
	err := q.QueryRowContext(ctx, upsertSQL,
		p.ID.String(),
		p.Amount.String(),
		p.Description,
		p.DueDate.String(),
		nullDate(p.PaymentDate),
		p.Status,
		formatTime(now),
		formatTime(now),
	).Scan(&createdAt)
	if err != nil {
		return core.AccountsPayable{}, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.AccountsPayable{}, err
	}
	p.UpdatedAt = now
	return p, nil
}

// Save inserts a new record or overwrites an existing one.
func (s *Store) Save(ctx context.Context, p core.AccountsPayable) (core.AccountsPayable, error) {
	saved, err := s.save(ctx, s.db, p, s.now().UTC())
	if err != nil {
		return core.AccountsPayable{}, fmt.Errorf("upsert accounts_payable: %w", err)
	}
	return saved, nil
}

// SaveAll inserts the records in one transaction.
func (s *Store) SaveAll(ctx context.Context, ps []core.AccountsPayable) ([]core.AccountsPayable, error) {
	if len(ps) == 0 {
		return []core.AccountsPayable{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now().UTC()
	out := make([]core.AccountsPayable, len(ps))
	for i, p := range ps {
		if out[i], err = s.save(ctx, tx, p, now); err != nil {
			return nil, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accounts_payable batch: %w", err)
	}
	return out, nil
}

// FindByID returns the record with id, if any.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (core.AccountsPayable, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM accounts_payable WHERE id = ?`, id.String())
	p, err := scanPayable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AccountsPayable{}, false, nil
	}
	if err != nil {
		return core.AccountsPayable{}, false, err
	}
	return p, true, nil
}

// FindAll pages over every record.
func (s *Store) FindAll(ctx context.Context, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "1 = 1", nil, page)
}

// FindByDueDate pages over records due on dueDate.
func (s *Store) FindByDueDate(ctx context.Context, dueDate civil.Date, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "due_date = ?", []any{dueDate.String()}, page)
}

// FindByDescriptionContaining matches description as a case-sensitive substring.
func (s *Store) FindByDescriptionContaining(ctx context.Context, description string, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "instr(description, ?) > 0", []any{description}, page)
}

// FindByDueDateAndDescription combines both filters.
func (s *Store) FindByDueDateAndDescription(ctx context.Context, dueDate civil.Date, description string, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "due_date = ? AND instr(description, ?) > 0",
		[]any{dueDate.String(), description}, page)
}

// FindByDueDateRange returns every record due within [start, end].
func (s *Store) FindByDueDateRange(ctx context.Context, start, end civil.Date) ([]core.AccountsPayable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM accounts_payable
		 WHERE due_date BETWEEN ? AND ?
		 ORDER BY due_date, seq`,
		start.String(), end.String())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) findPage(ctx context.Context, where string, args []any, page core.Page) (core.PageResult, error) {
	res := core.PageResult{Number: page.Number, Size: page.Size}

	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM accounts_payable WHERE `+where, args...,
	).Scan(&res.Total); err != nil {
		return core.PageResult{}, fmt.Errorf("count accounts_payable: %w", err)
	}

	query := `SELECT ` + columns + ` FROM accounts_payable WHERE ` + where + ` ORDER BY due_date, seq`
	if !page.Unpaged() {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.PageResult{}, err
	}
	if res.Items, err = collect(rows); err != nil {
		return core.PageResult{}, err
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func collect(rows *sql.Rows) ([]core.AccountsPayable, error) {
	defer rows.Close()

	out := []core.AccountsPayable{}
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayable(row scanner) (core.AccountsPayable, error) {
	var (
		p                    core.AccountsPayable
		id, amount, dueDate  string
		paidOn               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &amount, &p.Description, &dueDate, &paidOn, &p.Status, &createdAt, &updatedAt); err != nil {
		return core.AccountsPayable{}, err
	}

	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return core.AccountsPayable{}, fmt.Errorf("accounts_payable id %q: %w", id, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.AccountsPayable{}, fmt.Errorf("accounts_payable %s amount: %w", id, err)
	}
	if p.DueDate, err = civil.ParseDate(dueDate); err != nil {
		return core.AccountsPayable{}, fmt.Errorf("accounts_payable %s due_date: %w", id, err)
	}
	if paidOn.Valid {
		d, err := civil.ParseDate(paidOn.String)
		if err != nil {
			return core.AccountsPayable{}, fmt.Errorf("accounts_payable %s payment_date: %w", id, err)
		}
		p.PaymentDate = &d
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.AccountsPayable{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.AccountsPayable{}, err
	}
	return p, nil
}

func nullDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
