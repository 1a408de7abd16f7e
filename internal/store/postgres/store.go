// Package postgres is the PostgreSQL Repository built on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/core"
)

const columns = `id, amount, description, due_date, payment_date, status, created_at, updated_at`

const upsertSQL = `
	INSERT INTO accounts_payable (id, amount, description, due_date, payment_date, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		amount       = EXCLUDED.amount,
		description  = EXCLUDED.description,
		due_date     = EXCLUDED.due_date,
		payment_date = EXCLUDED.payment_date,
		status       = EXCLUDED.status,
		updated_at   = now()
	RETURNING created_at, updated_at`

// Store implements core.Repository over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Repository = (*Store)(nil)

// Open connects to PostgreSQL with the configured pool settings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func upsertArgs(p core.AccountsPayable) []any {
	return []any{
		toPgUUID(p.ID),
		toPgNumeric(p.Amount),
		p.Description,
		toPgDate(p.DueDate),
		toPgDatePtr(p.PaymentDate),
		p.Status,
	}
}

// Save inserts a new record or overwrites an existing one.
func (s *Store) Save(ctx context.Context, p core.AccountsPayable) (core.AccountsPayable, error) {
	if p.IsNew() {
		p.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, upsertSQL, upsertArgs(p)...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return core.AccountsPayable{}, fmt.Errorf("upsert accounts_payable: %w", err)
	}
	return p, nil
}

// SaveAll inserts the records as one batch inside a transaction.
// Either every record is saved or none is.
func (s *Store) SaveAll(ctx context.Context, ps []core.AccountsPayable) ([]core.AccountsPayable, error) {
	if len(ps) == 0 {
		return []core.AccountsPayable{}, nil
	}

	out := make([]core.AccountsPayable, len(ps))
	batch := &pgx.Batch{}
	for i, p := range ps {
		if p.IsNew() {
			p.ID = uuid.New()
		}
		out[i] = p
		batch.Queue(upsertSQL, upsertArgs(p)...)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := range out {
			if err := br.QueryRow().Scan(&out[i].CreatedAt, &out[i].UpdatedAt); err != nil {
				br.Close()
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("batch insert accounts_payable: %w", err)
	}
	return out, nil
}

// FindByID returns the record with id, if any.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (core.AccountsPayable, bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM accounts_payable WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return core.AccountsPayable{}, false, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPayable)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.AccountsPayable{}, false, nil
	}
	if err != nil {
		return core.AccountsPayable{}, false, err
	}
	return p, true, nil
}

// FindAll pages over every record.
func (s *Store) FindAll(ctx context.Context, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "TRUE", nil, page)
}

// FindByDueDate pages over records due on dueDate.
func (s *Store) FindByDueDate(ctx context.Context, dueDate civil.Date, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "due_date = $1", []any{toPgDate(dueDate)}, page)
}

// FindByDescriptionContaining matches description as a case-sensitive substring.
func (s *Store) FindByDescriptionContaining(ctx context.Context, description string, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "strpos(description, $1) > 0", []any{description}, page)
}

// FindByDueDateAndDescription combines both filters.
func (s *Store) FindByDueDateAndDescription(ctx context.Context, dueDate civil.Date, description string, page core.Page) (core.PageResult, error) {
	return s.findPage(ctx, "due_date = $1 AND strpos(description, $2) > 0",
		[]any{toPgDate(dueDate), description}, page)
}

// FindByDueDateRange returns every record due within [start, end].
func (s *Store) FindByDueDateRange(ctx context.Context, start, end civil.Date) ([]core.AccountsPayable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM accounts_payable
		 WHERE due_date BETWEEN $1 AND $2
		 ORDER BY due_date, seq`,
		toPgDate(start), toPgDate(end))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPayable)
}

func (s *Store) findPage(ctx context.Context, where string, args []any, page core.Page) (core.PageResult, error) {
	res := core.PageResult{Number: page.Number, Size: page.Size}

	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM accounts_payable WHERE `+where, args...,
	).Scan(&res.Total); err != nil {
		return core.PageResult{}, fmt.Errorf("count accounts_payable: %w", err)
	}

	query := `SELECT ` + columns + ` FROM accounts_payable WHERE ` + where + ` ORDER BY due_date, seq`
	if !page.Unpaged() {
		n := len(args)
		query += ` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return core.PageResult{}, err
	}
	items, err := pgx.CollectRows(rows, scanPayable)
	if err != nil {
		return core.PageResult{}, err
	}
	res.Items = items
	return res, nil
}

func scanPayable(row pgx.CollectableRow) (core.AccountsPayable, error) {
	var (
		p       core.AccountsPayable
		id      pgtype.UUID
		amount  pgtype.Numeric
		dueDate pgtype.Date
		paidOn  pgtype.Date
	)
	if err := row.Scan(&id, &amount, &p.Description, &dueDate, &paidOn, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return core.AccountsPayable{}, err
	}

	var err error
	if p.Amount, err = fromPgNumeric(amount); err != nil {
		return core.AccountsPayable{}, fmt.Errorf("accounts_payable %s: %w", fromPgUUID(id), err)
	}
	p.ID = fromPgUUID(id)
	p.DueDate = fromPgDate(dueDate)
	p.PaymentDate = fromPgDatePtr(paidOn)
	return p, nil
}
