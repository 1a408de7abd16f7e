package core

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Query returns the records matching the optional due date and description
// filters. Description matches as a case-sensitive substring.
func (s *Service) Query(ctx context.Context, q Query) (PageResult, error) {
	var (
		res PageResult
		err error
	)
	switch {
	case q.DueDate != nil && q.Description != nil:
		res, err = s.repo.FindByDueDateAndDescription(ctx, *q.DueDate, *q.Description, q.Page)
	case q.DueDate != nil:
		res, err = s.repo.FindByDueDate(ctx, *q.DueDate, q.Page)
	case q.Description != nil:
		res, err = s.repo.FindByDescriptionContaining(ctx, *q.Description, q.Page)
	default:
		res, err = s.repo.FindAll(ctx, q.Page)
	}
	if err != nil {
		err = fmt.Errorf("query accounts payable: %w", err)
	}
	observeOp("query", err)
	return res, err
}

// ByID returns one record or a *NotFoundError naming the id.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) (AccountsPayable, error) {
	p, err := s.lookup(ctx, id)
	observeOp("get", err)
	return p, err
}

// TotalPaid sums the amounts of every record due within [start, end].
// Status and payment date are not considered.
func (s *Service) TotalPaid(ctx context.Context, start, end civil.Date) (decimal.Decimal, error) {
	total, err := s.totalPaid(ctx, start, end)
	observeOp("total_paid", err)
	return total, err
}

func (s *Service) totalPaid(ctx context.Context, start, end civil.Date) (decimal.Decimal, error) {
	if start.After(end) {
		return decimal.Zero, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRange, start, end)
	}

	records, err := s.repo.FindByDueDateRange(ctx, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("find accounts payable due %s..%s: %w", start, end, err)
	}

	total := decimal.Zero
	for _, p := range records {
		total = total.Add(p.Amount)
	}
	return total, nil
}
