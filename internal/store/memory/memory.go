// Package memory is an in-process Repository used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/JonMunkholm/payables/internal/core"
)

// Store keeps accounts payable in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]entry
	seq     int64
	now     func() time.Time
}

// entry remembers insertion order so ties sort like the SQL stores.
type entry struct {
	p   core.AccountsPayable
	seq int64
}

var _ core.Repository = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		records: make(map[uuid.UUID]entry),
		now:     time.Now,
	}
}

// Save inserts a new record or replaces an existing one.
func (s *Store) Save(_ context.Context, p core.AccountsPayable) (core.AccountsPayable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(p, s.now().UTC()), nil
}

// SaveAll inserts every record under one lock.
func (s *Store) SaveAll(_ context.Context, ps []core.AccountsPayable) ([]core.AccountsPayable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	out := make([]core.AccountsPayable, len(ps))
	for i, p := range ps {
		out[i] = s.save(p, now)
	}
	return out, nil
}

func (s *Store) save(p core.AccountsPayable, now time.Time) core.AccountsPayable {
	if p.IsNew() {
		p.ID = uuid.New()
	}
	e, ok := s.records[p.ID]
	if ok {
		p.CreatedAt = e.p.CreatedAt
	} else {
		s.seq++
		e.seq = s.seq
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.PaymentDate = copyDate(p.PaymentDate)
	e.p = p
	s.records[p.ID] = e
	p.PaymentDate = copyDate(p.PaymentDate)
	return p
}

// FindByID returns the record with id, if any.
func (s *Store) FindByID(_ context.Context, id uuid.UUID) (core.AccountsPayable, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[id]
	if !ok {
		return core.AccountsPayable{}, false, nil
	}
	p := e.p
	p.PaymentDate = copyDate(p.PaymentDate)
	return p, true, nil
}

// FindAll pages over every record.
func (s *Store) FindAll(_ context.Context, page core.Page) (core.PageResult, error) {
	return paginate(s.filter(func(core.AccountsPayable) bool { return true }), page), nil
}

// FindByDueDate pages over records due on dueDate.
func (s *Store) FindByDueDate(_ context.Context, dueDate civil.Date, page core.Page) (core.PageResult, error) {
	return paginate(s.filter(func(p core.AccountsPayable) bool {
		return p.DueDate == dueDate
	}), page), nil
}

// FindByDescriptionContaining pages over records whose description contains
// the given text, case-sensitively.
func (s *Store) FindByDescriptionContaining(_ context.Context, description string, page core.Page) (core.PageResult, error) {
	return paginate(s.filter(func(p core.AccountsPayable) bool {
		return strings.Contains(p.Description, description)
	}), page), nil
}

// FindByDueDateAndDescription combines both filters.
func (s *Store) FindByDueDateAndDescription(_ context.Context, dueDate civil.Date, description string, page core.Page) (core.PageResult, error) {
	return paginate(s.filter(func(p core.AccountsPayable) bool {
		return p.DueDate == dueDate && strings.Contains(p.Description, description)
	}), page), nil
}

// FindByDueDateRange returns every record due within [start, end].
func (s *Store) FindByDueDateRange(_ context.Context, start, end civil.Date) ([]core.AccountsPayable, error) {
	return s.filter(func(p core.AccountsPayable) bool {
		return !p.DueDate.Before(start) && !p.DueDate.After(end)
	}), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Migrate is a no-op; the store has no schema.
func (s *Store) Migrate(context.Context) error { return nil }

// filter returns matching records sorted by due date, then insertion order,
// the same order the SQL stores use.
func (s *Store) filter(keep func(core.AccountsPayable) bool) []core.AccountsPayable {
	s.mu.RLock()
	matched := make([]entry, 0, len(s.records))
	for _, e := range s.records {
		if keep(e.p) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.p.DueDate != b.p.DueDate {
			return a.p.DueDate.Before(b.p.DueDate)
		}
		return a.seq < b.seq
	})

	out := make([]core.AccountsPayable, len(matched))
	for i, e := range matched {
		out[i] = e.p
		out[i].PaymentDate = copyDate(e.p.PaymentDate)
	}
	return out
}

func paginate(items []core.AccountsPayable, page core.Page) core.PageResult {
	res := core.PageResult{
		Total:  int64(len(items)),
		Number: page.Number,
		Size:   page.Size,
	}
	if page.Unpaged() {
		res.Items = items
		return res
	}

	start := page.Offset()
	if start >= len(items) {
		res.Items = []core.AccountsPayable{}
		return res
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	res.Items = items[start:end]
	return res
}

func copyDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
