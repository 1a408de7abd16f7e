package core

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountsPayable is a single payable record.
type AccountsPayable struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DueDate     civil.Date      `json:"dueDate"`
	PaymentDate *civil.Date     `json:"paymentDate,omitempty"` // nil until paid
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsNew reports whether the record has not been persisted yet.
func (p AccountsPayable) IsNew() bool {
	return p.ID == uuid.Nil
}

// Replacement holds the values written by a whole-record update.
type Replacement struct {
	Amount      decimal.Decimal
	Description string
	DueDate     civil.Date
	PaymentDate *civil.Date
	Status      string
}

// ApplyTo returns a copy of p carrying the replacement values.
// ID and audit timestamps are left as they are.
func (r Replacement) ApplyTo(p AccountsPayable) AccountsPayable {
	p.DueDate = r.DueDate
	p.PaymentDate = clonePaymentDate(r.PaymentDate)
	p.Amount = r.Amount
	p.Description = r.Description
	p.Status = r.Status
	return p
}

// asRecord projects the replacement onto an unsaved record so it can be validated.
func (r Replacement) asRecord() AccountsPayable {
	return r.ApplyTo(AccountsPayable{})
}

// PayableRequest is the payload of an interactive create or update.
type PayableRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	DueDate     *civil.Date      `json:"dueDate"`
	PaymentDate *civil.Date      `json:"paymentDate,omitempty"`
	Status      string           `json:"status"`
}

// BuildFromRequest maps a request payload onto an unsaved record.
// Missing values map to their zero value and are caught by Validate.
func BuildFromRequest(req PayableRequest) AccountsPayable {
	p := AccountsPayable{
		Description: req.Description,
		PaymentDate: clonePaymentDate(req.PaymentDate),
		Status:      req.Status,
	}
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.DueDate != nil {
		p.DueDate = *req.DueDate
	}
	return p
}

// ReplacementFromRequest maps a request payload onto update values.
func ReplacementFromRequest(req PayableRequest) Replacement {
	p := BuildFromRequest(req)
	return Replacement{
		Amount:      p.Amount,
		Description: p.Description,
		DueDate:     p.DueDate,
		PaymentDate: p.PaymentDate,
		Status:      p.Status,
	}
}

func clonePaymentDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Page selects a window of a result set. Size 0 means unpaged.
type Page struct {
	Number int // 0-based
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Size <= 0 || p.Number <= 0 {
		return 0
	}
	return p.Number * p.Size
}

// Unpaged reports whether the whole result set is requested.
func (p Page) Unpaged() bool {
	return p.Size <= 0
}

// PageResult is one window of a filtered result set.
type PageResult struct {
	Items  []AccountsPayable `json:"items"`
	Total  int64             `json:"total"`
	Number int               `json:"page"`
	Size   int               `json:"size"`
}

// TotalPages returns the number of pages for the current size.
func (r PageResult) TotalPages() int {
	if r.Size <= 0 {
		if r.Total > 0 {
			return 1
		}
		return 0
	}
	return int((r.Total + int64(r.Size) - 1) / int64(r.Size))
}

// Query carries the optional filters of a listing request.
type Query struct {
	DueDate     *civil.Date
	Description *string
	Page        Page
}

// Repository is the persistence collaborator of the ledger service.
// Implementations assign IDs on first save and maintain audit timestamps.
// Finders return records ordered by due date, then insertion order.
type Repository interface {
	Save(ctx context.Context, p AccountsPayable) (AccountsPayable, error)
	SaveAll(ctx context.Context, ps []AccountsPayable) ([]AccountsPayable, error)
	FindByID(ctx context.Context, id uuid.UUID) (AccountsPayable, bool, error)
	FindAll(ctx context.Context, page Page) (PageResult, error)
	FindByDueDate(ctx context.Context, dueDate civil.Date, page Page) (PageResult, error)
	FindByDescriptionContaining(ctx context.Context, description string, page Page) (PageResult, error)
	FindByDueDateAndDescription(ctx context.Context, dueDate civil.Date, description string, page Page) (PageResult, error)
	FindByDueDateRange(ctx context.Context, start, end civil.Date) ([]AccountsPayable, error)
}

// EventType names a domain event emitted after a successful mutation.
type EventType string

const (
	EventCreated       EventType = "payable.created"
	EventUpdated       EventType = "payable.updated"
	EventStatusChanged EventType = "payable.status_changed"
	EventImported      EventType = "payable.imported"
)

// Event describes a persisted change.
type Event struct {
	Type       EventType         `json:"type"`
	PayableIDs []uuid.UUID       `json:"payableIds"`
	Status     string            `json:"status,omitempty"`
	FileName   string            `json:"fileName,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// EventPublisher delivers domain events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
