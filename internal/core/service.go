package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/payables/internal/logging"
)

// Options tunes the ledger service.
type Options struct {
	// ValidateOnImport runs Validate on every imported row before the bulk
	// save. Off by default: imported rows are saved as parsed.
	ValidateOnImport bool

	// MaxConcurrentImports bounds simultaneous CSV imports.
	MaxConcurrentImports int

	// ImportWait is how long an import waits for a free slot.
	ImportWait time.Duration
}

// Service owns the validation and mutation rules for accounts payable.
// Storage and identity assignment belong to the Repository.
type Service struct {
	repo    Repository
	events  EventPublisher
	limiter *ImportLimiter
	opts    Options
	now     func() time.Time
}

// NewService creates a ledger service over repo. A nil publisher disables events.
func NewService(repo Repository, events EventPublisher, opts Options) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		repo:    repo,
		events:  events,
		limiter: NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		opts:    opts,
		now:     time.Now,
	}
}

// ValidateOnImport reports whether imported rows are validated.
func (s *Service) ValidateOnImport() bool {
	return s.opts.ValidateOnImport
}

// ImportLimiterStatus returns the current import slot usage.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// publish sends an event. Failures are logged and never fail the operation
// that already persisted its changes.
func (s *Service) publish(ctx context.Context, e Event) {
	e.OccurredAt = s.now().UTC()
	e.Meta = requestMeta(ctx)
	if err := s.events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event publish failed",
			"event", e.Type,
			"records", len(e.PayableIDs),
			"error", err,
		)
	}
}
