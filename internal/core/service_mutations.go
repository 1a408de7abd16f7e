package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Create validates p and persists it as a new record.
func (s *Service) Create(ctx context.Context, p AccountsPayable) (AccountsPayable, error) {
	saved, err := s.create(ctx, p)
	observeOp("create", err)
	return saved, err
}

func (s *Service) create(ctx context.Context, p AccountsPayable) (AccountsPayable, error) {
	if err := Validate(p); err != nil {
		return AccountsPayable{}, err
	}

	p.ID = uuid.Nil
	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return AccountsPayable{}, fmt.Errorf("save accounts payable: %w", err)
	}

	s.publish(ctx, Event{
		Type:       EventCreated,
		PayableIDs: []uuid.UUID{saved.ID},
		Status:     saved.Status,
	})
	return saved, nil
}

// BulkCreate persists ps as one batch without validating them.
// Callers filter the batch beforehand if they need to.
func (s *Service) BulkCreate(ctx context.Context, ps []AccountsPayable) ([]AccountsPayable, error) {
	saved, err := s.bulkCreate(ctx, ps, "")
	observeOp("bulk_create", err)
	return saved, err
}

func (s *Service) bulkCreate(ctx context.Context, ps []AccountsPayable, fileName string) ([]AccountsPayable, error) {
	if len(ps) == 0 {
		return []AccountsPayable{}, nil
	}

	batch := make([]AccountsPayable, len(ps))
	for i, p := range ps {
		p.ID = uuid.Nil
		batch[i] = p
	}

	saved, err := s.repo.SaveAll(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save %d accounts payable: %w", len(batch), err)
	}

	ids := make([]uuid.UUID, len(saved))
	for i, p := range saved {
		ids[i] = p.ID
	}
	s.publish(ctx, Event{
		Type:       EventImported,
		PayableIDs: ids,
		FileName:   fileName,
	})
	return saved, nil
}

// Update replaces the due date, payment date, amount, description and status
// of an existing record. The replacement values are validated, not the stored ones.
func (s *Service) Update(ctx context.Context, id uuid.UUID, r Replacement) (AccountsPayable, error) {
	saved, err := s.update(ctx, id, r)
	observeOp("update", err)
	return saved, err
}

func (s *Service) update(ctx context.Context, id uuid.UUID, r Replacement) (AccountsPayable, error) {
	existing, err := s.lookup(ctx, id)
	if err != nil {
		return AccountsPayable{}, err
	}

	if err := Validate(r.asRecord()); err != nil {
		return AccountsPayable{}, err
	}

	saved, err := s.repo.Save(ctx, r.ApplyTo(existing))
	if err != nil {
		return AccountsPayable{}, fmt.Errorf("save accounts payable %s: %w", id, err)
	}

	s.publish(ctx, Event{
		Type:       EventUpdated,
		PayableIDs: []uuid.UUID{saved.ID},
		Status:     saved.Status,
	})
	return saved, nil
}

// PatchStatus overwrites only the status of an existing record.
// The new status is not validated.
func (s *Service) PatchStatus(ctx context.Context, id uuid.UUID, status string) (AccountsPayable, error) {
	saved, err := s.patchStatus(ctx, id, status)
	observeOp("patch_status", err)
	return saved, err
}

func (s *Service) patchStatus(ctx context.Context, id uuid.UUID, status string) (AccountsPayable, error) {
	existing, err := s.lookup(ctx, id)
	if err != nil {
		return AccountsPayable{}, err
	}

	existing.Status = status
	saved, err := s.repo.Save(ctx, existing)
	if err != nil {
		return AccountsPayable{}, fmt.Errorf("save accounts payable %s: %w", id, err)
	}

	s.publish(ctx, Event{
		Type:       EventStatusChanged,
		PayableIDs: []uuid.UUID{saved.ID},
		Status:     saved.Status,
	})
	return saved, nil
}

// lookup loads a record or returns a *NotFoundError.
func (s *Service) lookup(ctx context.Context, id uuid.UUID) (AccountsPayable, error) {
	p, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return AccountsPayable{}, fmt.Errorf("find accounts payable %s: %w", id, err)
	}
	if !ok {
		return AccountsPayable{}, &NotFoundError{ID: id}
	}
	return p, nil
}
