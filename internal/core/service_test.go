package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeRepo records which finder ran and how often records were saved.
type fakeRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]AccountsPayable
	calls   []string
	saves   int
	saveErr error
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo(ps ...AccountsPayable) *fakeRepo {
	r := &fakeRepo{records: make(map[uuid.UUID]AccountsPayable)}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.records[p.ID] = p
	}
	return r
}

func (r *fakeRepo) called(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

func (r *fakeRepo) Save(_ context.Context, p AccountsPayable) (AccountsPayable, error) {
	r.called("Save")
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return AccountsPayable{}, r.saveErr
	}
	r.saves++
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.records[p.ID] = p
	return p, nil
}

func (r *fakeRepo) SaveAll(ctx context.Context, ps []AccountsPayable) ([]AccountsPayable, error) {
	r.called("SaveAll")
	out := make([]AccountsPayable, 0, len(ps))
	for _, p := range ps {
		saved, err := r.Save(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (AccountsPayable, bool, error) {
	r.called("FindByID")
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	return p, ok, nil
}

func (r *fakeRepo) FindAll(context.Context, Page) (PageResult, error) {
	r.called("FindAll")
	return PageResult{}, nil
}

func (r *fakeRepo) FindByDueDate(context.Context, civil.Date, Page) (PageResult, error) {
	r.called("FindByDueDate")
	return PageResult{}, nil
}

func (r *fakeRepo) FindByDescriptionContaining(context.Context, string, Page) (PageResult, error) {
	r.called("FindByDescriptionContaining")
	return PageResult{}, nil
}

func (r *fakeRepo) FindByDueDateAndDescription(context.Context, civil.Date, string, Page) (PageResult, error) {
	r.called("FindByDueDateAndDescription")
	return PageResult{}, nil
}

func (r *fakeRepo) FindByDueDateRange(_ context.Context, start, end civil.Date) ([]AccountsPayable, error) {
	r.called("FindByDueDateRange")
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AccountsPayable
	for _, p := range r.records {
		if !p.DueDate.Before(start) && !p.DueDate.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func TestService_CreateRejectsZeroAmount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, Options{})

	p := validRecord()
	p.Amount = decimal.Zero
	_, err := svc.Create(context.Background(), p)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "amount") {
		t.Errorf("error %q does not mention amount", err)
	}
	if repo.saves != 0 {
		t.Errorf("Save called %d times on invalid record", repo.saves)
	}
}

func TestService_CreateAssignsIDAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	events := &recordingPublisher{}
	svc := NewService(repo, events, Options{})

	p := validRecord()
	p.ID = uuid.New()
	saved, err := svc.Create(ContextWithRequestID(context.Background(), "req-1"), p)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if saved.ID == uuid.Nil || saved.ID == p.ID {
		t.Errorf("Create should let the repository assign a new id, got %s", saved.ID)
	}
	if len(events.events) != 1 || events.events[0].Type != EventCreated {
		t.Fatalf("events = %+v, want one %s", events.events, EventCreated)
	}
	if got := events.events[0].Meta["request_id"]; got != "req-1" {
		t.Errorf("event request_id = %q, want req-1", got)
	}
}

func TestService_PublishFailureDoesNotFailCreate(t *testing.T) {
	svc := NewService(newFakeRepo(), &recordingPublisher{err: errors.New("broker down")}, Options{})
	if _, err := svc.Create(context.Background(), validRecord()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
}

func TestService_UpdateValidatesReplacement(t *testing.T) {
	stored := validRecord()
	stored.ID = uuid.New()
	stored.Amount = decimal.Zero // invalid original must not block a valid update
	repo := newFakeRepo(stored)
	svc := NewService(repo, nil, Options{})

	paid := date(2025, 2, 12)
	good := Replacement{
		Amount:      decimal.NewFromInt(75),
		Description: "Updated rent",
		DueDate:     date(2025, 2, 11),
		PaymentDate: &paid,
		Status:      "PAID",
	}
	updated, err := svc.Update(context.Background(), stored.ID, good)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != stored.ID || !updated.Amount.Equal(good.Amount) || updated.Status != "PAID" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.PaymentDate == nil || *updated.PaymentDate != paid {
		t.Errorf("PaymentDate = %v, want %v", updated.PaymentDate, paid)
	}

	bad := good
	bad.Amount = decimal.Zero
	saves := repo.saves
	_, err = svc.Update(context.Background(), stored.ID, bad)
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "amount") {
		t.Fatalf("expected amount validation error, got %v", err)
	}
	if repo.saves != saves {
		t.Error("invalid replacement was saved")
	}
}

func TestService_UpdateMissing(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, Options{})
	id := uuid.New()
	_, err := svc.Update(context.Background(), id, Replacement{Amount: decimal.NewFromInt(1), Description: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), id.String()) {
		t.Errorf("error %q does not name the id", err)
	}
}

func TestService_PatchStatus(t *testing.T) {
	stored := validRecord()
	stored.ID = uuid.New()
	repo := newFakeRepo(stored)
	events := &recordingPublisher{}
	svc := NewService(repo, events, Options{})

	got, err := svc.PatchStatus(context.Background(), stored.ID, "PAID")
	if err != nil {
		t.Fatalf("PatchStatus failed: %v", err)
	}
	if got.Status != "PAID" || got.Description != stored.Description || !got.Amount.Equal(stored.Amount) {
		t.Errorf("patched = %+v", got)
	}
	if len(events.events) != 1 || events.events[0].Type != EventStatusChanged {
		t.Errorf("events = %+v", events.events)
	}
}

func TestService_PatchStatusMissingNeverSaves(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, Options{})

	_, err := svc.PatchStatus(context.Background(), uuid.New(), "PAID")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.saves != 0 {
		t.Errorf("Save called %d times", repo.saves)
	}
}

func TestService_ByID(t *testing.T) {
	stored := validRecord()
	stored.ID = uuid.New()
	svc := NewService(newFakeRepo(stored), nil, Options{})

	got, err := svc.ByID(context.Background(), stored.ID)
	if err != nil || got.ID != stored.ID {
		t.Fatalf("ByID = %+v, %v", got, err)
	}

	missing := uuid.New()
	_, err = svc.ByID(context.Background(), missing)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != missing {
		t.Errorf("expected *NotFoundError for %s, got %v", missing, err)
	}
}

func TestService_QueryDispatch(t *testing.T) {
	due := date(2025, 2, 10)
	desc := "rent"

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"both filters", Query{DueDate: &due, Description: &desc}, "FindByDueDateAndDescription"},
		{"due date only", Query{DueDate: &due}, "FindByDueDate"},
		{"description only", Query{Description: &desc}, "FindByDescriptionContaining"},
		{"no filters", Query{}, "FindAll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := NewService(repo, nil, Options{})
			if _, err := svc.Query(context.Background(), tt.query); err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(repo.calls) != 1 || repo.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", repo.calls, tt.want)
			}
		})
	}
}

func TestService_TotalPaid(t *testing.T) {
	in1, in2, out := validRecord(), validRecord(), validRecord()
	in1.Amount, in1.DueDate = decimal.NewFromInt(100), date(2025, 1, 1)
	in2.Amount, in2.DueDate = decimal.NewFromInt(200), date(2025, 1, 31)
	out.Amount, out.DueDate = decimal.NewFromInt(999), date(2025, 2, 1)
	svc := NewService(newFakeRepo(in1, in2, out), nil, Options{})

	total, err := svc.TotalPaid(context.Background(), date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatalf("TotalPaid failed: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(300)) {
		t.Errorf("total = %s, want 300", total)
	}

	total, err = svc.TotalPaid(context.Background(), date(2024, 1, 1), date(2024, 12, 31))
	if err != nil {
		t.Fatalf("TotalPaid failed: %v", err)
	}
	if !total.Equal(decimal.Zero) {
		t.Errorf("total = %s, want 0", total)
	}
}

func TestService_TotalPaidInvalidRange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, Options{})

	_, err := svc.TotalPaid(context.Background(), date(2025, 2, 1), date(2025, 1, 1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if len(repo.calls) != 0 {
		t.Errorf("repository called: %v", repo.calls)
	}
}

func TestService_BulkCreateEmpty(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, Options{})

	saved, err := svc.BulkCreate(context.Background(), nil)
	if err != nil || len(saved) != 0 {
		t.Fatalf("BulkCreate(nil) = %v, %v", saved, err)
	}
	if len(repo.calls) != 0 {
		t.Errorf("repository called: %v", repo.calls)
	}
}

func TestService_ImportCSV(t *testing.T) {
	content := "amount,description,duedate,status\n" +
		"abc,Invalid,2025-01-01,PENDENTE\n" +
		"100,Valid,2025-01-01,PENDENTE\n" +
		"0,Zero,2025-01-02,PENDENTE\n" +
		"5,,2025-01-03,PENDENTE\n"

	tests := []struct {
		name         string
		validate     bool
		wantInserted int
		wantSkipped  int
	}{
		{"saved as parsed", false, 3, 1},
		{"validated on import", true, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			events := &recordingPublisher{}
			svc := NewService(repo, events, Options{ValidateOnImport: tt.validate})

			res, err := svc.ImportCSV(context.Background(), Upload{
				FileName:    "payables.csv",
				ContentType: "text/csv",
				Size:        int64(len(content)),
				Body:        strings.NewReader(content),
			})
			if err != nil {
				t.Fatalf("ImportCSV failed: %v", err)
			}
			if res.TotalRows != 4 {
				t.Errorf("TotalRows = %d, want 4", res.TotalRows)
			}
			if res.Inserted != tt.wantInserted || len(res.Records) != tt.wantInserted {
				t.Errorf("Inserted = %d (%d records), want %d", res.Inserted, len(res.Records), tt.wantInserted)
			}
			if len(res.Skipped) != tt.wantSkipped {
				t.Errorf("Skipped = %+v, want %d entries", res.Skipped, tt.wantSkipped)
			}
			if len(events.events) != 1 || events.events[0].Type != EventImported || events.events[0].FileName != "payables.csv" {
				t.Errorf("events = %+v", events.events)
			}
			if svc.ImportLimiterStatus().Active != 0 {
				t.Error("import slot not released")
			}
		})
	}
}

func TestService_ImportCSVValidationDiagnostics(t *testing.T) {
	content := "amount,description,duedate,status\n100,Ok,2025-01-01,P\n0,Zero,2025-01-01,P\n"
	svc := NewService(newFakeRepo(), nil, Options{ValidateOnImport: true})

	res, err := svc.ImportCSV(context.Background(), Upload{
		FileName: "a.csv", ContentType: "text/csv", Size: -1, Body: strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	if d := res.Skipped[0]; d.Line != 3 || d.Record != 2 || d.Field != "amount" {
		t.Errorf("diagnostic = %+v, want line 3 record 2 field amount", d)
	}
}

func TestService_ImportCSVDiagnosticsInFileOrder(t *testing.T) {
	content := strings.Join([]string{
		"amount,description,duedate,status",
		"0,Zero,2025-01-01,P",
		"x,Bad,2025-01-01,P",
		"100,Ok,2025-01-01,P",
		"-5,Negative,2025-01-01,P",
		"",
	}, "\n")
	svc := NewService(newFakeRepo(), nil, Options{ValidateOnImport: true})

	res, err := svc.ImportCSV(context.Background(), Upload{
		FileName: "a.csv", ContentType: "text/csv", Size: -1, Body: strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if res.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", res.Inserted)
	}

	want := []struct{ line, record int }{{2, 1}, {3, 2}, {5, 4}}
	if len(res.Skipped) != len(want) {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	for i, w := range want {
		if d := res.Skipped[i]; d.Line != w.line || d.Record != w.record {
			t.Errorf("skipped[%d] = %+v, want line %d record %d", i, d, w.line, w.record)
		}
	}
}

func TestService_ImportCSVFileErrorSavesNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, Options{})

	_, err := svc.ImportCSV(context.Background(), Upload{
		FileName: "a.csv", ContentType: "text/csv", Size: -1,
		Body: strings.NewReader("amount,description,duedate\n1,a,2025-01-01\n"),
	})
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
	if repo.saves != 0 {
		t.Errorf("Save called %d times", repo.saves)
	}
}

func TestService_ImportCSVBusy(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, Options{MaxConcurrentImports: 1, ImportWait: 20 * time.Millisecond})
	if !svc.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer svc.limiter.Release()

	_, err := svc.ImportCSV(context.Background(), Upload{
		FileName: "a.csv", ContentType: "text/csv", Size: -1, Body: strings.NewReader("x"),
	})
	if !errors.Is(err, ErrTooManyImports) {
		t.Fatalf("expected ErrTooManyImports, got %v", err)
	}
}
