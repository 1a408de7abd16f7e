package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/JonMunkholm/payables/internal/logging"
)

// ImportResult reports the outcome of ImportCSV.
type ImportResult struct {
	FileName  string            `json:"fileName"`
	TotalRows int               `json:"totalRows"`
	Inserted  int               `json:"inserted"`
	Skipped   []RowDiagnostic   `json:"skipped"`
	Records   []AccountsPayable `json:"records"`
	Duration  string            `json:"duration"`
}

// ImportCSV ingests an uploaded CSV file and saves the surviving rows as one
// batch. Rows that fail to parse are reported in Skipped. When ValidateOnImport
// is set, rows failing Validate are reported there as well.
func (s *Service) ImportCSV(ctx context.Context, u Upload) (ImportResult, error) {
	start := s.now()

	if err := s.limiter.Acquire(ctx); err != nil {
		observeOp("import", err)
		return ImportResult{}, err
	}
	defer s.limiter.Release()

	res, err := s.importCSV(ctx, u)
	observeOp("import", err)
	if err != nil {
		return ImportResult{}, err
	}

	res.Duration = s.now().Sub(start).Round(time.Millisecond).String()
	logging.FromContext(ctx).Info("csv import complete",
		"file", res.FileName,
		"rows", res.TotalRows,
		"inserted", res.Inserted,
		"skipped", len(res.Skipped),
		"duration", res.Duration,
	)
	return res, nil
}

func (s *Service) importCSV(ctx context.Context, u Upload) (ImportResult, error) {
	ingested, err := Ingest(ctx, u)
	if err != nil {
		return ImportResult{}, err
	}

	records := ingested.Records
	skipped := ingested.Skipped
	if s.opts.ValidateOnImport {
		records, skipped = validateImported(ingested)
		IngestRows.WithLabelValues("invalid").Add(float64(len(skipped) - len(ingested.Skipped)))
	}

	saved, err := s.bulkCreate(ctx, records, ingested.FileName)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", ingested.FileName, err)
	}

	if skipped == nil {
		skipped = []RowDiagnostic{}
	}
	return ImportResult{
		FileName:  ingested.FileName,
		TotalRows: ingested.TotalRows,
		Inserted:  len(saved),
		Skipped:   skipped,
		Records:   saved,
	}, nil
}

// validateImported drops records failing Validate and reports them next to
// the parse diagnostics, ordered by file line.
func validateImported(in IngestResult) ([]AccountsPayable, []RowDiagnostic) {
	kept := make([]AccountsPayable, 0, len(in.Records))
	skipped := append([]RowDiagnostic(nil), in.Skipped...)

	for i, p := range in.Records {
		err := Validate(p)
		if err == nil {
			kept = append(kept, p)
			continue
		}
		d := RowDiagnostic{Reason: err.Error()}
		if i < len(in.lines) {
			d.Line = in.lines[i]
			d.Record = in.records[i]
		}
		if ve, ok := err.(*ValidationError); ok {
			d.Field = ve.Field
		}
		skipped = append(skipped, d)
	}

	slices.SortStableFunc(skipped, func(a, b RowDiagnostic) int {
		return cmp.Compare(a.Line, b.Line)
	})
	return kept, skipped
}
