package core

// ingest.go turns an uploaded CSV file into unsaved payable records.
//
// File-level problems (empty upload, wrong format, bad header, stream failure)
// abort the whole call. Row-level problems never do: the row is recorded in
// IngestResult.Skipped and the next row is parsed.

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/JonMunkholm/payables/internal/logging"
)

// CSVContentTypes are the declared content types accepted as CSV.
var CSVContentTypes = []string{"text/csv", "application/vnd.ms-excel"}

// Upload is a file handed to the ingestion pipeline.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64 // -1 when unknown
	Body        io.Reader
}

// RowDiagnostic explains why a data row was skipped.
type RowDiagnostic struct {
	Line   int    `json:"line"`   // 1-based line in the file
	Record int    `json:"record"` // 1-based data record number
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// IngestResult accumulates the parsed records and the skipped rows.
type IngestResult struct {
	FileName  string            `json:"fileName"`
	TotalRows int               `json:"totalRows"`
	Records   []AccountsPayable `json:"-"`
	Skipped   []RowDiagnostic   `json:"skipped"`
	Duration  time.Duration     `json:"-"`

	lines   []int // file line of each entry in Records
	records []int // data record number of each entry in Records
}

// IngestBytes is a convenience wrapper around Ingest for in-memory files.
func IngestBytes(ctx context.Context, data []byte, contentType, fileName string) (IngestResult, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	return Ingest(ctx, Upload{
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        body,
	})
}

// Ingest parses an uploaded CSV file.
func Ingest(ctx context.Context, u Upload) (IngestResult, error) {
	start := time.Now()
	result, err := ingest(ctx, u)
	result.Duration = time.Since(start)
	observeIngest(result, err)
	return result, err
}

func ingest(ctx context.Context, u Upload) (IngestResult, error) {
	result := IngestResult{FileName: u.FileName}
	log := logging.WithFields(ctx, "file", u.FileName)

	if u.Body == nil || u.Size == 0 {
		return result, ErrEmptyFile
	}

	wrapped, counter := wrapForIngest(u.Body)
	br := bufio.NewReader(wrapped)
	if _, err := br.Peek(1); err != nil {
		if err != io.EOF {
			return result, ioFailure(err)
		}
		if counter.BytesRead == 0 {
			return result, ErrEmptyFile
		}
	}

	if !IsCSV(u.ContentType, u.FileName) {
		return result, fmt.Errorf("%w: content type %q, file %q", ErrUnsupportedFormat, u.ContentType, u.FileName)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		var pe *csv.ParseError
		switch {
		case err == io.EOF:
			return result, fmt.Errorf("%w: no header row", ErrMalformedFile)
		case errors.As(err, &pe):
			return result, fmt.Errorf("%w: header: %v", ErrMalformedFile, err)
		default:
			return result, ioFailure(err)
		}
	}

	mapping, err := NormalizeHeader(header)
	if err != nil {
		return result, err
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return IngestResult{FileName: u.FileName}, ioFailure(err)
			}
			if pe.Line > pe.StartLine {
				// A quoted field ran past its line; the following rows cannot be recovered.
				return IngestResult{FileName: u.FileName},
					fmt.Errorf("%w: unterminated quoted field starting on line %d", ErrMalformedFile, pe.StartLine)
			}
			result.TotalRows++
			result.skip(log, RowDiagnostic{
				Line:   pe.StartLine,
				Record: result.TotalRows,
				Reason: pe.Err.Error(),
			})
			continue
		}

		if isEmptyRow(row) {
			continue
		}
		result.TotalRows++
		line, _ := r.FieldPos(0)
		sanitizeRow(row)

		p, err := ParseRow(row, mapping)
		if err != nil {
			d := RowDiagnostic{Line: line, Record: result.TotalRows, Reason: err.Error()}
			var rpe *RowParseError
			if errors.As(err, &rpe) {
				d.Field = rpe.Field
				d.Value = rpe.Value
			}
			result.skip(log, d)
			continue
		}
		result.Records = append(result.Records, p)
		result.lines = append(result.lines, line)
		result.records = append(result.records, result.TotalRows)
	}

	log.Info("csv ingested",
		"rows", result.TotalRows,
		"parsed", len(result.Records),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (r *IngestResult) skip(log *slog.Logger, d RowDiagnostic) {
	log.Warn("skipping csv row",
		"line", d.Line,
		"record", d.Record,
		"reason", d.Reason,
	)
	r.Skipped = append(r.Skipped, d)
}

// IsCSV reports whether either the declared content type or the file name
// identifies the upload as CSV.
func IsCSV(contentType, fileName string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		for _, ct := range CSVContentTypes {
			if strings.EqualFold(mediaType, ct) {
				return true
			}
		}
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".csv")
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeRow replaces invalid UTF-8 so descriptions stay storable.
func sanitizeRow(row []string) {
	for i, v := range row {
		row[i] = strings.ToValidUTF8(v, "\uFFFD")
	}
}
