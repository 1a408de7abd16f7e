package core

import (
	"fmt"
	"strings"
)

// Canonical CSV column names (lower-cased).
const (
	ColAmount      = "amount"
	ColDescription = "description"
	ColDueDate     = "duedate"
	ColStatus      = "status"
	ColPaymentDate = "paymentdate"
)

// RequiredColumns must be present in every import header, in any order and case.
var RequiredColumns = []string{ColAmount, ColDescription, ColDueDate, ColStatus}

const utf8BOM = "\uFEFF"

// HeaderMapping maps lower-cased column names to the header as written in the
// file and to the column position used to read row cells.
type HeaderMapping struct {
	names map[string]string
	index map[string]int
}

// NormalizeHeader builds the mapping for a header row and checks that every
// required column is present. When a name repeats, the first column wins.
func NormalizeHeader(header []string) (HeaderMapping, error) {
	m := HeaderMapping{
		names: make(map[string]string, len(header)),
		index: make(map[string]int, len(header)),
	}
	for i, h := range header {
		original := cleanHeaderCell(h)
		key := strings.ToLower(original)
		if key == "" {
			continue
		}
		if _, dup := m.index[key]; dup {
			continue
		}
		m.names[key] = original
		m.index[key] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !m.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return HeaderMapping{}, fmt.Errorf("%w: missing required columns: %s (expected %s, optionally %s)",
			ErrMalformedFile,
			strings.Join(missing, ", "),
			strings.Join(RequiredColumns, ", "),
			ColPaymentDate,
		)
	}
	return m, nil
}

// Has reports whether the header contains the column.
func (m HeaderMapping) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Original returns the column name as it appears in the file.
func (m HeaderMapping) Original(key string) string {
	return m.names[key]
}

// Cell returns the trimmed cell for key. ok is false when the header lacks the
// column or the row is too short to contain it.
func (m HeaderMapping) Cell(row []string, key string) (value string, ok bool) {
	pos, exists := m.index[key]
	if !exists || pos >= len(row) {
		return "", false
	}
	return CleanCell(row[pos]), true
}

// CleanCell trims surrounding whitespace from a cell value.
func CleanCell(s string) string {
	return strings.TrimSpace(s)
}

// cleanHeaderCell also strips a UTF-8 BOM that survived into the first header cell.
func cleanHeaderCell(s string) string {
	return CleanCell(strings.TrimPrefix(strings.TrimSpace(s), utf8BOM))
}
