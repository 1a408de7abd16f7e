package core

import (
	"errors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var errMissingCell = errors.New("column missing from row")

// ParseRow converts one CSV data row into an unsaved record.
// It fails with a *RowParseError naming the offending field and value.
func ParseRow(row []string, m HeaderMapping) (AccountsPayable, error) {
	var p AccountsPayable

	raw, ok := m.Cell(row, ColAmount)
	if !ok {
		return p, missingCell(m, ColAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return p, &RowParseError{Field: m.Original(ColAmount), Value: raw, Err: err}
	}
	p.Amount = amount

	if p.Description, ok = m.Cell(row, ColDescription); !ok {
		return AccountsPayable{}, missingCell(m, ColDescription)
	}

	raw, ok = m.Cell(row, ColDueDate)
	if !ok {
		return AccountsPayable{}, missingCell(m, ColDueDate)
	}
	if p.DueDate, err = parseDate(raw); err != nil {
		return AccountsPayable{}, &RowParseError{Field: m.Original(ColDueDate), Value: raw, Err: err}
	}

	if p.Status, ok = m.Cell(row, ColStatus); !ok {
		return AccountsPayable{}, missingCell(m, ColStatus)
	}

	if raw, ok = m.Cell(row, ColPaymentDate); ok && raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return AccountsPayable{}, &RowParseError{Field: m.Original(ColPaymentDate), Value: raw, Err: err}
		}
		p.PaymentDate = &d
	}

	return p, nil
}

// parseDate accepts only yyyy-MM-dd.
func parseDate(s string) (civil.Date, error) {
	return civil.ParseDate(s)
}

func missingCell(m HeaderMapping, key string) error {
	return &RowParseError{Field: m.Original(key), Err: errMissingCell}
}
