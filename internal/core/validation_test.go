package core

import (
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func validRecord() AccountsPayable {
	return AccountsPayable{
		Amount:      decimal.RequireFromString("150.00"),
		Description: "Office rent",
		DueDate:     civil.Date{Year: 2025, Month: 2, Day: 10},
		Status:      "PENDING",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*AccountsPayable)
		wantField string
	}{
		{"valid", func(*AccountsPayable) {}, ""},
		{"zero amount", func(p *AccountsPayable) { p.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(p *AccountsPayable) { p.Amount = decimal.NewFromInt(-5) }, "amount"},
		{"blank description", func(p *AccountsPayable) { p.Description = "  \t" }, "description"},
		{"amount checked first", func(p *AccountsPayable) {
			p.Amount = decimal.Zero
			p.Description = ""
		}, "amount"},
		{"status not checked", func(p *AccountsPayable) { p.Status = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validRecord()
			tt.mutate(&p)
			err := Validate(p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("error should match ErrValidation")
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	amount := decimal.NewFromInt(10)
	zero := decimal.Zero
	due := civil.Date{Year: 2025, Month: 1, Day: 31}
	badDate := civil.Date{Year: 2025, Month: 2, Day: 31}

	tests := []struct {
		name       string
		req        PayableRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  PayableRequest{Amount: &amount, Description: "Rent", DueDate: &due, Status: "PENDING"},
		},
		{
			name:       "empty payload",
			req:        PayableRequest{},
			wantFields: []string{"amount", "description", "dueDate", "status"},
		},
		{
			name:       "zero amount",
			req:        PayableRequest{Amount: &zero, Description: "Rent", DueDate: &due, Status: "PENDING"},
			wantFields: []string{"amount"},
		},
		{
			name:       "invalid payment date",
			req:        PayableRequest{Amount: &amount, Description: "Rent", DueDate: &due, PaymentDate: &badDate, Status: "PAID"},
			wantFields: []string{"paymentDate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var re RequestErrors
			if !errors.As(err, &re) {
				t.Fatalf("expected RequestErrors, got %v", err)
			}
			if len(re) != len(tt.wantFields) {
				t.Errorf("got %d field errors (%v), want %d", len(re), re, len(tt.wantFields))
			}
			for _, f := range tt.wantFields {
				if _, ok := re[f]; !ok {
					t.Errorf("missing error for %q", f)
				}
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("error should match ErrValidation")
			}
		})
	}
}

func TestRequestErrors_ErrorIsOrdered(t *testing.T) {
	err := RequestErrors{"status": "status is required", "amount": "amount is required"}
	msg := err.Error()
	if strings.Index(msg, "amount") > strings.Index(msg, "status") {
		t.Errorf("fields out of order: %q", msg)
	}
}
