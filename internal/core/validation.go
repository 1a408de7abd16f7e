package core

// validation.go enforces record invariants before single-record persistence.
//
// Two layers exist:
//  1. ValidateRequest checks an interactive payload field by field and reports
//     every problem at once, so clients can fix a form in one round trip.
//  2. Validate checks the record invariants in a fixed order and returns only
//     the first failure. Create and Update call it; bulk import does not unless
//     the service is configured to validate on import.

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks that amount is positive and description is not blank.
func Validate(p AccountsPayable) error {
	if p.Amount.Cmp(decimal.Zero) <= 0 {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Field: "description", Message: "description must not be empty"}
	}
	return nil
}

// RequestErrors maps payload field names to messages.
type RequestErrors map[string]string

func (e RequestErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range requestFieldOrder {
		if msg, ok := e[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e RequestErrors) Is(target error) bool { return target == ErrValidation }

var requestFieldOrder = []string{"amount", "description", "dueDate", "status", "paymentDate"}

// ValidateRequest reports every missing or invalid field of a payload.
// It returns nil when the payload is acceptable.
func ValidateRequest(req PayableRequest) error {
	errs := RequestErrors{}
	switch {
	case req.Amount == nil:
		errs["amount"] = "amount is required"
	case req.Amount.Cmp(decimal.Zero) <= 0:
		errs["amount"] = "amount must be greater than zero"
	}
	if strings.TrimSpace(req.Description) == "" {
		errs["description"] = "description is required"
	}
	if req.DueDate == nil {
		errs["dueDate"] = "dueDate is required"
	} else if !req.DueDate.IsValid() {
		errs["dueDate"] = "dueDate is not a valid date"
	}
	if strings.TrimSpace(req.Status) == "" {
		errs["status"] = "status is required"
	}
	if req.PaymentDate != nil && !req.PaymentDate.IsValid() {
		errs["paymentDate"] = "paymentDate is not a valid date"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
