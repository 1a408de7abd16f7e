// Package core provides the business logic for accounts payable.
//
// # Error Codes Reference
//
// Every error the service returns maps to a user-facing message with a code
// that users can quote to support staff. Known error kinds are matched first
// with errors.Is; anything else falls back to case-insensitive substring
// patterns on the error text (driver and network errors).
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Empty file: The uploaded file is empty
//	FILE002 - Unsupported format: Only CSV files are accepted
//	FILE003 - Malformed file: Header row is missing or lacks required columns
//	FILE004 - Read failure: The file could not be read
//	FILE005 - File too large: Upload exceeds the configured size limit
//	          Patterns: "request body too large"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid record: A field failed a business rule
//	VAL002 - Invalid range: Start date is after end date
//
// # Payables Errors (PAY001-PAY099)
//
//	PAY001 - Not found: No accounts payable with the given id
//	PAY002 - System busy: Too many imports in progress
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key          Patterns: "duplicate key", "unique constraint"
//	DB002 - Connection refused     Patterns: "connection refused"
//	DB003 - Connection reset       Patterns: "connection reset"
//	DB004 - Timeout                Patterns: "timeout", "context deadline exceeded"
//	DB005 - Busy                   Patterns: "deadlock", "database is locked"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original error.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order with errors.Is.
var errorKinds = []errorKind{
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a CSV file with a header row and data rows",
		Code:    "FILE001",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Only CSV files are accepted",
		Action:  "Save the file as .csv and upload it again",
		Code:    "FILE002",
	}},
	{ErrMalformedFile, UserMessage{
		Message: "The CSV header is missing or incomplete",
		Action:  "Include the columns amount, description, duedate and status",
		Code:    "FILE003",
	}},
	{ErrIOFailure, UserMessage{
		Message: "The file could not be read",
		Action:  "Please try the upload again",
		Code:    "FILE004",
	}},
	{ErrValidation, UserMessage{
		Message: "The record is invalid",
		Action:  "Correct the highlighted fields and try again",
		Code:    "VAL001",
	}},
	{ErrInvalidRange, UserMessage{
		Message: "The start date is after the end date",
		Action:  "Choose a start date on or before the end date",
		Code:    "VAL002",
	}},
	{ErrNotFound, UserMessage{
		Message: "Accounts payable not found",
		Action:  "Check the id and try again",
		Code:    "PAY001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "PAY002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE005",
	}},
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Retry the request",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Retry the request",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB003",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB004",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB004",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"database is locked", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB005",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
//	msg := MapError(&NotFoundError{ID: id})
//	// msg.Code == "PAY001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
