package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/payables/internal/core"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
	maxJSONBody     = 1 << 20
)

// parseIntParam parses an integer query parameter, falling back to defaultVal
// when it is absent or not a number.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// parsePage reads page and size. Page is 0-based; size is clamped to maxPageSize.
func parsePage(r *http.Request) core.Page {
	page := core.Page{
		Number: parseIntParam(r, "page", 0),
		Size:   parseIntParam(r, "size", defaultPageSize),
	}
	if page.Number < 0 {
		page.Number = 0
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	return page
}

// parseDateParam parses a yyyy-mm-dd query parameter.
// ok is false when the parameter is absent.
func parseDateParam(r *http.Request, name string) (d civil.Date, ok bool, err error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return civil.Date{}, false, nil
	}
	d, err = civil.ParseDate(v)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false, core.RequestErrors{name: fmt.Sprintf("%s must be a date in yyyy-mm-dd format", name)}
	}
	return d, true, nil
}

// requireDateParam is parseDateParam for mandatory parameters.
func requireDateParam(r *http.Request, name string) (civil.Date, error) {
	d, ok, err := parseDateParam(r, name)
	if err != nil {
		return civil.Date{}, err
	}
	if !ok {
		return civil.Date{}, core.RequestErrors{name: name + " is required"}
	}
	return d, nil
}

// parseID reads the {id} path parameter.
func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.RequestErrors{"id": fmt.Sprintf("%q is not a valid id", raw)}
	}
	return id, nil
}

// decodePayableRequest decodes and validates a create or update payload.
func decodePayableRequest(w http.ResponseWriter, r *http.Request) (core.PayableRequest, error) {
	var req core.PayableRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, err
		}
		return req, fmt.Errorf("%w: invalid JSON body: %v", core.ErrValidation, err)
	}
	if err := core.ValidateRequest(req); err != nil {
		return req, err
	}
	return req, nil
}
