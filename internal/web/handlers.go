package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/payables/internal/core"
)

// TotalPaidResponse is the body of GET /accountspayable/total-paid.
type TotalPaidResponse struct {
	TotalPaid decimal.Decimal `json:"totalPaid"`
}

// pageResponse adds the page count to a PageResult.
type pageResponse struct {
	core.PageResult
	TotalPages int `json:"totalPages"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status           string                   `json:"status"`
	Imports          core.ImportLimiterStatus `json:"imports"`
	ValidateOnImport bool                     `json:"validateOnImport"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:           "ok",
		Imports:          s.service.ImportLimiterStatus(),
		ValidateOnImport: s.service.ValidateOnImport(),
	}
	status := http.StatusOK

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.ByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleQuery lists records filtered by the optional dueDate and description
// parameters. An empty description is still a filter that matches everything.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := core.Query{Page: parsePage(r)}

	dueDate, ok, err := parseDateParam(r, "dueDate")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if ok {
		q.DueDate = &dueDate
	}
	if values := r.URL.Query(); values.Has("description") {
		description := values.Get("description")
		q.Description = &description
	}

	res, err := s.service.Query(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if res.Items == nil {
		res.Items = []core.AccountsPayable{}
	}
	writeJSON(w, r, http.StatusOK, pageResponse{PageResult: res, TotalPages: res.TotalPages()})
}

func (s *Server) handleTotalPaid(w http.ResponseWriter, r *http.Request) {
	start, err := requireDateParam(r, "startDate")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := requireDateParam(r, "endDate")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	total, err := s.service.TotalPaid(r.Context(), start, end)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, TotalPaidResponse{TotalPaid: total})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayableRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	p, err := s.service.Create(ctx, core.BuildFromRequest(req))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/accountspayable/"+p.ID.String())
	writeJSON(w, r, http.StatusCreated, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req, err := decodePayableRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	p, err := s.service.Update(ctx, id, core.ReplacementFromRequest(req))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handlePatchStatus sets the status given in the status query parameter.
// The value itself is not validated.
func (s *Server) handlePatchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	values := r.URL.Query()
	if !values.Has("status") {
		s.respondError(w, r, core.RequestErrors{"status": "status is required"})
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	p, err := s.service.PatchStatus(ctx, id, values.Get("status"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleUpload imports the multipart "file" field as CSV.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, formError(err, maxSize))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.RequestErrors{"file": "no file provided"})
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.service.ImportCSV(ctx, core.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// formError classifies a ParseMultipartForm failure. The multipart reader
// does not always keep *http.MaxBytesError in the chain.
func formError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return err
	case strings.Contains(err.Error(), "request body too large"):
		return &http.MaxBytesError{Limit: limit}
	default:
		return core.RequestErrors{"file": "request must be multipart/form-data"}
	}
}
