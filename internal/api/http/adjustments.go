package apihttp

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	ingest "adjustment-calculator/internal/ingest/domain"
	"adjustment-calculator/internal/ingest/infrastructure/spreadsheet"
	"adjustment-calculator/internal/settlement/application"
	"adjustment-calculator/internal/settlement/interfaces"
)

const (
	defaultMaxUploadBytes = 32 << 20
	formatJSON            = "json"
)

// AdjustmentsHandler runs an adjustment from a multipart upload.
type AdjustmentsHandler struct {
	service        *application.AdjustmentService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewAdjustmentsHandler constructs an AdjustmentsHandler. maxUploadBytes <= 0 means 32 MiB.
func NewAdjustmentsHandler(service *application.AdjustmentService, maxUploadBytes int64, logger zerolog.Logger) (*AdjustmentsHandler, error) {
	if service == nil {
		return nil, errors.New("adjustments handler: nil service")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &AdjustmentsHandler{service: service, maxUploadBytes: maxUploadBytes, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/adjustments.
func (h *AdjustmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form expected")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var format interfaces.Format
	if raw := strings.ToLower(formValue(r, "format", formatJSON)); raw != formatJSON {
		parsed, err := interfaces.ParseFormat(raw)
		if err != nil {
			writeValidation(w, &application.ValidationError{Code: application.CodeInvalidInput, Field: "format", Message: err.Error()})
			return
		}
		format = parsed
	}
	view, err := interfaces.ParseView(r.FormValue("view"))
	if err != nil {
		writeValidation(w, &application.ValidationError{Code: application.CodeInvalidInput, Field: "view", Message: err.Error()})
		return
	}
	opts := interfaces.Options{View: view, Table: r.FormValue("table")}

	req, err := buildRequest(r)
	if err != nil {
		if !writeValidation(w, err) {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	report, err := h.service.Run(r.Context(), req)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error().Err(err).Msg("adjustment run failed")
		writeError(w, http.StatusInternalServerError, "adjustment failed")
		return
	}

	w.Header().Set("X-Run-ID", report.RunID)
	if format == "" {
		if view == interfaces.ViewExcess {
			excess := *report
			excess.Slots = report.ExcessSlots()
			report = &excess
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	data, err := interfaces.Export(report, format, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", report.RunID).Str("format", string(format)).Msg("statement export failed")
		writeError(w, http.StatusInternalServerError, "statement export failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", interfaces.FileName(report, format, opts)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func buildRequest(r *http.Request) (application.Request, error) {
	var req application.Request
	var err error

	if req.EnableIEX, err = application.ParseBool("enable_iex", r.FormValue("enable_iex"), true); err != nil {
		return req, err
	}
	if req.EnableCPP, err = application.ParseBool("enable_cpp", r.FormValue("enable_cpp"), true); err != nil {
		return req, err
	}
	if req.AutoDetectPeriod, err = application.ParseBool("auto_detect", r.FormValue("auto_detect"), false); err != nil {
		return req, err
	}
	if req.IEXLossPct, err = application.ParseLoss("iex_loss_pct", r.FormValue("iex_loss_pct")); err != nil {
		return req, err
	}
	if req.CPPLossPct, err = application.ParseLoss("cpp_loss_pct", r.FormValue("cpp_loss_pct")); err != nil {
		return req, err
	}
	if req.WheelingLossPct, err = application.ParseLoss("wheeling_loss_pct", r.FormValue("wheeling_loss_pct")); err != nil {
		return req, err
	}
	if req.ConsumptionMultiplier, err = application.ParseMultiplier(r.FormValue("multiplier")); err != nil {
		return req, err
	}
	req.Tier = formValue(r, "tier", "I")
	req.Month = r.FormValue("month")
	req.Year = r.FormValue("year")
	req.Date = r.FormValue("date")

	if req.EnableIEX {
		if req.IEXFiles, err = readUploads(r.MultipartForm, "iex_files"); err != nil {
			return req, err
		}
	}
	if req.EnableCPP {
		if req.CPPFiles, err = readUploads(r.MultipartForm, "cpp_files"); err != nil {
			return req, err
		}
	}
	if req.ConsumptionFiles, err = readUploads(r.MultipartForm, "consumption_files"); err != nil {
		return req, err
	}
	return req, nil
}

func readUploads(form *multipart.Form, field string) ([]ingest.SourceFile, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[field]
	files := make([]ingest.SourceFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		file, err := spreadsheet.Read(header.Filename, f)
		f.Close()
		if err != nil {
			return nil, &application.ValidationError{Code: application.CodeInvalidInput, Field: field, Message: err.Error(), Err: err}
		}
		files = append(files, file)
	}
	return files, nil
}

func formValue(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return def
}
