package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/filestore"
	"github.com/dharsanguruparan/OfferDesk/internal/metrics"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
	"github.com/dharsanguruparan/OfferDesk/internal/validation"
)

var documentLabels = map[string]string{
	validation.DocSSC:          "SSC",
	validation.DocIntermediate: "Intermediate",
	validation.DocGraduation:   "Graduation",
	validation.DocAdditional:   "Additional",
	validation.DocOfferLetter:  "Offer letter",
}

// submissionDocuments is every file field accepted on a new application.
var submissionDocuments = append(append([]string{}, validation.RequiredDocuments...), validation.DocAdditional)

type createResponse struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"referenceId"`
	Message     string `json:"message"`
}

type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

// handleCreate accepts a submission. Every check that can fail runs before
// the first file is written; files written before a later failure are removed.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := parseMultipart(r)
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		h.writeError(w, r, err)
		return
	}
	defer form.RemoveAll()
	shape := inputShape(form)

	fields := formFields(form)
	details := validation.Messages(validation.Validate(fields))
	for _, doc := range validation.RequiredDocuments {
		if len(form.File[doc]) == 0 {
			details = append(details, documentLabels[doc]+" document is required")
		}
	}
	if len(details) > 0 {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		h.writeError(w, r, apperror.Validation(details), shape...)
		return
	}

	headers := make(map[string]*multipart.FileHeader, len(submissionDocuments))
	for _, doc := range submissionDocuments {
		fh, err := singleFile(form, doc)
		if err != nil {
			h.rejectUpload(w, r, doc, err, shape)
			return
		}
		if fh == nil {
			continue
		}
		if err := h.files.Check(uploadOf(doc, fh, nil)); err != nil {
			h.rejectUpload(w, r, doc, err, shape)
			return
		}
		headers[doc] = fh
	}

	app, err := validation.Build(fields)
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		h.writeError(w, r, apperror.New(apperror.CodeInvalidArgument, "Invalid application data", err), shape...)
		return
	}
	if err := h.repo.EnsureUnique(ctx, app.Email, app.MobileNumber); err != nil {
		h.observeFailure(err)
		h.writeError(w, r, err, shape...)
		return
	}

	stored := make(map[string]string, len(headers))
	cleanup := func() {
		h.removeFiles(ctx, mapValues(stored))
	}
	for _, doc := range submissionDocuments {
		fh, ok := headers[doc]
		if !ok {
			continue
		}
		name, err := h.saveFile(ctx, doc, fh)
		if err != nil {
			cleanup()
			if apperror.Is(err, apperror.CodeInvalidArgument) {
				h.rejectUpload(w, r, doc, err, shape)
				return
			}
			h.metrics.ObserveSubmission(metrics.OutcomeError)
			h.writeError(w, r, err, shape...)
			return
		}
		stored[doc] = name
	}
	app.SSCDoc = stored[validation.DocSSC]
	app.IntermediateDoc = stored[validation.DocIntermediate]
	app.GraduationDoc = stored[validation.DocGraduation]
	app.AdditionalFiles = stored[validation.DocAdditional]

	if err := h.repo.Create(ctx, &app); err != nil {
		cleanup()
		h.observeFailure(err)
		h.writeError(w, r, err, shape...)
		return
	}
	h.metrics.ObserveSubmission(metrics.OutcomeCreated)
	h.logger.Info("application submitted", "id", app.ID, "reference_id", app.ReferenceID)
	respondJSON(w, http.StatusCreated, createResponse{
		Success:     true,
		ReferenceID: app.ReferenceID,
		Message:     "Application submitted successfully",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.repo.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dataResponse{Success: true, Data: apps})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "id", r.PathValue("id"))
		return
	}
	app, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "id", id)
		return
	}
	respondJSON(w, http.StatusOK, dataResponse{Success: true, Data: app})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "id", r.PathValue("id"))
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidArgument, "Request body must be JSON with a status", err), "id", id)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidArgument, "Invalid status. Must be Pending, Approved or Rejected", err), "id", id, "status", req.Status)
		return
	}
	app, err := h.repo.UpdateStatus(r.Context(), id, model.Status(req.Status))
	if err != nil {
		h.writeError(w, r, err, "id", id, "status", req.Status)
		return
	}
	h.logger.Info("status updated", "id", id, "status", req.Status)
	respondJSON(w, http.StatusOK, dataResponse{Success: true, Message: "Status updated successfully", Data: app})
}

func (h *Handler) rejectUpload(w http.ResponseWriter, r *http.Request, field string, err error, shape []any) {
	h.metrics.ObserveRejectedUpload(field)
	h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
	h.writeError(w, r, err, append(shape, "file_field", field)...)
}

func (h *Handler) observeFailure(err error) {
	switch apperror.CodeOf(err) {
	case apperror.CodeConflict:
		h.metrics.ObserveSubmission(metrics.OutcomeConflict)
	case apperror.CodeInternal:
		h.metrics.ObserveSubmission(metrics.OutcomeError)
	default:
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
	}
}

func (h *Handler) saveFile(ctx context.Context, field string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", apperror.Internal("open upload", err)
	}
	defer f.Close()
	return h.files.Save(ctx, uploadOf(field, fh, f))
}

// removeFiles deletes stored files after a failed request. It runs even when
// the request context is already cancelled.
func (h *Handler) removeFiles(ctx context.Context, names []string) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := h.files.Remove(ctx, name); err != nil {
			h.logger.Error("remove orphaned file", "file", name, "error", err)
		}
	}
}

// parseMultipart reads the whole form. Files beyond multipartMemory spill to
// temporary files that the caller removes with RemoveAll.
func parseMultipart(r *http.Request) (*multipart.Form, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apperror.New(apperror.CodeInvalidArgument,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), err)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, apperror.New(apperror.CodeInvalidArgument, "Expecting a multipart form", err)
		default:
			return nil, apperror.New(apperror.CodeInvalidArgument, "Malformed multipart form", err)
		}
	}
	return r.MultipartForm, nil
}

func formFields(form *multipart.Form) validation.Fields {
	fields := make(validation.Fields, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields
}

// singleFile returns the one file sent under field, nil when absent.
func singleFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	switch files := form.File[field]; len(files) {
	case 0:
		return nil, nil
	case 1:
		return files[0], nil
	default:
		return nil, apperror.InvalidArgument(fmt.Sprintf("Only one %s file is allowed", field))
	}
}

func uploadOf(field string, fh *multipart.FileHeader, body multipart.File) filestore.Upload {
	u := filestore.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if body != nil {
		u.Body = body
	}
	return u
}

// inputShape describes a form for logs without recording its values.
func inputShape(form *multipart.Form) []any {
	fieldNames := make([]string, 0, len(form.Value))
	for k := range form.Value {
		fieldNames = append(fieldNames, k)
	}
	fileNames := make([]string, 0, len(form.File))
	for k := range form.File {
		fileNames = append(fileNames, k)
	}
	sort.Strings(fieldNames)
	sort.Strings(fileNames)
	return []any{
		"fields", strings.Join(fieldNames, ","),
		"files", strings.Join(fileNames, ","),
	}
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
