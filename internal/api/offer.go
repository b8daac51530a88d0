package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/filestore"
	"github.com/dharsanguruparan/OfferDesk/internal/signing"
	"github.com/dharsanguruparan/OfferDesk/internal/validation"
)

type offerLetterQuery struct {
	ReferenceID string `validate:"required"`
	Email       string `validate:"required"`
}

type offerLetterData struct {
	OfferLetterPath string `json:"offer_letter_path"`
	DownloadURL     string `json:"download_url"`
}

// handleAttachOfferLetter stores the uploaded letter and records it on the
// application. If the application is missing the stored file is removed.
// A previously attached letter is left in storage.
func (h *Handler) handleAttachOfferLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "id", r.PathValue("id"))
		return
	}
	form, err := parseMultipart(r)
	if err != nil {
		h.writeError(w, r, err, "id", id)
		return
	}
	defer form.RemoveAll()
	shape := append(inputShape(form), "id", id)

	fh, err := singleFile(form, validation.DocOfferLetter)
	if err != nil {
		h.metrics.ObserveRejectedUpload(validation.DocOfferLetter)
		h.writeError(w, r, err, shape...)
		return
	}
	if fh == nil {
		h.writeError(w, r, apperror.InvalidArgument("Offer letter file is required"), shape...)
		return
	}
	name, err := h.saveFile(ctx, validation.DocOfferLetter, fh)
	if err != nil {
		if apperror.Is(err, apperror.CodeInvalidArgument) {
			h.metrics.ObserveRejectedUpload(validation.DocOfferLetter)
		}
		h.writeError(w, r, err, shape...)
		return
	}
	app, err := h.repo.AttachOfferLetter(ctx, id, name)
	if err != nil {
		h.removeFiles(ctx, []string{name})
		h.writeError(w, r, err, shape...)
		return
	}
	h.logger.Info("offer letter attached", "id", id, "file", name)
	respondJSON(w, http.StatusOK, dataResponse{
		Success: true,
		Message: "Offer letter uploaded successfully",
		Data:    app,
	})
}

// handleOfferLetter lets an applicant find their letter by reference code
// and email. Unknown, unapproved and letterless applications all look alike.
func (h *Handler) handleOfferLetter(w http.ResponseWriter, r *http.Request) {
	q := offerLetterQuery{
		ReferenceID: strings.TrimSpace(r.URL.Query().Get("reference_id")),
		Email:       validation.NormalizeEmail(r.URL.Query().Get("email")),
	}
	if err := validate.Struct(q); err != nil {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidArgument, "reference_id and email are required", err))
		return
	}
	name, err := h.repo.OfferLetter(r.Context(), q.ReferenceID, q.Email)
	if err != nil {
		h.writeError(w, r, err, "reference_id", q.ReferenceID)
		return
	}
	respondJSON(w, http.StatusOK, dataResponse{
		Success: true,
		Data: offerLetterData{
			OfferLetterPath: name,
			DownloadURL:     h.downloadURL(name),
		},
	})
}

func (h *Handler) downloadURL(name string) string {
	if h.signer == nil {
		return filesPath + name
	}
	return h.signer.URL(filesPath, name, h.opts.SignedURLTTL)
}

// handleFile streams a stored PDF as an attachment.
func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if h.opts.RequireSignedDownloads {
		q := r.URL.Query()
		if h.signer == nil || !h.signer.Validate(name, q.Get(signing.ParamExpires), q.Get(signing.ParamSignature)) {
			h.writeError(w, r, apperror.New(apperror.CodeUnauthorized, "Invalid or expired download link", nil), "file", name)
			return
		}
	}
	obj, err := h.files.Open(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err, "file", name)
		return
	}
	defer obj.Body.Close()
	w.Header().Set("Content-Type", filestore.PDFContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("stream file", "file", name, "error", err)
	}
}
