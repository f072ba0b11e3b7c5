package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/resume"
)

// multipartSlack covers boundaries and headers around the file part.
const multipartSlack = 1 << 20

type ResumeHandler struct {
	screener *resume.Screener
	logger   *slog.Logger
}

func NewResumeHandler(screener *resume.Screener, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{screener: screener, logger: logger}
}

type screenResponse struct {
	Upload *model.ResumeUpload     `json:"upload"`
	Result *resume.ScreeningResult `json:"result"`
}

// readResume pulls the "file" part out of a multipart body. Oversized
// uploads are rejected from the part header before the body is read.
func (h *ResumeHandler) readResume(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	max := h.screener.MaxBytes()
	if r.ContentLength > max+multipartSlack {
		return "", nil, resume.CheckSize(r.ContentLength, max)
	}
	r.Body = http.MaxBytesReader(w, r.Body, max+multipartSlack)

	if err := r.ParseMultipartForm(multipartSlack); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, resume.CheckSize(max+1, max)
		}
		return "", nil, apperror.ValidationFailed("file", "expected a multipart form with a file field")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, apperror.ValidationFailed("file", "file is required")
	}
	defer file.Close()

	if err := resume.CheckSize(header.Size, max); err != nil {
		return "", nil, err
	}
	data, err := io.ReadAll(io.LimitReader(file, max+1))
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

// HTTP: POST /api/resume/upload  (multipart, field "file")
func (h *ResumeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, data, err := h.readResume(w, r)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	upload, err := h.screener.Upload(r.Context(), id.UserID, name, data)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

// HandleScreen stores the resume and returns the scoring API's verdict.
//
// HTTP: POST /api/resume/screen  (multipart, field "file")
func (h *ResumeHandler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, data, err := h.readResume(w, r)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	upload, err := h.screener.Upload(r.Context(), id.UserID, name, data)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	result, err := h.screener.Screen(r.Context(), name, data)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Upload: upload, Result: result})
}

// HTTP: GET /api/resume/uploads
func (h *ResumeHandler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uploads, err := h.screener.Uploads(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}
