package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/service"
)

type AdmissionHandler struct {
	svc    *service.AdmissionService
	logger *slog.Logger
}

func NewAdmissionHandler(svc *service.AdmissionService, logger *slog.Logger) *AdmissionHandler {
	return &AdmissionHandler{svc: svc, logger: logger}
}

type applicationResponse struct {
	ReferenceID string             `json:"referenceId"`
	Application *model.Application `json:"application"`
}

// HandleSubmit stores an admission inquiry and returns its reference id.
//
// HTTP: POST /api/applications
func (h *AdmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in service.ApplicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, applicationResponse{ReferenceID: app.ReferenceID, Application: app})
}

// HTTP: GET /api/colleges
func (h *AdmissionHandler) HandleListColleges(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.svc.Colleges(r.Context())
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, colleges)
}

// HTTP: GET /api/colleges/{id}
func (h *AdmissionHandler) HandleGetCollege(w http.ResponseWriter, r *http.Request) {
	college, err := h.svc.College(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, college)
}

// HTTP: POST /api/admin/colleges
func (h *AdmissionHandler) HandleCreateCollege(w http.ResponseWriter, r *http.Request) {
	var in model.College
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	college, err := h.svc.CreateCollege(r.Context(), &in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, college)
}

// HTTP: PUT /api/admin/colleges/{id}
func (h *AdmissionHandler) HandleUpdateCollege(w http.ResponseWriter, r *http.Request) {
	var in model.College
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	college, err := h.svc.UpdateCollege(r.Context(), chi.URLParam(r, "id"), &in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, college)
}

// HTTP: DELETE /api/admin/colleges/{id}
func (h *AdmissionHandler) HandleDeleteCollege(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCollege(r.Context(), chi.URLParam(r, "id")); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/admin/colleges/{id}/applications
func (h *AdmissionHandler) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.Applications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}
