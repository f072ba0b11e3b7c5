package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/service"
)

type ArticleHandler struct {
	svc    *service.ArticleService
	logger *slog.Logger
}

func NewArticleHandler(svc *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{svc: svc, logger: logger}
}

// HandleList returns published articles.
//
// HTTP: GET /api/articles?tag=go&search=binary&limit=20&offset=0
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	articles, err := h.svc.ListPublished(r.Context(), model.ArticleFilter{
		Tag:    q.Get("tag"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HTTP: GET /api/articles/mine
func (h *ArticleHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	articles, err := h.svc.ListByAuthor(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HTTP: GET /api/articles/{id}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	article, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), optionalIdentity(r))
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// HTTP: GET /api/articles/slug/{slug}
func (h *ArticleHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"), optionalIdentity(r))
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// HTTP: POST /api/articles
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	article, err := h.svc.Create(r.Context(), id.UserID, in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// HTTP: PUT /api/articles/{id}
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	article, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), id.UserID, in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// HTTP: DELETE /api/articles/{id}
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), *id); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/admin/articles
func (h *ArticleHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.ListPending(r.Context())
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HTTP: PUT /api/admin/articles/{id}/status  {"status": "approve" | "deny"}
func (h *ArticleHandler) HandleModerate(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	article, err := h.svc.Moderate(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
