package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/edtech-platform/internal/repository"
	"github.com/sakif/edtech-platform/internal/service"
)

type OrderHandler struct {
	svc    *service.OrderService
	logger *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// HandlePlace checks out goodies for the caller. Stock or coin shortfalls
// answer 409.
//
// HTTP: POST /api/orders
func (h *OrderHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	order, err := h.svc.Place(r.Context(), id.UserID, in)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// HTTP: GET /api/orders
func (h *OrderHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := h.svc.Mine(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// HTTP: GET /api/admin/orders?limit=&offset=
func (h *OrderHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := h.svc.All(r.Context(), repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// HTTP: PUT /api/admin/orders/{id}/status  {"status": "shipped"}
func (h *OrderHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	order, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
