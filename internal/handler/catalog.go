package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
	"github.com/sakif/edtech-platform/internal/service"
)

// CatalogHandler serves the admin-curated catalogue: courses, goodies, DSA
// questions and workshops. Public routes read; /api/admin routes write.
type CatalogHandler struct {
	courses   *service.CourseService
	goodies   *service.GoodieService
	questions *service.QuestionService
	workshops *service.WorkshopService
	logger    *slog.Logger
}

func NewCatalogHandler(
	courses *service.CourseService,
	goodies *service.GoodieService,
	questions *service.QuestionService,
	workshops *service.WorkshopService,
	logger *slog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		courses:   courses,
		goodies:   goodies,
		questions: questions,
		workshops: workshops,
		logger:    logger,
	}
}

// respond writes v with status, or the error when err is set.
func (h *CatalogHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	if v == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, v)
}

// --- courses ---

// HTTP: GET /api/courses?category=web&limit=20&offset=0
func (h *CatalogHandler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
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
	courses, err := h.courses.List(r.Context(), r.URL.Query().Get("category"),
		repository.ListOptions{Limit: limit, Offset: offset})
	h.respond(w, r, http.StatusOK, courses, err)
}

func (h *CatalogHandler) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, course, err)
}

func (h *CatalogHandler) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.Course
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	course, err := h.courses.Create(r.Context(), &in)
	h.respond(w, r, http.StatusCreated, course, err)
}

func (h *CatalogHandler) HandleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.Course
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	course, err := h.courses.Update(r.Context(), chi.URLParam(r, "id"), &in)
	h.respond(w, r, http.StatusOK, course, err)
}

func (h *CatalogHandler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, nil, h.courses.Delete(r.Context(), chi.URLParam(r, "id")))
}

// --- goodies ---

// HTTP: GET /api/goodies?category=wear
func (h *CatalogHandler) HandleListGoodies(w http.ResponseWriter, r *http.Request) {
	goodies, err := h.goodies.List(r.Context(), r.URL.Query().Get("category"))
	h.respond(w, r, http.StatusOK, goodies, err)
}

func (h *CatalogHandler) HandleGetGoodie(w http.ResponseWriter, r *http.Request) {
	goodie, err := h.goodies.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, goodie, err)
}

func (h *CatalogHandler) HandleCreateGoodie(w http.ResponseWriter, r *http.Request) {
	var in model.Goodie
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	goodie, err := h.goodies.Create(r.Context(), &in)
	h.respond(w, r, http.StatusCreated, goodie, err)
}

func (h *CatalogHandler) HandleUpdateGoodie(w http.ResponseWriter, r *http.Request) {
	var in model.Goodie
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	goodie, err := h.goodies.Update(r.Context(), chi.URLParam(r, "id"), &in)
	h.respond(w, r, http.StatusOK, goodie, err)
}

func (h *CatalogHandler) HandleDeleteGoodie(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, nil, h.goodies.Delete(r.Context(), chi.URLParam(r, "id")))
}

// --- DSA questions ---

// HTTP: GET /api/dsapractice/questions?topic=array&difficulty=Easy&company=&search=&sort=difficulty
func (h *CatalogHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions, err := h.questions.List(r.Context(), model.QuestionFilter{
		Topic:      q.Get("topic"),
		Difficulty: q.Get("difficulty"),
		Company:    q.Get("company"),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
	})
	h.respond(w, r, http.StatusOK, questions, err)
}

func (h *CatalogHandler) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.DSAQuestion
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.questions.Create(r.Context(), &in)
	h.respond(w, r, http.StatusCreated, q, err)
}

func (h *CatalogHandler) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.DSAQuestion
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.questions.Update(r.Context(), chi.URLParam(r, "id"), &in)
	h.respond(w, r, http.StatusOK, q, err)
}

func (h *CatalogHandler) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, nil, h.questions.Delete(r.Context(), chi.URLParam(r, "id")))
}

// --- workshops ---

type workshopRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Code  string `json:"code" validate:"required"`
}

func (h *CatalogHandler) HandleListWorkshops(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workshops.List(r.Context())
	h.respond(w, r, http.StatusOK, ws, err)
}

func (h *CatalogHandler) HandleCreateWorkshop(w http.ResponseWriter, r *http.Request) {
	var req workshopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ws, err := h.workshops.Create(r.Context(), req.Title, req.Code)
	h.respond(w, r, http.StatusCreated, ws, err)
}

func (h *CatalogHandler) HandleDeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, nil, h.workshops.Delete(r.Context(), chi.URLParam(r, "id")))
}
