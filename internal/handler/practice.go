package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/edtech-platform/internal/practice"
	"github.com/sakif/edtech-platform/internal/service"
)

// PracticeHandler serves the signed-in user's DSA practice state. The
// question catalogue itself is listed by CatalogHandler.
type PracticeHandler struct {
	tracker *practice.Tracker
	ads     *service.AdsService
	logger  *slog.Logger
}

func NewPracticeHandler(tracker *practice.Tracker, ads *service.AdsService, logger *slog.Logger) *PracticeHandler {
	return &PracticeHandler{tracker: tracker, ads: ads, logger: logger}
}

type questionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type noteRequest struct {
	Note string `json:"note" validate:"max=10000"`
}

type goalRequest struct {
	Goal int `json:"goal" validate:"required,min=1,max=50"`
}

type favoriteResponse struct {
	QuestionID string `json:"questionId"`
	Favorite   bool   `json:"favorite"`
}

type sessionResponse struct {
	ElapsedSeconds int64 `json:"elapsedSeconds"`
	TotalSeconds   int64 `json:"totalSeconds"`
}

// HTTP: GET /api/dsapractice/progress
func (h *PracticeHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	progress, err := h.tracker.Progress(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// HandleSetStatus marks a question unsolved, in-progress or solved and
// returns the updated progress.
//
// HTTP: PUT /api/dsapractice/questions/{id}/status  {"status": "solved"}
func (h *PracticeHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req questionStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := practice.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	progress, err := h.tracker.SetStatus(r.Context(), id.UserID, chi.URLParam(r, "id"), status)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// HTTP: GET /api/dsapractice/questions/{id}/note
func (h *PracticeHandler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	note, err := h.tracker.Note(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noteRequest{Note: note})
}

// HTTP: PUT /api/dsapractice/questions/{id}/note  {"note": "..."}
func (h *PracticeHandler) HandleSetNote(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.SetNote(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Note); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// HTTP: POST /api/dsapractice/questions/{id}/favorite
func (h *PracticeHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qid := chi.URLParam(r, "id")
	fav, err := h.tracker.ToggleFavorite(r.Context(), id.UserID, qid)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{QuestionID: qid, Favorite: fav})
}

// HTTP: GET /api/dsapractice/favorites
func (h *PracticeHandler) HandleFavorites(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	favs, err := h.tracker.Favorites(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

// HTTP: GET /api/dsapractice/goal
func (h *PracticeHandler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	goal, err := h.tracker.DailyGoal(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HTTP: PUT /api/dsapractice/goal  {"goal": 5}
func (h *PracticeHandler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	goal, err := h.tracker.SetDailyGoal(r.Context(), id.UserID, req.Goal)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HTTP: GET /api/dsapractice/recommend
func (h *PracticeHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.tracker.Recommend(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HTTP: POST /api/dsapractice/session/start
func (h *PracticeHandler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.StartSession(r.Context(), id.UserID); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: POST /api/dsapractice/session/stop
func (h *PracticeHandler) HandleStopSession(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	elapsed, total, err := h.tracker.StopSession(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ElapsedSeconds: int64(elapsed / time.Second),
		TotalSeconds:   int64(total / time.Second),
	})
}

type studyTimeResponse struct {
	TotalSeconds int64 `json:"totalSeconds"`
	Running      bool  `json:"running"`
}

// HTTP: GET /api/dsapractice/session
func (h *PracticeHandler) HandleStudyTime(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.tracker.StudyTime(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, studyTimeResponse{
		TotalSeconds: int64(total / time.Second),
		Running:      h.tracker.SessionRunning(id.UserID),
	})
}

type dismissRequest struct {
	// Seconds to hide the dialog for; 0 means the default snooze.
	Seconds int64 `json:"seconds" validate:"min=0"`
}

type dialogResponse struct {
	Visible     bool       `json:"visible"`
	HiddenUntil *time.Time `json:"hiddenUntil,omitempty"`
}

// HTTP: POST /api/ads/dismiss  {"seconds": 86400}
func (h *PracticeHandler) HandleDismissAds(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req dismissRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	until, err := h.ads.Dismiss(id.UserID, time.Duration(req.Seconds)*time.Second)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dialogResponse{Visible: false, HiddenUntil: &until})
}

// HTTP: GET /api/ads/visible
func (h *PracticeHandler) HandleAdsVisible(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dialogResponse{Visible: h.ads.Visible(id.UserID)})
}
