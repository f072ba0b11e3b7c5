package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/auth"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler serves /api/auth: password accounts, Google sign-in and the
// signed-in user's profile.
type AuthHandler struct {
	svc         *service.AuthService
	google      *auth.GoogleProvider // nil when Google sign-in is not configured
	tokenTTL    time.Duration
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(
	svc *service.AuthService,
	google *auth.GoogleProvider,
	tokenTTL time.Duration,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:         svc,
		google:      google,
		tokenTTL:    tokenTTL,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// setTokenCookie mirrors the bearer token into an HttpOnly cookie so
// browser navigations are authenticated too.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register  {"email", "password", "name"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	h.setTokenCookie(w, r, res.Token)
	writeJSON(w, http.StatusCreated, res)
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/auth/login  {"email", "password"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	h.setTokenCookie(w, r, res.Token)
	writeJSON(w, http.StatusOK, res)
}

// HandleLogout clears the token cookie. Bearer tokens stay valid until
// they expire; clients drop them locally.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/auth/verify-email?token=...
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

// HandleForgotPassword always answers 200 so callers cannot probe for accounts.
//
// HTTP: POST /api/auth/forgot-password  {"email"}
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "if an account exists for that email, a reset link has been sent",
	})
}

// HTTP: POST /api/auth/reset-password  {"token", "password"}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

// HandleGoogleLogin redirects to Google's consent page. A random state is
// kept in a short-lived cookie and checked on callback.
//
// HTTP: GET /api/auth/google
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes sign-in and redirects to the frontend with
// the token in the query string; the token cookie is set as well.
//
// HTTP: GET /api/auth/google/callback?code=...&state=...
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}
	// single-use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(errParam), http.StatusTemporaryRedirect)
		return
	}

	gu, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"/login?error=google", http.StatusTemporaryRedirect)
		return
	}

	res, err := h.svc.LoginGoogle(r.Context(), gu)
	if errors.Is(err, apperror.ErrUnauthorized) {
		http.Redirect(w, r, h.frontendURL+"/login?error=google", http.StatusTemporaryRedirect)
		return
	}
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	h.setTokenCookie(w, r, res.Token)
	http.Redirect(w, r, h.frontendURL+"/auth/callback?token="+url.QueryEscape(res.Token), http.StatusTemporaryRedirect)
}

// HandleMe returns the signed-in user, streak history included.
//
// HTTP: GET /api/auth/me and GET /api/auth/profile
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.svc.Me(r.Context(), id.UserID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: PUT /api/auth/profile  (any subset of the profile fields)
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), id.UserID, upd)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: GET /api/auth/profile/streak?year=2025
func (h *AuthHandler) HandleStreak(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.svc.Streak(r.Context(), id.UserID, year)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
