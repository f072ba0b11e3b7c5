// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root: cmd/server opens the infrastructure (database,
// KV store, mailer, scheduler) and New wires services and handlers on top.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/edtech-platform/internal/auth"
	"github.com/sakif/edtech-platform/internal/config"
	"github.com/sakif/edtech-platform/internal/handler"
	"github.com/sakif/edtech-platform/internal/kvstore"
	"github.com/sakif/edtech-platform/internal/middleware"
	"github.com/sakif/edtech-platform/internal/notify"
	"github.com/sakif/edtech-platform/internal/practice"
	sqliteRepo "github.com/sakif/edtech-platform/internal/repository/sqlite"
	"github.com/sakif/edtech-platform/internal/resume"
	"github.com/sakif/edtech-platform/internal/schedule"
	"github.com/sakif/edtech-platform/internal/service"
)

// sweepInterval is how often expired timers are moved out of Running.
const sweepInterval = time.Minute

// Deps are the pieces of infrastructure the server runs on. DB is required;
// everything else has a default.
type Deps struct {
	DB        *sqliteRepo.DB
	KV        kvstore.Store
	Mailer    notify.Mailer
	Scheduler *schedule.Scheduler
	Passwords *auth.PasswordService
}

// Server owns the router and the database; the database is closed on
// shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	sched  *schedule.Scheduler
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("server: database is required")
	}
	if deps.KV == nil {
		deps.KV = deps.DB.KV()
	}
	if deps.Mailer == nil {
		deps.Mailer = notify.NewLogMailer(logger)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = schedule.NewScheduler(schedule.SystemClock{})
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     deps.DB,
		sched:  deps.Scheduler,
	}
	s.setupRoutes(tokens, deps)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(tokens *auth.TokenService, deps Deps) {
	db, logger := deps.DB, s.logger

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(logger))
	s.router.Use(chimiddleware.Recoverer)

	authSvc := service.NewAuthService(db.Users(), tokens, deps.Passwords, deps.Mailer, service.AuthConfig{
		AdminEmails: s.config.Auth.AdminEmails,
		FrontendURL: s.config.FrontendURL,
	}, logger)
	var google *auth.GoogleProvider
	if s.config.GoogleEnabled() {
		google = auth.NewGoogleProvider(s.config.Auth.GoogleClientID, s.config.Auth.GoogleClientSecret, s.config.Auth.GoogleCallbackURL)
	}
	authHandler := handler.NewAuthHandler(authSvc, google, tokens.TTL(), s.config.FrontendURL, logger)

	articles := handler.NewArticleHandler(service.NewArticleService(db.Articles(), logger), logger)
	catalog := handler.NewCatalogHandler(
		service.NewCourseService(db.Courses(), logger),
		service.NewGoodieService(db.Goodies(), logger),
		service.NewQuestionService(db.Questions(), logger),
		service.NewWorkshopService(db.Workshops(), logger),
		logger,
	)
	admissions := handler.NewAdmissionHandler(service.NewAdmissionService(db.Colleges(), deps.Mailer, logger), logger)
	orders := handler.NewOrderHandler(service.NewOrderService(db.Orders(), logger), logger)

	tracker := practice.NewTracker(practice.NewStore(deps.KV), db.Questions(), deps.Scheduler, logger,
		practice.WithActivityRecorder(db.Users()))
	dsa := handler.NewPracticeHandler(tracker, service.NewAdsService(deps.Scheduler), logger)

	screener := resume.NewScreener(resume.Config{
		ScreenURL: s.config.Resume.ScreenURL,
		MaxBytes:  s.config.Resume.MaxBytes,
		Timeout:   s.config.Resume.Timeout,
		UploadDir: filepath.Join(s.config.UploadDir, "resumes"),
	}, db.Resumes(), logger)
	resumes := handler.NewResumeHandler(screener, logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Public
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/auth/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/auth/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/auth/reset-password", authHandler.HandleResetPassword)
			if google != nil {
				r.Get("/auth/google", authHandler.HandleGoogleLogin)
				r.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
			}

			r.Get("/courses", catalog.HandleListCourses)
			r.Get("/courses/{id}", catalog.HandleGetCourse)
			r.Get("/goodies", catalog.HandleListGoodies)
			r.Get("/goodies/{id}", catalog.HandleGetGoodie)
			r.Get("/dsapractice/questions", catalog.HandleListQuestions)

			r.Post("/applications", admissions.HandleSubmit)
			r.Get("/colleges", admissions.HandleListColleges)
			r.Get("/colleges/{id}", admissions.HandleGetCollege)
		})

		// Articles are public, but authors and admins also see their
		// unpublished ones.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/articles", articles.HandleList)
			r.Get("/articles/slug/{slug}", articles.HandleGetBySlug)
			r.Get("/articles/{id}", articles.HandleGet)
		})

		// Signed-in users
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Get("/auth/profile", authHandler.HandleMe)
			r.Put("/auth/profile", authHandler.HandleUpdateProfile)
			r.Get("/auth/profile/streak", authHandler.HandleStreak)

			r.Get("/articles/mine", articles.HandleListMine)
			r.Post("/articles", articles.HandleCreate)
			r.Put("/articles/{id}", articles.HandleUpdate)
			r.Delete("/articles/{id}", articles.HandleDelete)

			r.Route("/dsapractice", func(r chi.Router) {
				r.Get("/progress", dsa.HandleProgress)
				r.Get("/recommend", dsa.HandleRecommend)
				r.Put("/questions/{id}/status", dsa.HandleSetStatus)
				r.Get("/questions/{id}/note", dsa.HandleGetNote)
				r.Put("/questions/{id}/note", dsa.HandleSetNote)
				r.Post("/questions/{id}/favorite", dsa.HandleToggleFavorite)
				r.Get("/favorites", dsa.HandleFavorites)
				r.Get("/goal", dsa.HandleGetGoal)
				r.Put("/goal", dsa.HandleSetGoal)
				r.Get("/session", dsa.HandleStudyTime)
				r.Post("/session/start", dsa.HandleStartSession)
				r.Post("/session/stop", dsa.HandleStopSession)
			})
			r.Post("/ads/dismiss", dsa.HandleDismissAds)
			r.Get("/ads/visible", dsa.HandleAdsVisible)

			r.Post("/orders", orders.HandlePlace)
			r.Get("/orders", orders.HandleListMine)

			r.Post("/resume/upload", resumes.HandleUpload)
			r.Post("/resume/screen", resumes.HandleScreen)
			r.Get("/resume/uploads", resumes.HandleListUploads)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(auth.RequireAdmin)

			r.Get("/articles", articles.HandleListPending)
			r.Put("/articles/{id}/status", articles.HandleModerate)

			r.Post("/courses", catalog.HandleCreateCourse)
			r.Put("/courses/{id}", catalog.HandleUpdateCourse)
			r.Delete("/courses/{id}", catalog.HandleDeleteCourse)

			r.Post("/goodies", catalog.HandleCreateGoodie)
			r.Put("/goodies/{id}", catalog.HandleUpdateGoodie)
			r.Delete("/goodies/{id}", catalog.HandleDeleteGoodie)

			r.Get("/dsapractice", catalog.HandleListQuestions)
			r.Post("/dsapractice", catalog.HandleCreateQuestion)
			r.Put("/dsapractice/{id}", catalog.HandleUpdateQuestion)
			r.Delete("/dsapractice/{id}", catalog.HandleDeleteQuestion)

			r.Get("/workshops", catalog.HandleListWorkshops)
			r.Post("/workshops", catalog.HandleCreateWorkshop)
			r.Delete("/workshops/{id}", catalog.HandleDeleteWorkshop)

			r.Post("/colleges", admissions.HandleCreateCollege)
			r.Put("/colleges/{id}", admissions.HandleUpdateCollege)
			r.Delete("/colleges/{id}", admissions.HandleDeleteCollege)
			r.Get("/colleges/{id}/applications", admissions.HandleListApplications)

			r.Get("/orders", orders.HandleListAll)
			r.Put("/orders/{id}/status", orders.HandleSetStatus)
		})
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Resume screening waits on the external API.
		WriteTimeout: s.config.Resume.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.sched.Run(sweepCtx, sweepInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
