package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/auth"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/notify"
	"github.com/sakif/edtech-platform/internal/repository"
	"github.com/sakif/edtech-platform/internal/schedule"
	"github.com/sakif/edtech-platform/internal/streak"
)

// Activity names written to a user's streak log.
const (
	ActivityLogin = "login"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour

	MaxNameLength  = 100
	MaxAboutLength = 2000
)

// AuthService owns accounts: registration, the two login paths (password
// and Google), single-use mailed tokens and the profile.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    notify.Mailer
	logger    *slog.Logger

	adminEmails map[string]bool
	frontendURL string
	clock       schedule.Clock
}

// AuthConfig carries the settings AuthService reads from config.Config.
type AuthConfig struct {
	AdminEmails []string
	// FrontendURL is the base of the links mailed for verification and reset.
	FrontendURL string
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer notify.Mailer,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		mailer:      mailer,
		logger:      logger,
		adminEmails: admins,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		clock:       schedule.SystemClock{},
	}
}

// AuthResult bundles the user and the issued JWT so the handler can answer
// (and set the cookie) in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// StreakReport is the profile streak page: summary stats plus the year grid.
type StreakReport struct {
	Year  int             `json:"year"`
	Stats streak.Stats    `json:"stats"`
	Weeks [][]streak.Cell `json:"weeks"`
}

func (s *AuthService) roleFor(email string) string {
	if s.adminEmails[strings.ToLower(email)] {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Register creates a password account and mails a verification link.
// Mail failures are logged; the account is created regardless.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if err := firstErr(required("name", name), maxLen("name", name, MaxNameLength)); err != nil {
		return nil, err
	}
	if err := auth.CheckPolicy(password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", user.Role),
	)

	s.sendVerification(ctx, user)
	return s.issue(user)
}

func (s *AuthService) sendVerification(ctx context.Context, user *model.User) {
	token, err := s.newToken(ctx, user.ID, model.TokenVerifyEmail, verifyTokenTTL)
	if err != nil {
		s.logger.Error("failed to create verification token",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	link := s.frontendURL + "/verify-email?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(ctx, notify.VerifyEmail(user.Email, user.Name, link)); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *AuthService) newToken(ctx context.Context, userID, purpose string, ttl time.Duration) (string, error) {
	t := &model.UserToken{
		Token:     xid.New().String() + xid.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: s.clock.Now().Add(ttl),
	}
	if err := s.users.CreateToken(ctx, t); err != nil {
		return "", err
	}
	return t.Token, nil
}

// Login checks an email/password pair. Unknown emails, Google-only accounts
// and wrong passwords all produce the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	user = s.recordLogin(ctx, user)
	return s.issue(user)
}

// LoginGoogle links or creates the account for a Google profile.
func (s *AuthService) LoginGoogle(ctx context.Context, gu *auth.GoogleUser) (*AuthResult, error) {
	if gu == nil {
		return nil, fmt.Errorf("service/auth: google user must not be nil")
	}
	// Accounts are linked by email, so an unverified address could claim
	// someone else's account or an admin email.
	if !gu.VerifiedEmail {
		s.logger.Warn("google sign-in rejected: email not verified", slog.String("googleID", gu.ID))
		return nil, apperror.Unauthorized("google account email is not verified")
	}
	user := &model.User{
		Email:        strings.ToLower(gu.Email),
		Name:         gu.Name,
		GoogleID:     gu.ID,
		ProfileImage: gu.Picture,
		Role:         s.roleFor(gu.Email),
	}
	if err := s.users.UpsertGoogle(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting google user %s: %w", gu.ID, err)
	}

	s.logger.Info("user authenticated via Google", slog.String("userID", user.ID))

	user = s.recordLogin(ctx, user)
	return s.issue(user)
}

// recordLogin adds today's login activity and returns the refreshed user.
// A failure here never blocks the login.
func (s *AuthService) recordLogin(ctx context.Context, user *model.User) *model.User {
	today := s.clock.Now().Format(streak.DateLayout)
	if err := s.users.RecordActivity(ctx, user.ID, today, ActivityLogin); err != nil {
		s.logger.Error("failed to record login activity",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return user
	}
	fresh, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return user
	}
	return fresh
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	t, err := s.consume(ctx, token, model.TokenVerifyEmail)
	if err != nil {
		return err
	}
	if err := s.users.MarkEmailVerified(ctx, t.UserID); err != nil {
		return fmt.Errorf("service/auth: verifying email for %s: %w", t.UserID, err)
	}
	s.logger.Info("email verified", slog.String("userID", t.UserID))
	return nil
}

// ForgotPassword mails a reset link when the account exists. It reports
// success either way so callers cannot probe for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	token, err := s.newToken(ctx, user.ID, model.TokenResetPassword, resetTokenTTL)
	if err != nil {
		return fmt.Errorf("service/auth: creating reset token: %w", err)
	}
	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(ctx, notify.ResetPassword(user.Email, link)); err != nil {
		s.logger.Error("failed to send reset email",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if err := auth.CheckPolicy(password); err != nil {
		return err
	}
	t, err := s.consume(ctx, token, model.TokenResetPassword)
	if err != nil {
		return err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing password: %w", err)
	}
	if err := s.users.SetPassword(ctx, t.UserID, hash); err != nil {
		return fmt.Errorf("service/auth: resetting password for %s: %w", t.UserID, err)
	}
	s.logger.Info("password reset", slog.String("userID", t.UserID))
	return nil
}

func (s *AuthService) consume(ctx context.Context, token, purpose string) (*model.UserToken, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ValidationFailed("token", "token is required")
	}
	t, err := s.users.ConsumeToken(ctx, token, purpose, s.clock.Now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("token", "invalid or expired token")
		}
		return nil, fmt.Errorf("service/auth: consuming %s token: %w", purpose, err)
	}
	return t, nil
}

// Me returns the user behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("not authenticated")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := firstErr(required("name", name), maxLen("name", name, MaxNameLength)); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if upd.College != nil {
		user.College = strings.TrimSpace(*upd.College)
	}
	if upd.Skills != nil {
		user.Skills = cleanList(*upd.Skills)
	}
	if upd.SocialLinks != nil {
		links := make(map[string]string, len(*upd.SocialLinks))
		for k, v := range *upd.SocialLinks {
			if v = strings.TrimSpace(v); v != "" {
				links[strings.TrimSpace(k)] = v
			}
		}
		user.SocialLinks = links
	}
	if upd.About != nil {
		if err := maxLen("about", *upd.About, MaxAboutLength); err != nil {
			return nil, err
		}
		user.About = *upd.About
	}
	if upd.ProfileImage != nil {
		user.ProfileImage = strings.TrimSpace(*upd.ProfileImage)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: updating profile %s: %w", userID, err)
	}
	return user, nil
}

// Streak builds the activity calendar for year; 0 means the current year.
func (s *AuthService) Streak(ctx context.Context, userID string, year int) (*StreakReport, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Now()
	if year == 0 {
		year = today.Year()
	}
	if year < 1970 || year > 9999 {
		return nil, apperror.ValidationFailed("year", "year is out of range")
	}

	cal := streak.NewCalendar(user.Streaks)
	return &StreakReport{
		Year:  year,
		Stats: streak.Compute(user.Streaks, today),
		Weeks: streak.Render(streak.BuildYearGrid(year), cal),
	}, nil
}
