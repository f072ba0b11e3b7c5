// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user can hold. Admins may moderate articles and manage the catalogue.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// Users sign up with email + password or with Google. GoogleID is empty for
// password accounts and PasswordHash is empty for Google-only accounts.
type User struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	PasswordHash  string            `json:"-"`
	GoogleID      string            `json:"-"`
	Role          string            `json:"role"`
	EmailVerified bool              `json:"emailVerified"`
	College       string            `json:"college"`
	Skills        []string          `json:"skills"`
	SocialLinks   map[string]string `json:"socialLinks"`
	About         string            `json:"about"`
	ProfileImage  string            `json:"profileImage"`
	Coins         int               `json:"coins"`
	Streaks       []StreakEntry     `json:"streaks"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// StreakEntry records the activities a user performed on one calendar day.
// Date is always formatted as YYYY-MM-DD.
type StreakEntry struct {
	Date       string   `json:"date"`
	Activities []string `json:"activities"`
}

// ProfileUpdate carries the editable profile fields. Nil means "unchanged".
type ProfileUpdate struct {
	Name         *string            `json:"name,omitempty"`
	College      *string            `json:"college,omitempty"`
	Skills       *[]string          `json:"skills,omitempty"`
	SocialLinks  *map[string]string `json:"socialLinks,omitempty"`
	About        *string            `json:"about,omitempty"`
	ProfileImage *string            `json:"profileImage,omitempty"`
}

// Token purposes for single-use tokens mailed to users.
const (
	TokenVerifyEmail   = "verify-email"
	TokenResetPassword = "reset-password"
)

// UserToken is a single-use token (email verification, password reset).
type UserToken struct {
	Token     string
	UserID    string
	Purpose   string
	ExpiresAt time.Time
}
