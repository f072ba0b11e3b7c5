package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores accounts, their daily activity log and single-use tokens.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, name, password_hash, google_id, role, email_verified,
	college, skills, social_links, about, profile_image, coins, created_at, updated_at`

// Create inserts a new user. Email is stored lower-cased; a duplicate email
// is reported as a Conflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	skills, links, err := encodeProfile(user)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user profile: %w", err)
	}

	_, err = u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, nullString(user.GoogleID),
		user.Role, user.EmailVerified, user.College, skills, links, user.About,
		user.ProfileImage, user.Coins, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ConflictMessage("an account with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user and their streak history.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := u.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	if err := u.loadStreaks(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail looks a user up by (case-insensitive) email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := u.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	if err := u.loadStreaks(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertGoogle links a Google identity to an account.
//
// Lookup order: an account already linked to this Google ID, then an
// account with the same email (which gets linked), otherwise a new account.
// On return user holds the canonical stored record.
func (u *UserDB) UpsertGoogle(ctx context.Context, user *model.User) error {
	var existingID string
	err := u.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE google_id = ? OR email = ?
		 ORDER BY CASE WHEN google_id = ? THEN 0 ELSE 1 END LIMIT 1`,
		user.GoogleID, strings.ToLower(user.Email), user.GoogleID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up google user %s: %w", user.GoogleID, err)
	}

	if existingID == "" {
		user.EmailVerified = true
		return u.Create(ctx, user)
	}

	_, err = u.conn.ExecContext(ctx,
		`UPDATE users
		 SET google_id = ?, email_verified = 1,
		     name = CASE WHEN name = '' THEN ? ELSE name END,
		     profile_image = CASE WHEN profile_image = '' THEN ? ELSE profile_image END,
		     updated_at = ?
		 WHERE id = ?`,
		user.GoogleID, user.Name, user.ProfileImage, time.Now().UTC(), existingID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: linking google user %s: %w", existingID, err)
	}

	stored, err := u.GetUserByID(ctx, existingID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// Update writes the editable profile fields and the coin balance.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	skills, links, err := encodeProfile(user)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user profile: %w", err)
	}

	result, err := u.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, college = ?, skills = ?, social_links = ?, about = ?,
		     profile_image = ?, coins = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.College, skills, links, user.About, user.ProfileImage,
		user.Coins, user.Role, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return expectOneRow(result, "user", user.ID)
}

func (u *UserDB) SetPassword(ctx context.Context, userID, hash string) error {
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting password for %s: %w", userID, err)
	}
	return expectOneRow(result, "user", userID)
}

func (u *UserDB) MarkEmailVerified(ctx context.Context, userID string) error {
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: verifying email for %s: %w", userID, err)
	}
	return expectOneRow(result, "user", userID)
}

// RecordActivity is idempotent per (user, day, activity) thanks to the
// composite primary key.
func (u *UserDB) RecordActivity(ctx context.Context, userID, date, activity string) error {
	_, err := u.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_activities (user_id, day, activity) VALUES (?, ?, ?)`,
		userID, date, activity,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording %s activity for %s: %w", activity, userID, err)
	}
	return nil
}

func (u *UserDB) CreateToken(ctx context.Context, token *model.UserToken) error {
	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO user_tokens (token, user_id, purpose, expires_at) VALUES (?, ?, ?, ?)`,
		token.Token, token.UserID, token.Purpose, token.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating %s token: %w", token.Purpose, err)
	}
	return nil
}

// ConsumeToken reads and deletes the token inside one transaction, so a
// token can be redeemed at most once even under concurrent requests.
func (u *UserDB) ConsumeToken(ctx context.Context, token, purpose string, now time.Time) (*model.UserToken, error) {
	tx, err := u.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning token transaction: %w", err)
	}
	defer tx.Rollback()

	var t model.UserToken
	err = tx.QueryRowContext(ctx,
		`SELECT token, user_id, purpose, expires_at FROM user_tokens
		 WHERE token = ? AND purpose = ?`,
		token, purpose,
	).Scan(&t.Token, &t.UserID, &t.Purpose, &t.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("token", purpose)
		}
		return nil, fmt.Errorf("sqlite: reading %s token: %w", purpose, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token); err != nil {
		return nil, fmt.Errorf("sqlite: deleting %s token: %w", purpose, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing token consumption: %w", err)
	}

	// Expired tokens are still deleted above; they are just not honoured.
	if !t.ExpiresAt.After(now) {
		return nil, apperror.NotFound("token", purpose)
	}
	return &t, nil
}

func (u *UserDB) scanOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		user     model.User
		googleID sql.NullString
		skills   string
		links    string
	)
	err := u.conn.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &googleID,
		&user.Role, &user.EmailVerified, &user.College, &skills, &links,
		&user.About, &user.ProfileImage, &user.Coins, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.GoogleID = googleID.String
	if err := decodeJSON(skills, &user.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	if err := decodeJSON(links, &user.SocialLinks); err != nil {
		return nil, fmt.Errorf("decoding social links: %w", err)
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.SocialLinks == nil {
		user.SocialLinks = map[string]string{}
	}
	return &user, nil
}

// loadStreaks folds the activity rows into one StreakEntry per day, oldest first.
func (u *UserDB) loadStreaks(ctx context.Context, user *model.User) error {
	rows, err := u.conn.QueryContext(ctx,
		`SELECT day, activity FROM user_activities WHERE user_id = ? ORDER BY day, activity`,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading streaks for %s: %w", user.ID, err)
	}
	defer rows.Close()

	user.Streaks = []model.StreakEntry{}
	for rows.Next() {
		var day, activity string
		if err := rows.Scan(&day, &activity); err != nil {
			return fmt.Errorf("sqlite: scanning streak row: %w", err)
		}
		n := len(user.Streaks)
		if n > 0 && user.Streaks[n-1].Date == day {
			user.Streaks[n-1].Activities = append(user.Streaks[n-1].Activities, activity)
			continue
		}
		user.Streaks = append(user.Streaks, model.StreakEntry{Date: day, Activities: []string{activity}})
	}
	return rows.Err()
}

func encodeProfile(user *model.User) (string, string, error) {
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.SocialLinks == nil {
		user.SocialLinks = map[string]string{}
	}
	skills, err := encodeJSON(user.Skills)
	if err != nil {
		return "", "", err
	}
	links, err := encodeJSON(user.SocialLinks)
	if err != nil {
		return "", "", err
	}
	return skills, links, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// expectOneRow turns "UPDATE/DELETE matched nothing" into NotFound.
func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
