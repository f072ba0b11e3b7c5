package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/edtech-platform/internal/kvstore"
)

// Storage keys. They keep the names the web client has always used so an
// exported browser profile can be imported key for key.
const (
	keyGoal          = "dsa-practice-goal"
	keyFavorites     = "dsa-practice-favorites"
	keyStreak        = "dsa-practice-streak"
	keyLastStudied   = "dsa-practice-last-studied"
	keyStudyTime     = "dsa-practice-study-time"
	keySchemaVersion = "dsa-practice-schema-version"
	prefixCompleted  = "dsa-practice-completed-"
	prefixNote       = "note-"
	prefixStatus     = "status-"
)

// SchemaVersion is the layout Store writes.
//
//	1 (or no version key): favorites stored as a comma separated list
//	2: favorites stored as a JSON array
const SchemaVersion = 2

// DailyStreak counts consecutive days with at least one solve.
type DailyStreak struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate"`
}

// Store is the typed view over a user's practice keys.
type Store struct {
	kv kvstore.Store
}

// NewStore wraps kv.
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Migrate brings user's keys up to SchemaVersion. It is safe to call
// repeatedly.
func (s *Store) Migrate(ctx context.Context, user string) error {
	version, err := s.getInt(ctx, user, keySchemaVersion, 1)
	if err != nil {
		return err
	}
	if version >= SchemaVersion {
		return nil
	}

	if version < 2 {
		raw, err := s.kv.Get(ctx, user, keyFavorites)
		switch {
		case errors.Is(err, kvstore.ErrNotFound):
		case err != nil:
			return fmt.Errorf("practice: reading legacy favorites: %w", err)
		case !strings.HasPrefix(strings.TrimSpace(raw), "["):
			var ids []string
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			if err := s.SetFavorites(ctx, user, ids); err != nil {
				return err
			}
		}
	}

	return s.kv.Set(ctx, user, keySchemaVersion, strconv.Itoa(SchemaVersion))
}

// Statuses returns every stored status keyed by question ID. Unreadable
// values are skipped.
func (s *Store) Statuses(ctx context.Context, user string) (map[string]Status, error) {
	raw, err := s.kv.List(ctx, user, prefixStatus)
	if err != nil {
		return nil, fmt.Errorf("practice: listing statuses: %w", err)
	}
	out := make(map[string]Status, len(raw))
	for k, v := range raw {
		if st, err := ParseStatus(v); err == nil {
			out[strings.TrimPrefix(k, prefixStatus)] = st
		}
	}
	return out, nil
}

// Status returns questionID's status, Unsolved if unset or unreadable.
func (s *Store) Status(ctx context.Context, user, questionID string) (Status, error) {
	v, err := s.kv.Get(ctx, user, prefixStatus+questionID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Unsolved, nil
	}
	if err != nil {
		return "", fmt.Errorf("practice: reading status: %w", err)
	}
	st, err := ParseStatus(v)
	if err != nil {
		return Unsolved, nil
	}
	return st, nil
}

// SetStatus stores status; Unsolved removes the key.
func (s *Store) SetStatus(ctx context.Context, user, questionID string, status Status) error {
	if status == Unsolved {
		return s.kv.Delete(ctx, user, prefixStatus+questionID)
	}
	return s.kv.Set(ctx, user, prefixStatus+questionID, string(status))
}

// Note returns the note on questionID, "" if unset.
func (s *Store) Note(ctx context.Context, user, questionID string) (string, error) {
	v, err := s.kv.Get(ctx, user, prefixNote+questionID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetNote stores note; an empty note removes the key.
func (s *Store) SetNote(ctx context.Context, user, questionID, note string) error {
	if note == "" {
		return s.kv.Delete(ctx, user, prefixNote+questionID)
	}
	return s.kv.Set(ctx, user, prefixNote+questionID, note)
}

// Favorites returns the favorite question IDs, never nil.
func (s *Store) Favorites(ctx context.Context, user string) ([]string, error) {
	ids := []string{}
	if err := s.getJSON(ctx, user, keyFavorites, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetFavorites replaces the favorite list.
func (s *Store) SetFavorites(ctx context.Context, user string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return s.setJSON(ctx, user, keyFavorites, ids)
}

// Goal returns the daily goal, DefaultDailyGoal if unset.
func (s *Store) Goal(ctx context.Context, user string) (int, error) {
	return s.getInt(ctx, user, keyGoal, DefaultDailyGoal)
}

// SetGoal stores the daily goal.
func (s *Store) SetGoal(ctx context.Context, user string, goal int) error {
	return s.kv.Set(ctx, user, keyGoal, strconv.Itoa(goal))
}

// Streak returns the goal streak, zero if unset.
func (s *Store) Streak(ctx context.Context, user string) (DailyStreak, error) {
	var st DailyStreak
	err := s.getJSON(ctx, user, keyStreak, &st)
	return st, err
}

// SetStreak stores the goal streak.
func (s *Store) SetStreak(ctx context.Context, user string, st DailyStreak) error {
	return s.setJSON(ctx, user, keyStreak, st)
}

// Completed is the number of questions solved on date (YYYY-MM-DD).
func (s *Store) Completed(ctx context.Context, user, date string) (int, error) {
	return s.getInt(ctx, user, prefixCompleted+date, 0)
}

// SetCompleted stores the solved count for date.
func (s *Store) SetCompleted(ctx context.Context, user, date string, n int) error {
	return s.kv.Set(ctx, user, prefixCompleted+date, strconv.Itoa(n))
}

// StudySeconds is the total study time recorded for user.
func (s *Store) StudySeconds(ctx context.Context, user string) (int, error) {
	return s.getInt(ctx, user, keyStudyTime, 0)
}

// SetStudySeconds stores the total study time.
func (s *Store) SetStudySeconds(ctx context.Context, user string, seconds int) error {
	return s.kv.Set(ctx, user, keyStudyTime, strconv.Itoa(seconds))
}

// LastStudied is the date of the last study session, "" if none.
func (s *Store) LastStudied(ctx context.Context, user string) (string, error) {
	v, err := s.kv.Get(ctx, user, keyLastStudied)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetLastStudied stores the date of the last study session.
func (s *Store) SetLastStudied(ctx context.Context, user, date string) error {
	return s.kv.Set(ctx, user, keyLastStudied, date)
}

func (s *Store) getInt(ctx context.Context, user, key string, fallback int) (int, error) {
	v, err := s.kv.Get(ctx, user, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("practice: reading %s: %w", key, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

func (s *Store) getJSON(ctx context.Context, user, key string, dst any) error {
	v, err := s.kv.Get(ctx, user, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("practice: reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("practice: decoding %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, user, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("practice: encoding %s: %w", key, err)
	}
	return s.kv.Set(ctx, user, key, string(b))
}
