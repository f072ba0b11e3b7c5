// Package practice tracks each user's progress through the DSA question
// catalogue: per-question status, notes and favorites, a daily goal, a
// daily solve streak, study time, and a difficulty-weighted recommendation.
//
// State lives in a kvstore.Store under one namespace per user. All
// mutations for a user are serialised, so concurrent requests from the same
// account never lose an increment.
package practice

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/schedule"
	"github.com/sakif/edtech-platform/internal/streak"
)

// Status is a question's progress state for one user.
type Status string

// Question states. Unsolved is the default and is never stored.
const (
	Unsolved   Status = "unsolved"
	InProgress Status = "in-progress"
	Solved     Status = "solved"
)

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case Unsolved, InProgress, Solved:
		return st, nil
	}
	return "", apperror.ValidationFailed("status", "must be one of unsolved, in-progress, solved")
}

// Daily goal bounds, in questions solved per day.
const (
	DefaultDailyGoal = 3
	MaxDailyGoal     = 50

	// ActivityPractice is recorded on the user's streak calendar on any day
	// they solve a question.
	ActivityPractice = "dsa-practice"
)

// Catalog is the read side of the question repository.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*model.DSAQuestion, error)
	List(ctx context.Context, filter model.QuestionFilter) ([]model.DSAQuestion, error)
}

// ActivityRecorder receives a "dsa-practice" activity whenever a user
// solves something.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID, date, activity string) error
}

// Bucket counts questions in a topic or difficulty.
type Bucket struct {
	Total      int `json:"total"`
	Solved     int `json:"solved"`
	InProgress int `json:"inProgress"`
}

// Progress is a user's standing against the whole catalogue.
type Progress struct {
	SolvedCount     int               `json:"solvedCount"`
	InProgressCount int               `json:"inProgressCount"`
	Total           int               `json:"total"`
	Percentage      float64           `json:"percentage"`
	Topics          map[string]Bucket `json:"topics"`
	Difficulties    map[string]Bucket `json:"difficulties"`
	Statuses        map[string]Status `json:"statuses"`
	DailyStreak     int               `json:"dailyStreak"`
	DailyGoal       int               `json:"dailyGoal"`
	TodayCompleted  int               `json:"todayCompleted"`
	StudySeconds    int               `json:"studySeconds"`
	LastStudied     string            `json:"lastStudied,omitempty"`
}

// Goal is the daily goal together with today's tally.
type Goal struct {
	Goal      int  `json:"goal"`
	Completed int  `json:"completed"`
	Reached   bool `json:"reached"`
}

// Tracker is the practice service.
type Tracker struct {
	store      *Store
	catalog    Catalog
	activities ActivityRecorder
	sched      *schedule.Scheduler
	clock      schedule.Clock
	logger     *slog.Logger

	locks    *keyedMutex
	migrated sync.Map

	rngMu sync.Mutex
	rng   *rand.Rand

	sessionLimit time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRand makes recommendations deterministic.
func WithRand(r *rand.Rand) Option { return func(t *Tracker) { t.rng = r } }

// WithClock overrides the wall clock used for "today" and study sessions.
func WithClock(c schedule.Clock) Option { return func(t *Tracker) { t.clock = c } }

// WithActivityRecorder records solves on the user's streak calendar.
func WithActivityRecorder(r ActivityRecorder) Option { return func(t *Tracker) { t.activities = r } }

// WithSessionLimit caps how long a single study session can count for.
func WithSessionLimit(d time.Duration) Option { return func(t *Tracker) { t.sessionLimit = d } }

// NewTracker returns a Tracker over store and catalog. Study sessions are
// timed on sched.
func NewTracker(store *Store, catalog Catalog, sched *schedule.Scheduler, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:        store,
		catalog:      catalog,
		sched:        sched,
		clock:        schedule.SystemClock{},
		logger:       logger,
		locks:        newKeyedMutex(),
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		sessionLimit: 4 * time.Hour,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) today() time.Time {
	return streak.Day(t.clock.Now())
}

// begin locks user and makes sure their keys are on the current schema.
func (t *Tracker) begin(ctx context.Context, user string) (func(), error) {
	unlock := t.locks.Lock(user)
	if _, done := t.migrated.Load(user); done {
		return unlock, nil
	}
	if err := t.store.Migrate(ctx, user); err != nil {
		unlock()
		return nil, fmt.Errorf("practice: migrating %s: %w", user, err)
	}
	t.migrated.Store(user, struct{}{})
	return unlock, nil
}

// SetStatus moves a question to status and returns the updated progress.
//
// Moving into Solved also bumps today's completed counter and the daily
// streak: a second solve on the same day leaves the streak alone, a solve
// the day after the last one extends it, and anything later restarts it
// at 1.
func (t *Tracker) SetStatus(ctx context.Context, user, questionID string, status Status) (*Progress, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if _, err := t.catalog.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}

	prev, err := t.store.Status(ctx, user, questionID)
	if err != nil {
		unlock()
		return nil, err
	}
	if err := t.store.SetStatus(ctx, user, questionID, status); err != nil {
		unlock()
		return nil, fmt.Errorf("practice: saving status: %w", err)
	}

	solvedNow := status == Solved && prev != Solved
	if solvedNow {
		if err := t.recordSolve(ctx, user); err != nil {
			unlock()
			return nil, err
		}
	}
	unlock()

	if solvedNow && t.activities != nil {
		if err := t.activities.RecordActivity(ctx, user, t.today().Format(streak.DateLayout), ActivityPractice); err != nil {
			t.logger.Error("failed to record practice activity",
				slog.String("userID", user), slog.String("error", err.Error()))
		}
	}

	t.logger.Debug("practice status changed",
		slog.String("userID", user),
		slog.String("question_id", questionID),
		slog.String("from", string(prev)),
		slog.String("to", string(status)),
	)
	return t.Progress(ctx, user)
}

// recordSolve updates the per-day counter and the daily streak. Callers
// hold the user's lock.
func (t *Tracker) recordSolve(ctx context.Context, user string) error {
	today := t.today()
	day := today.Format(streak.DateLayout)

	n, err := t.store.Completed(ctx, user, day)
	if err != nil {
		return err
	}
	if err := t.store.SetCompleted(ctx, user, day, n+1); err != nil {
		return err
	}

	st, err := t.store.Streak(ctx, user)
	if err != nil {
		return err
	}
	if err := t.store.SetStreak(ctx, user, nextStreak(st, today)); err != nil {
		return err
	}
	return t.store.SetLastStudied(ctx, user, day)
}

func nextStreak(st DailyStreak, today time.Time) DailyStreak {
	day := today.Format(streak.DateLayout)
	switch st.LastDate {
	case day:
		return st
	case today.AddDate(0, 0, -1).Format(streak.DateLayout):
		return DailyStreak{Count: st.Count + 1, LastDate: day}
	default:
		return DailyStreak{Count: 1, LastDate: day}
	}
}

// Progress tallies user's statuses against the current catalogue.
func (t *Tracker) Progress(ctx context.Context, user string) (*Progress, error) {
	questions, err := t.catalog.List(ctx, model.QuestionFilter{})
	if err != nil {
		return nil, err
	}

	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}
	defer unlock()

	statuses, err := t.store.Statuses(ctx, user)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		Total:        len(questions),
		Topics:       make(map[string]Bucket),
		Difficulties: make(map[string]Bucket),
		Statuses:     make(map[string]Status, len(statuses)),
	}
	for _, q := range questions {
		st := statuses[q.ID]
		topic, diff := p.Topics[q.Topic], p.Difficulties[q.Difficulty]
		topic.Total++
		diff.Total++
		switch st {
		case Solved:
			p.SolvedCount++
			topic.Solved++
			diff.Solved++
		case InProgress:
			p.InProgressCount++
			topic.InProgress++
			diff.InProgress++
		}
		p.Topics[q.Topic], p.Difficulties[q.Difficulty] = topic, diff
		if st != "" {
			p.Statuses[q.ID] = st
		}
	}
	p.Percentage = percent(p.SolvedCount, p.Total)

	today := t.today()
	st, err := t.store.Streak(ctx, user)
	if err != nil {
		return nil, err
	}
	// A streak whose last solve is older than yesterday has already lapsed.
	if st.LastDate == today.Format(streak.DateLayout) ||
		st.LastDate == today.AddDate(0, 0, -1).Format(streak.DateLayout) {
		p.DailyStreak = st.Count
	}

	if p.DailyGoal, err = t.store.Goal(ctx, user); err != nil {
		return nil, err
	}
	if p.TodayCompleted, err = t.store.Completed(ctx, user, today.Format(streak.DateLayout)); err != nil {
		return nil, err
	}
	if p.StudySeconds, err = t.store.StudySeconds(ctx, user); err != nil {
		return nil, err
	}
	if p.LastStudied, err = t.store.LastStudied(ctx, user); err != nil {
		return nil, err
	}
	return p, nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

// Note returns user's note on questionID, or "" if there is none.
func (t *Tracker) Note(ctx context.Context, user, questionID string) (string, error) {
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return "", err
	}
	defer unlock()
	return t.store.Note(ctx, user, questionID)
}

// SetNote stores note on questionID; an empty note clears it.
func (t *Tracker) SetNote(ctx context.Context, user, questionID, note string) error {
	if len(note) > 10000 {
		return apperror.ValidationFailed("note", "must be at most 10000 characters")
	}
	if _, err := t.catalog.GetByID(ctx, questionID); err != nil {
		return err
	}
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return err
	}
	defer unlock()
	return t.store.SetNote(ctx, user, questionID, note)
}

// ToggleFavorite flips questionID in the favorites list and reports
// whether it is now a favorite.
func (t *Tracker) ToggleFavorite(ctx context.Context, user, questionID string) (bool, error) {
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return false, err
	}
	defer unlock()

	favs, err := t.store.Favorites(ctx, user)
	if err != nil {
		return false, err
	}
	favorite := false
	if i := slices.Index(favs, questionID); i >= 0 {
		favs = slices.Delete(favs, i, i+1)
	} else {
		favs = append(favs, questionID)
		favorite = true
	}
	return favorite, t.store.SetFavorites(ctx, user, favs)
}

// Favorites returns user's favorite question IDs in the order they were added.
func (t *Tracker) Favorites(ctx context.Context, user string) ([]string, error) {
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return t.store.Favorites(ctx, user)
}

// SetDailyGoal sets how many questions user aims to solve each day.
func (t *Tracker) SetDailyGoal(ctx context.Context, user string, goal int) (*Goal, error) {
	if goal < 1 || goal > MaxDailyGoal {
		return nil, apperror.ValidationFailed("goal", fmt.Sprintf("must be between 1 and %d", MaxDailyGoal))
	}
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := t.store.SetGoal(ctx, user, goal); err != nil {
		unlock()
		return nil, err
	}
	unlock()
	return t.DailyGoal(ctx, user)
}

// DailyGoal reports user's goal and how many questions they solved today.
func (t *Tracker) DailyGoal(ctx context.Context, user string) (*Goal, error) {
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}
	defer unlock()

	goal, err := t.store.Goal(ctx, user)
	if err != nil {
		return nil, err
	}
	done, err := t.store.Completed(ctx, user, t.today().Format(streak.DateLayout))
	if err != nil {
		return nil, err
	}
	return &Goal{Goal: goal, Completed: done, Reached: done >= goal}, nil
}

// AddStudyTime adds d (rounded down to whole seconds) to the user's total.
func (t *Tracker) AddStudyTime(ctx context.Context, user string, d time.Duration) (time.Duration, error) {
	if d < 0 {
		return 0, apperror.ValidationFailed("duration", "must not be negative")
	}
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return 0, err
	}
	defer unlock()

	secs, err := t.store.StudySeconds(ctx, user)
	if err != nil {
		return 0, err
	}
	secs += int(d / time.Second)
	if err := t.store.SetStudySeconds(ctx, user, secs); err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// SessionRunning reports whether user has an unexpired study session.
func (t *Tracker) SessionRunning(user string) bool {
	return t.sched.State(sessionKey(user)) == schedule.Running
}

// StudyTime is the total time user has recorded through study sessions.
func (t *Tracker) StudyTime(ctx context.Context, user string) (time.Duration, error) {
	unlock, err := t.begin(ctx, user)
	if err != nil {
		return 0, err
	}
	defer unlock()

	secs, err := t.store.StudySeconds(ctx, user)
	return time.Duration(secs) * time.Second, err
}

func sessionKey(user string) string { return "session:" + user }

// StartSession begins a study session. Only one may run per user.
func (t *Tracker) StartSession(ctx context.Context, user string) error {
	if err := t.sched.StartIfIdle(sessionKey(user), t.sessionLimit); err != nil {
		return apperror.ConflictMessage("a study session is already running")
	}
	t.logger.Debug("study session started", slog.String("userID", user))
	return nil
}

// StopSession ends the running session, adds its length to the user's
// study time and returns the session length and the new total.
func (t *Tracker) StopSession(ctx context.Context, user string) (time.Duration, time.Duration, error) {
	elapsed, err := t.sched.Stop(sessionKey(user))
	if err != nil {
		return 0, 0, apperror.ConflictMessage("no study session is running")
	}
	total, err := t.AddStudyTime(ctx, user, elapsed)
	if err != nil {
		return 0, 0, err
	}
	return elapsed, total, nil
}

// difficultyWeights maps a solved percentage band to pick weights.
func difficultyWeights(solvedPct float64) map[string]float64 {
	switch {
	case solvedPct < 30:
		return map[string]float64{model.DifficultyEasy: 3, model.DifficultyMedium: 1, model.DifficultyHard: 0.5}
	case solvedPct < 70:
		return map[string]float64{model.DifficultyEasy: 1, model.DifficultyMedium: 3, model.DifficultyHard: 1}
	default:
		return map[string]float64{model.DifficultyEasy: 0.5, model.DifficultyMedium: 1, model.DifficultyHard: 3}
	}
}

// Recommend picks a question the user has not solved. Beginners are
// steered toward Easy questions and strong users toward Hard ones.
func (t *Tracker) Recommend(ctx context.Context, user string) (*model.DSAQuestion, error) {
	questions, err := t.catalog.List(ctx, model.QuestionFilter{})
	if err != nil {
		return nil, err
	}

	unlock, err := t.begin(ctx, user)
	if err != nil {
		return nil, err
	}
	statuses, err := t.store.Statuses(ctx, user)
	unlock()
	if err != nil {
		return nil, err
	}

	solved := 0
	var candidates []model.DSAQuestion
	for _, q := range questions {
		if statuses[q.ID] == Solved {
			solved++
		} else {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return nil, apperror.NotFound("recommendation", user)
	}

	weights := difficultyWeights(percent(solved, len(questions)))
	total := 0.0
	for _, q := range candidates {
		total += weightOf(weights, q.Difficulty)
	}

	t.rngMu.Lock()
	r := t.rng.Float64() * total
	t.rngMu.Unlock()

	for i := range candidates {
		r -= weightOf(weights, candidates[i].Difficulty)
		if r < 0 {
			return &candidates[i], nil
		}
	}
	return &candidates[len(candidates)-1], nil
}

// weightOf treats unknown difficulties like Medium.
func weightOf(weights map[string]float64, difficulty string) float64 {
	if w, ok := weights[difficulty]; ok {
		return w
	}
	return weights[model.DifficultyMedium]
}
