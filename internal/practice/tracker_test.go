package practice

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/kvstore"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/schedule"
)

// =========================================================================
// FAKES
// =========================================================================

type fakeCatalog struct {
	questions []model.DSAQuestion
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*model.DSAQuestion, error) {
	for i := range f.questions {
		if f.questions[i].ID == id {
			return &f.questions[i], nil
		}
	}
	return nil, apperror.NotFound("question", id)
}

func (f *fakeCatalog) List(_ context.Context, _ model.QuestionFilter) ([]model.DSAQuestion, error) {
	return f.questions, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedActivity struct{ user, date, activity string }

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedActivity
}

func (f *fakeRecorder) RecordActivity(_ context.Context, userID, date, activity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedActivity{userID, date, activity})
	return nil
}

func defaultCatalog() *fakeCatalog {
	return &fakeCatalog{questions: []model.DSAQuestion{
		{ID: "q1", Topic: "array", Difficulty: model.DifficultyEasy},
		{ID: "q2", Topic: "array", Difficulty: model.DifficultyMedium},
		{ID: "q3", Topic: "graph", Difficulty: model.DifficultyHard},
		{ID: "q4", Topic: "graph", Difficulty: model.DifficultyEasy},
	}}
}

type fixture struct {
	tracker  *Tracker
	kv       *kvstore.Memory
	clock    *fakeClock
	sched    *schedule.Scheduler
	recorder *fakeRecorder
}

func newFixture(t *testing.T, catalog *fakeCatalog) *fixture {
	t.Helper()
	kv := kvstore.NewMemory()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)}
	recorder := &fakeRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := schedule.NewScheduler(clock)
	tracker := NewTracker(NewStore(kv), catalog, sched, logger,
		WithClock(clock),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithActivityRecorder(recorder),
		WithSessionLimit(2*time.Hour),
	)
	return &fixture{tracker: tracker, kv: kv, clock: clock, sched: sched, recorder: recorder}
}

const user = "user-1"

// =========================================================================
// STATUS TRANSITIONS
// =========================================================================

func TestSetStatus_UnsolvedToSolved(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	before, err := f.tracker.Progress(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0, before.SolvedCount)

	after, err := f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)

	assert.Equal(t, before.SolvedCount+1, after.SolvedCount)
	assert.Equal(t, before.Topics["array"].Solved+1, after.Topics["array"].Solved)
	assert.Equal(t, 2, after.Topics["array"].Total)
	assert.Equal(t, 25.0, after.Percentage)
	assert.Equal(t, Solved, after.Statuses["q1"])
}

func TestSetStatus_InProgressToSolvedMovesBucket(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	mid, err := f.tracker.SetStatus(ctx, user, "q3", InProgress)
	require.NoError(t, err)
	assert.Equal(t, 1, mid.InProgressCount)
	assert.Equal(t, 1, mid.Topics["graph"].InProgress)

	done, err := f.tracker.SetStatus(ctx, user, "q3", Solved)
	require.NoError(t, err)
	assert.Equal(t, 0, done.InProgressCount)
	assert.Equal(t, 0, done.Topics["graph"].InProgress)
	assert.Equal(t, mid.SolvedCount+1, done.SolvedCount)
	assert.Equal(t, 1, done.Difficulties[model.DifficultyHard].Solved)
}

func TestSetStatus_ResolvingTwiceCountsOnce(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	_, err := f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)
	p, err := f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)

	assert.Equal(t, 1, p.SolvedCount)
	assert.Equal(t, 1, p.TodayCompleted)
	assert.Len(t, f.recorder.seen, 1)
}

func TestSetStatus_BackToUnsolved(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	_, err := f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)
	p, err := f.tracker.SetStatus(ctx, user, "q1", Unsolved)
	require.NoError(t, err)

	assert.Equal(t, 0, p.SolvedCount)
	assert.NotContains(t, p.Statuses, "q1")
}

func TestSetStatus_Rejects(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	_, err := f.tracker.SetStatus(ctx, user, "q1", Status("done"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.tracker.SetStatus(ctx, user, "nope", Solved)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSetStatus_RecordsPracticeActivity(t *testing.T) {
	f := newFixture(t, defaultCatalog())

	_, err := f.tracker.SetStatus(context.Background(), user, "q2", Solved)
	require.NoError(t, err)

	require.Len(t, f.recorder.seen, 1)
	assert.Equal(t, recordedActivity{user, "2025-03-10", ActivityPractice}, f.recorder.seen[0])
}

// =========================================================================
// DAILY STREAK
// =========================================================================

func TestDailyStreak(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()
	day := 24 * time.Hour

	solve := func(id string) *Progress {
		t.Helper()
		p, err := f.tracker.SetStatus(ctx, user, id, Solved)
		require.NoError(t, err)
		return p
	}

	assert.Equal(t, 1, solve("q1").DailyStreak)
	assert.Equal(t, 1, solve("q2").DailyStreak, "second solve on the same day")

	f.clock.Advance(day)
	assert.Equal(t, 2, solve("q3").DailyStreak, "next day extends")

	f.clock.Advance(2 * day)
	assert.Equal(t, 1, solve("q4").DailyStreak, "a skipped day resets to 1")
}

func TestDailyStreak_LapsedStreakReportsZero(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	_, err := f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)

	f.clock.Advance(72 * time.Hour)
	p, err := f.tracker.Progress(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0, p.DailyStreak)
	assert.Equal(t, 0, p.TodayCompleted)
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   DailyStreak
		want DailyStreak
	}{
		{"first ever", DailyStreak{}, DailyStreak{1, "2025-03-01"}},
		{"same day", DailyStreak{4, "2025-03-01"}, DailyStreak{4, "2025-03-01"}},
		{"across month end", DailyStreak{4, "2025-02-28"}, DailyStreak{5, "2025-03-01"}},
		{"gap", DailyStreak{9, "2025-02-27"}, DailyStreak{1, "2025-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextStreak(tt.in, today))
		})
	}
}

func TestSetStatus_ConcurrentSolvesNeverLoseCount(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 0; i < 40; i++ {
		catalog.questions = append(catalog.questions, model.DSAQuestion{
			ID: string(rune('A' + i)), Topic: "t", Difficulty: model.DifficultyEasy,
		})
	}
	f := newFixture(t, catalog)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, q := range catalog.questions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.tracker.SetStatus(ctx, user, id, Solved)
			assert.NoError(t, err)
		}(q.ID)
	}
	wg.Wait()

	g, err := f.tracker.DailyGoal(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 40, g.Completed)
}

// =========================================================================
// NOTES, FAVORITES, GOAL, STUDY TIME
// =========================================================================

func TestNotes(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	require.NoError(t, f.tracker.SetNote(ctx, user, "q1", "use a hash map"))
	note, err := f.tracker.Note(ctx, user, "q1")
	require.NoError(t, err)
	assert.Equal(t, "use a hash map", note)

	raw, err := f.kv.Get(ctx, user, "note-q1")
	require.NoError(t, err)
	assert.Equal(t, "use a hash map", raw)

	require.NoError(t, f.tracker.SetNote(ctx, user, "q1", ""))
	note, err = f.tracker.Note(ctx, user, "q1")
	require.NoError(t, err)
	assert.Empty(t, note)
}

func TestToggleFavorite_TwiceRestores(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	before, err := f.tracker.Favorites(ctx, user)
	require.NoError(t, err)

	on, err := f.tracker.ToggleFavorite(ctx, user, "q2")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := f.tracker.ToggleFavorite(ctx, user, "q2")
	require.NoError(t, err)
	assert.False(t, off)

	after, err := f.tracker.Favorites(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDailyGoal(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	g, err := f.tracker.DailyGoal(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, Goal{Goal: DefaultDailyGoal}, *g)

	g, err = f.tracker.SetDailyGoal(ctx, user, 1)
	require.NoError(t, err)
	assert.False(t, g.Reached)

	_, err = f.tracker.SetStatus(ctx, user, "q1", Solved)
	require.NoError(t, err)
	g, err = f.tracker.DailyGoal(ctx, user)
	require.NoError(t, err)
	assert.True(t, g.Reached)

	_, err = f.tracker.SetDailyGoal(ctx, user, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestStudySession(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	require.NoError(t, f.tracker.StartSession(ctx, user))
	assert.ErrorIs(t, f.tracker.StartSession(ctx, user), apperror.ErrConflict)

	f.clock.Advance(25 * time.Minute)
	elapsed, total, err := f.tracker.StopSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, elapsed)
	assert.Equal(t, 25*time.Minute, total)

	_, _, err = f.tracker.StopSession(ctx, user)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// Sessions left running past the limit only count up to the limit.
	require.NoError(t, f.tracker.StartSession(ctx, user))
	f.clock.Advance(10 * time.Hour)
	elapsed, total, err = f.tracker.StopSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, elapsed)
	assert.Equal(t, 2*time.Hour+25*time.Minute, total)
}

func TestStudySession_ExpiredSurvivesSweep(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	require.NoError(t, f.tracker.StartSession(ctx, user))
	f.clock.Advance(3 * time.Hour)
	f.sched.Sweep()

	elapsed, total, err := f.tracker.StopSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, elapsed)
	assert.Equal(t, 2*time.Hour, total)
}

func TestStudySession_ConcurrentStartsOnlyOneWins(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.tracker.StartSession(ctx, user) == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}

func TestAddStudyTime_RejectsNegative(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	_, err := f.tracker.AddStudyTime(context.Background(), user, -time.Second)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// RECOMMEND
// =========================================================================

func TestRecommend_NeverReturnsSolved(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	for _, id := range []string{"q1", "q2", "q3"} {
		_, err := f.tracker.SetStatus(ctx, user, id, Solved)
		require.NoError(t, err)
	}
	for i := 0; i < 20; i++ {
		q, err := f.tracker.Recommend(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, "q4", q.ID)
	}

	_, err := f.tracker.SetStatus(ctx, user, "q4", Solved)
	require.NoError(t, err)
	_, err = f.tracker.Recommend(ctx, user)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecommend_BeginnerFavoursEasy(t *testing.T) {
	f := newFixture(t, defaultCatalog())
	ctx := context.Background()

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		q, err := f.tracker.Recommend(ctx, user)
		require.NoError(t, err)
		counts[q.Difficulty]++
	}
	// Weights 3:1:0.5 over two Easy, one Medium, one Hard → 6:1:0.5.
	assert.Greater(t, counts[model.DifficultyEasy], counts[model.DifficultyMedium]*3)
	assert.Greater(t, counts[model.DifficultyMedium], counts[model.DifficultyHard])
}

func TestDifficultyWeights(t *testing.T) {
	assert.Equal(t, 3.0, difficultyWeights(0)[model.DifficultyEasy])
	assert.Equal(t, 3.0, difficultyWeights(30)[model.DifficultyMedium])
	assert.Equal(t, 3.0, difficultyWeights(70)[model.DifficultyHard])
	assert.Equal(t, 0.5, difficultyWeights(99.9)[model.DifficultyEasy])
}
