package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/notify"
	"github.com/sakif/edtech-platform/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. They store
// copies so a test cannot mutate "stored" state by accident.

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users      map[string]*model.User
	tokens     map[string]model.UserToken
	activities map[string]map[string][]string // user → day → activities
	nextID     int
	createErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[string]*model.User),
		tokens:     make(map[string]model.UserToken),
		activities: make(map[string]map[string][]string),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == strings.ToLower(user.Email) {
			return apperror.ConflictMessage("an account with this email already exists")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.Email = strings.ToLower(user.Email)
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	out.Streaks = f.streaks(id)
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return f.GetUserByID(ctx, u.ID)
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpsertGoogle(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GoogleID == user.GoogleID || u.Email == strings.ToLower(user.Email) {
			u.GoogleID = user.GoogleID
			u.EmailVerified = true
			*user = *u
			return nil
		}
	}
	user.EmailVerified = true
	return f.Create(ctx, user)
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) SetPassword(_ context.Context, userID, hash string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) MarkEmailVerified(_ context.Context, userID string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUserRepo) RecordActivity(_ context.Context, userID, date, activity string) error {
	days, ok := f.activities[userID]
	if !ok {
		days = make(map[string][]string)
		f.activities[userID] = days
	}
	for _, a := range days[date] {
		if a == activity {
			return nil
		}
	}
	days[date] = append(days[date], activity)
	return nil
}

func (f *fakeUserRepo) streaks(userID string) []model.StreakEntry {
	days := f.activities[userID]
	out := make([]model.StreakEntry, 0, len(days))
	for d, acts := range days {
		out = append(out, model.StreakEntry{Date: d, Activities: acts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (f *fakeUserRepo) CreateToken(_ context.Context, token *model.UserToken) error {
	f.tokens[token.Token] = *token
	return nil
}

func (f *fakeUserRepo) ConsumeToken(_ context.Context, token, purpose string, now time.Time) (*model.UserToken, error) {
	t, ok := f.tokens[token]
	if !ok || t.Purpose != purpose {
		return nil, apperror.NotFound("token", purpose)
	}
	delete(f.tokens, token)
	if !t.ExpiresAt.After(now) {
		return nil, apperror.NotFound("token", purpose)
	}
	return &t, nil
}

// tokenFor returns the single outstanding token of purpose, or "".
func (f *fakeUserRepo) tokenFor(purpose string) string {
	for k, t := range f.tokens {
		if t.Purpose == purpose {
			return k
		}
	}
	return ""
}

// --- articles ---

type fakeArticleRepo struct {
	articles map[string]*model.Article
	nextID   int
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[string]*model.Article)}
}

func (f *fakeArticleRepo) Create(_ context.Context, a *model.Article) error {
	for _, existing := range f.articles {
		if existing.Slug == a.Slug {
			return apperror.Conflict("article", a.Slug)
		}
	}
	f.nextID++
	a.ID = fmt.Sprintf("article-%d", f.nextID)
	stored := *a
	f.articles[a.ID] = &stored
	return nil
}

func (f *fakeArticleRepo) GetByID(_ context.Context, id string) (*model.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, apperror.NotFound("article", id)
	}
	out := *a
	return &out, nil
}

func (f *fakeArticleRepo) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	for id, a := range f.articles {
		if a.Slug == slug {
			return f.GetByID(ctx, id)
		}
	}
	return nil, apperror.NotFound("article", slug)
}

func (f *fakeArticleRepo) List(_ context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	out := []model.Article{}
	for _, a := range f.articles {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArticleRepo) Update(_ context.Context, a *model.Article) error {
	if _, ok := f.articles[a.ID]; !ok {
		return apperror.NotFound("article", a.ID)
	}
	stored := *a
	f.articles[a.ID] = &stored
	return nil
}

func (f *fakeArticleRepo) SetStatus(_ context.Context, id, status string) error {
	a, ok := f.articles[id]
	if !ok {
		return apperror.NotFound("article", id)
	}
	a.Status = status
	return nil
}

func (f *fakeArticleRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.articles[id]; !ok {
		return apperror.NotFound("article", id)
	}
	delete(f.articles, id)
	return nil
}

// --- colleges ---

type fakeCollegeRepo struct {
	colleges map[string]*model.College
	apps     []model.Application
	nextID   int
}

func newFakeCollegeRepo() *fakeCollegeRepo {
	return &fakeCollegeRepo{colleges: make(map[string]*model.College)}
}

func (f *fakeCollegeRepo) Create(_ context.Context, c *model.College) error {
	f.nextID++
	c.ID = fmt.Sprintf("college-%d", f.nextID)
	stored := *c
	f.colleges[c.ID] = &stored
	return nil
}

func (f *fakeCollegeRepo) GetByID(_ context.Context, id string) (*model.College, error) {
	c, ok := f.colleges[id]
	if !ok {
		return nil, apperror.NotFound("college", id)
	}
	out := *c
	return &out, nil
}

func (f *fakeCollegeRepo) List(_ context.Context) ([]model.College, error) {
	out := []model.College{}
	for _, c := range f.colleges {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCollegeRepo) Update(_ context.Context, c *model.College) error {
	if _, ok := f.colleges[c.ID]; !ok {
		return apperror.NotFound("college", c.ID)
	}
	stored := *c
	f.colleges[c.ID] = &stored
	return nil
}

func (f *fakeCollegeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.colleges[id]; !ok {
		return apperror.NotFound("college", id)
	}
	delete(f.colleges, id)
	return nil
}

func (f *fakeCollegeRepo) CreateApplication(_ context.Context, app *model.Application) error {
	for _, a := range f.apps {
		if a.ReferenceID == app.ReferenceID {
			return apperror.Conflict("application", app.ReferenceID)
		}
	}
	app.ID = fmt.Sprintf("app-%d", len(f.apps)+1)
	f.apps = append(f.apps, *app)
	return nil
}

func (f *fakeCollegeRepo) ListApplications(_ context.Context, collegeID string) ([]model.Application, error) {
	out := []model.Application{}
	for _, a := range f.apps {
		if a.CollegeID == collegeID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- orders ---

type fakeOrderRepo struct {
	placed      []*model.Order
	err         error
	statusCalls int
}

func (f *fakeOrderRepo) PlaceOrder(_ context.Context, o *model.Order) error {
	if f.err != nil {
		return f.err
	}
	o.ID = fmt.Sprintf("order-%d", len(f.placed)+1)
	f.placed = append(f.placed, o)
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	for _, o := range f.placed {
		if o.ID == id || o.OrderID == id {
			out := *o
			return &out, nil
		}
	}
	return nil, apperror.NotFound("order", id)
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.placed {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context, _ repository.ListOptions) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.placed {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	for _, o := range f.placed {
		if o.ID == id {
			if model.OrderFinal(o.Status) {
				return apperror.ConflictMessage("order is already " + o.Status)
			}
			o.Status = status
			f.statusCalls++
			return nil
		}
	}
	return apperror.NotFound("order", id)
}
