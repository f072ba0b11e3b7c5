// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements all of them; tests supply
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/edtech-platform/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertGoogle(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	SetPassword(ctx context.Context, userID, hash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	// RecordActivity adds activity to the user's streak entry for date.
	// Recording the same activity twice on one day is a no-op.
	RecordActivity(ctx context.Context, userID, date, activity string) error

	CreateToken(ctx context.Context, token *model.UserToken) error
	// ConsumeToken returns and deletes a token; expired tokens are NotFound.
	ConsumeToken(ctx context.Context, token, purpose string, now time.Time) (*model.UserToken, error)
}

type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetByID(ctx context.Context, id string) (*model.Article, error)
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	List(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error)
	Update(ctx context.Context, article *model.Article) error
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, category string, opts ListOptions) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
}

type GoodieRepository interface {
	Create(ctx context.Context, goodie *model.Goodie) error
	GetByID(ctx context.Context, id string) (*model.Goodie, error)
	List(ctx context.Context, category string) ([]model.Goodie, error)
	Update(ctx context.Context, goodie *model.Goodie) error
	Delete(ctx context.Context, id string) error
}

type QuestionRepository interface {
	Create(ctx context.Context, q *model.DSAQuestion) error
	GetByID(ctx context.Context, id string) (*model.DSAQuestion, error)
	List(ctx context.Context, filter model.QuestionFilter) ([]model.DSAQuestion, error)
	Update(ctx context.Context, q *model.DSAQuestion) error
	Delete(ctx context.Context, id string) error
}

type WorkshopRepository interface {
	Create(ctx context.Context, w *model.Workshop) error
	List(ctx context.Context) ([]model.Workshop, error)
	Delete(ctx context.Context, id string) error
}

type CollegeRepository interface {
	Create(ctx context.Context, c *model.College) error
	GetByID(ctx context.Context, id string) (*model.College, error)
	List(ctx context.Context) ([]model.College, error)
	Update(ctx context.Context, c *model.College) error
	Delete(ctx context.Context, id string) error

	CreateApplication(ctx context.Context, app *model.Application) error
	ListApplications(ctx context.Context, collegeID string) ([]model.Application, error)
}

type OrderRepository interface {
	// PlaceOrder stores the order, decrements goodie stock and, for coin
	// payments, debits the buyer in a single transaction.
	PlaceOrder(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAll(ctx context.Context, opts ListOptions) ([]model.Order, error)
	// UpdateStatus rejects changes to delivered or cancelled orders with a
	// Conflict. Cancelling restocks the items and refunds coin payments.
	UpdateStatus(ctx context.Context, id, status string) error
}

type ResumeRepository interface {
	CreateUpload(ctx context.Context, upload *model.ResumeUpload) error
	ListUploads(ctx context.Context, userID string) ([]model.ResumeUpload, error)
}
