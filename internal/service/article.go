package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/auth"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

const (
	MaxArticleTitleLength = 200
	MaxArticleTags        = 10
)

// ArticleInput is the author-editable part of an article.
type ArticleInput struct {
	Title        string              `json:"title" validate:"required,max=200"`
	Content      string              `json:"content" validate:"required"`
	Tags         []string            `json:"tags" validate:"max=10,dive,max=40"`
	CodeSnippets []model.CodeSnippet `json:"codeSnippets"`
	Images       []string            `json:"images"`
	PDFs         []string            `json:"pdfs"`
}

// ArticleService runs the article lifecycle: authors write, admins moderate,
// everyone reads what is published.
type ArticleService struct {
	repo   repository.ArticleRepository
	logger *slog.Logger
}

func NewArticleService(repo repository.ArticleRepository, logger *slog.Logger) *ArticleService {
	return &ArticleService{repo: repo, logger: logger}
}

func (in *ArticleInput) normalise() error {
	in.Title = strings.TrimSpace(in.Title)
	if err := firstErr(
		required("title", in.Title),
		maxLen("title", in.Title, MaxArticleTitleLength),
		required("content", in.Content),
	); err != nil {
		return err
	}
	in.Tags = cleanList(in.Tags)
	if len(in.Tags) > MaxArticleTags {
		return apperror.ValidationFailed("tags", fmt.Sprintf("at most %d tags are allowed", MaxArticleTags))
	}
	for i, snip := range in.CodeSnippets {
		if strings.TrimSpace(snip.Code) == "" {
			return apperror.ValidationFailed("codeSnippets", fmt.Sprintf("code snippet %d is empty", i+1))
		}
	}
	in.Images = cleanList(in.Images)
	in.PDFs = cleanList(in.PDFs)
	return nil
}

// Create stores a new article awaiting moderation.
func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:        in.Title,
		Content:      in.Content,
		Tags:         in.Tags,
		CodeSnippets: in.CodeSnippets,
		Images:       in.Images,
		PDFs:         in.PDFs,
		AuthorID:     authorID,
		Status:       model.ArticlePending,
	}
	err := createWithSlug(ctx, makeSlug(in.Title, "article"), func(ctx context.Context, slug string) error {
		article.Slug = slug
		return s.repo.Create(ctx, article)
	})
	if err != nil {
		s.logger.Error("failed to create article",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.logger.Info("article created",
		slog.String("id", article.ID),
		slog.String("slug", article.Slug),
	)
	return article, nil
}

// visible hides unpublished articles from everyone but their author and admins.
func visible(article *model.Article, viewer *auth.Identity) bool {
	if article.Status == model.ArticlePublished {
		return true
	}
	return viewer != nil && (viewer.Role == model.RoleAdmin || viewer.UserID == article.AuthorID)
}

// Get returns an article by id. viewer may be nil for anonymous readers.
func (s *ArticleService) Get(ctx context.Context, id string, viewer *auth.Identity) (*model.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting article: %w", err)
	}
	if !visible(article, viewer) {
		return nil, apperror.NotFound("article", id)
	}
	return article, nil
}

func (s *ArticleService) GetBySlug(ctx context.Context, slug string, viewer *auth.Identity) (*model.Article, error) {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("getting article: %w", err)
	}
	if !visible(article, viewer) {
		return nil, apperror.NotFound("article", slug)
	}
	return article, nil
}

// ListPublished lists what anonymous readers see. Status in filter is ignored.
func (s *ArticleService) ListPublished(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	filter.Status = model.ArticlePublished
	filter.AuthorID = ""
	return s.list(ctx, filter)
}

// ListByAuthor returns every article of one author regardless of status.
func (s *ArticleService) ListByAuthor(ctx context.Context, authorID string) ([]model.Article, error) {
	return s.list(ctx, model.ArticleFilter{AuthorID: authorID, Limit: 100})
}

// ListPending is the admin moderation queue.
func (s *ArticleService) ListPending(ctx context.Context) ([]model.Article, error) {
	return s.list(ctx, model.ArticleFilter{Status: model.ArticlePending, Limit: 100})
}

func (s *ArticleService) list(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	articles, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return articles, nil
}

// Update replaces the content of an article. Only the author may edit, and
// every edit sends the article back to moderation.
func (s *ArticleService) Update(ctx context.Context, id, editorID string, in ArticleInput) (*model.Article, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating article: %w", err)
	}
	if article.AuthorID != editorID {
		return nil, apperror.Forbidden("only the author can edit this article")
	}

	article.Title = in.Title
	article.Content = in.Content
	article.Tags = in.Tags
	article.CodeSnippets = in.CodeSnippets
	article.Images = in.Images
	article.PDFs = in.PDFs
	article.Status = model.ArticlePending

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("updating article %s: %w", id, err)
	}
	s.logger.Info("article updated", slog.String("id", id))
	return article, nil
}

// Delete removes an article on behalf of its author or an admin.
func (s *ArticleService) Delete(ctx context.Context, id string, who auth.Identity) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if article.AuthorID != who.UserID && who.Role != model.RoleAdmin {
		return apperror.Forbidden("only the author or an admin can delete this article")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting article %s: %w", id, err)
	}
	s.logger.Info("article deleted", slog.String("id", id), slog.String("by", who.UserID))
	return nil
}

// Moderation actions accepted by Moderate besides raw status names.
const (
	ModerateApprove = "approve"
	ModerateDeny    = "deny"
)

// Moderate sets an article's status. action is "approve", "deny" or one of
// the status names.
func (s *ArticleService) Moderate(ctx context.Context, id, action string) (*model.Article, error) {
	var status string
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ModerateApprove, model.ArticlePublished:
		status = model.ArticlePublished
	case ModerateDeny, model.ArticleDenied:
		status = model.ArticleDenied
	case model.ArticlePending:
		status = model.ArticlePending
	default:
		return nil, apperror.ValidationFailed("status", "status must be approve, deny or pending")
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to moderate article",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("moderating article %s: %w", id, err)
	}
	s.logger.Info("article moderated", slog.String("id", id), slog.String("status", status))

	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("moderating article %s: %w", id, err)
	}
	return article, nil
}
