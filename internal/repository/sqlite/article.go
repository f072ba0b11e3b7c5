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

var _ repository.ArticleRepository = (*ArticleDB)(nil)

type ArticleDB struct {
	conn *sql.DB
}

const articleColumns = `id, slug, title, content, tags, code_snippets, images, pdfs,
	author_id, status, created_at, updated_at`

// Create inserts an article. The caller chooses the slug; a clash is a Conflict
// so the service can retry with a suffixed slug.
func (a *ArticleDB) Create(ctx context.Context, article *model.Article) error {
	article.ID = xid.New().String()
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	cols, err := encodeArticle(article)
	if err != nil {
		return fmt.Errorf("sqlite: encoding article: %w", err)
	}

	_, err = a.conn.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID, article.Slug, article.Title, article.Content,
		cols[0], cols[1], cols[2], cols[3],
		article.AuthorID, article.Status, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("article", article.Slug)
		}
		return fmt.Errorf("sqlite: creating article: %w", err)
	}
	return nil
}

func (a *ArticleDB) GetByID(ctx context.Context, id string) (*model.Article, error) {
	return a.getOne(ctx, "id", id)
}

func (a *ArticleDB) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return a.getOne(ctx, "slug", slug)
}

func (a *ArticleDB) getOne(ctx context.Context, column, value string) (*model.Article, error) {
	row := a.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE `+column+` = ?`, value)
	article, err := scanArticle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", value)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", value, err)
	}
	return article, nil
}

// List returns articles newest first. Filters are ANDed together.
func (a *ArticleDB) List(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	limit, offset := clampList(filter.Limit, filter.Offset)

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(articles.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		where = append(where, "title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating articles: %w", err)
	}
	return articles, nil
}

func (a *ArticleDB) Update(ctx context.Context, article *model.Article) error {
	article.UpdatedAt = time.Now().UTC()
	cols, err := encodeArticle(article)
	if err != nil {
		return fmt.Errorf("sqlite: encoding article: %w", err)
	}

	result, err := a.conn.ExecContext(ctx,
		`UPDATE articles
		 SET title = ?, content = ?, tags = ?, code_snippets = ?, images = ?, pdfs = ?,
		     status = ?, updated_at = ?
		 WHERE id = ?`,
		article.Title, article.Content, cols[0], cols[1], cols[2], cols[3],
		article.Status, article.UpdatedAt, article.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating article %s: %w", article.ID, err)
	}
	return expectOneRow(result, "article", article.ID)
}

func (a *ArticleDB) SetStatus(ctx context.Context, id, status string) error {
	result, err := a.conn.ExecContext(ctx,
		`UPDATE articles SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting article %s status: %w", id, err)
	}
	return expectOneRow(result, "article", id)
}

func (a *ArticleDB) Delete(ctx context.Context, id string) error {
	result, err := a.conn.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting article %s: %w", id, err)
	}
	return expectOneRow(result, "article", id)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var (
		article                      model.Article
		tags, snippets, images, pdfs string
	)
	if err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Content,
		&tags, &snippets, &images, &pdfs,
		&article.AuthorID, &article.Status, &article.CreatedAt, &article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{tags, &article.Tags},
		{snippets, &article.CodeSnippets},
		{images, &article.Images},
		{pdfs, &article.PDFs},
	} {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &article, nil
}

// encodeArticle returns tags, code snippets, images and pdfs as JSON, in that order.
func encodeArticle(article *model.Article) ([4]string, error) {
	var out [4]string
	for i, v := range []any{article.Tags, article.CodeSnippets, article.Images, article.PDFs} {
		s, err := encodeJSON(v)
		if err != nil {
			return out, err
		}
		out[i] = s
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
