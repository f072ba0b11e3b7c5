package model

import "time"

// Article moderation states. New and edited articles wait for an admin.
const (
	ArticlePending   = "pending"
	ArticlePublished = "published"
	ArticleDenied    = "denied"
)

// Article is a user-authored post. Content is HTML produced by the editor.
type Article struct {
	ID           string        `json:"id"`
	Slug         string        `json:"slug"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Tags         []string      `json:"tags"`
	CodeSnippets []CodeSnippet `json:"codeSnippets"`
	Images       []string      `json:"images"`
	PDFs         []string      `json:"pdfs"`
	AuthorID     string        `json:"author"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CodeSnippet is a highlighted code block attached to an article.
type CodeSnippet struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ArticleFilter narrows article listings. Zero values mean "any".
type ArticleFilter struct {
	Status   string
	AuthorID string
	Tag      string
	Search   string
	Limit    int
	Offset   int
}
