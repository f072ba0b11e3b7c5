package model

import "time"

// Course is an ordered set of modules, each an ordered set of topics.
type Course struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Modules     []CourseModule `json:"modules"`
	Thumbnail   string         `json:"thumbnail"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type CourseModule struct {
	Title  string        `json:"title" validate:"required"`
	Topics []CourseTopic `json:"topics" validate:"dive"`
}

type CourseTopic struct {
	Title       string `json:"title" validate:"required"`
	YoutubeURL  string `json:"youtubeUrl" validate:"omitempty,url"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
}
