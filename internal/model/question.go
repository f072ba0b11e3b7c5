package model

import "time"

// Difficulty levels for DSA questions.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DSAQuestion is one practice problem in the catalogue.
type DSAQuestion struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	Company    string    `json:"company"`
	Link       string    `json:"link"`
	YTLink     string    `json:"ytLink"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuestionFilter narrows question listings. Zero values mean "any".
type QuestionFilter struct {
	Topic      string
	Difficulty string
	Company    string
	Search     string
	// Sort is one of "", "difficulty", "topic", "newest".
	Sort string
}
