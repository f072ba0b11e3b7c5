package model

import "time"

// Workshop is a live session students join with a short code.
type Workshop struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}
