package model

import "time"

// ResumeUpload is the audit record kept for every resume a user submits.
type ResumeUpload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Filename  string    `json:"filename"`
	StoredAs  string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
