package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

var _ repository.ResumeRepository = (*ResumeDB)(nil)

// ResumeDB is the audit log of resume uploads.
type ResumeDB struct {
	conn *sql.DB
}

func (r *ResumeDB) CreateUpload(ctx context.Context, upload *model.ResumeUpload) error {
	if upload.ID == "" {
		upload.ID = xid.New().String()
	}
	upload.CreatedAt = time.Now().UTC()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO resume_uploads (id, user_id, filename, stored_as, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		upload.ID, upload.UserID, upload.Filename, upload.StoredAs, upload.Size, upload.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording resume upload: %w", err)
	}
	return nil
}

func (r *ResumeDB) ListUploads(ctx context.Context, userID string) ([]model.ResumeUpload, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, user_id, filename, stored_as, size, created_at
		 FROM resume_uploads WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing resume uploads: %w", err)
	}
	defer rows.Close()

	uploads := []model.ResumeUpload{}
	for rows.Next() {
		var u model.ResumeUpload
		if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &u.StoredAs, &u.Size, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning resume upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating resume uploads: %w", err)
	}
	return uploads, nil
}
