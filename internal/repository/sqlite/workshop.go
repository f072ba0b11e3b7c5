package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

var _ repository.WorkshopRepository = (*WorkshopDB)(nil)

type WorkshopDB struct {
	conn *sql.DB
}

// Create inserts a workshop; codes are unique across all workshops.
func (w *WorkshopDB) Create(ctx context.Context, workshop *model.Workshop) error {
	workshop.ID = xid.New().String()
	workshop.CreatedAt = time.Now().UTC()

	_, err := w.conn.ExecContext(ctx,
		`INSERT INTO workshops (id, title, code, created_at) VALUES (?, ?, ?, ?)`,
		workshop.ID, workshop.Title, workshop.Code, workshop.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("workshop", workshop.Code)
		}
		return fmt.Errorf("sqlite: creating workshop: %w", err)
	}
	return nil
}

func (w *WorkshopDB) List(ctx context.Context) ([]model.Workshop, error) {
	rows, err := w.conn.QueryContext(ctx,
		`SELECT id, title, code, created_at FROM workshops ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing workshops: %w", err)
	}
	defer rows.Close()

	workshops := []model.Workshop{}
	for rows.Next() {
		var ws model.Workshop
		if err := rows.Scan(&ws.ID, &ws.Title, &ws.Code, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning workshop row: %w", err)
		}
		workshops = append(workshops, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating workshops: %w", err)
	}
	return workshops, nil
}

func (w *WorkshopDB) Delete(ctx context.Context, id string) error {
	result, err := w.conn.ExecContext(ctx, `DELETE FROM workshops WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting workshop %s: %w", id, err)
	}
	return expectOneRow(result, "workshop", id)
}
