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

var _ repository.CourseRepository = (*CourseDB)(nil)

type CourseDB struct {
	conn *sql.DB
}

const courseColumns = `id, slug, title, description, category, modules, thumbnail, created_at, updated_at`

func (c *CourseDB) Create(ctx context.Context, course *model.Course) error {
	course.ID = xid.New().String()
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	modules, err := encodeJSON(course.Modules)
	if err != nil {
		return fmt.Errorf("sqlite: encoding course modules: %w", err)
	}

	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO courses (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID, course.Slug, course.Title, course.Description, course.Category,
		modules, course.Thumbnail, course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("course", course.Slug)
		}
		return fmt.Errorf("sqlite: creating course: %w", err)
	}
	return nil
}

func (c *CourseDB) GetByID(ctx context.Context, id string) (*model.Course, error) {
	row := c.conn.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ? OR slug = ?`, id, id)
	course, err := scanCourse(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("course", id)
		}
		return nil, fmt.Errorf("sqlite: getting course %s: %w", id, err)
	}
	return course, nil
}

func (c *CourseDB) List(ctx context.Context, category string, opts repository.ListOptions) ([]model.Course, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	rows, err := c.conn.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses
		 WHERE (? = '' OR category = ?)
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		category, category, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]model.Course, 0, limit)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning course row: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating courses: %w", err)
	}
	return courses, nil
}

func (c *CourseDB) Update(ctx context.Context, course *model.Course) error {
	course.UpdatedAt = time.Now().UTC()
	modules, err := encodeJSON(course.Modules)
	if err != nil {
		return fmt.Errorf("sqlite: encoding course modules: %w", err)
	}

	result, err := c.conn.ExecContext(ctx,
		`UPDATE courses
		 SET title = ?, description = ?, category = ?, modules = ?, thumbnail = ?, updated_at = ?
		 WHERE id = ?`,
		course.Title, course.Description, course.Category, modules, course.Thumbnail,
		course.UpdatedAt, course.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating course %s: %w", course.ID, err)
	}
	return expectOneRow(result, "course", course.ID)
}

func (c *CourseDB) Delete(ctx context.Context, id string) error {
	result, err := c.conn.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting course %s: %w", id, err)
	}
	return expectOneRow(result, "course", id)
}

func scanCourse(row rowScanner) (*model.Course, error) {
	var (
		course  model.Course
		modules string
	)
	if err := row.Scan(
		&course.ID, &course.Slug, &course.Title, &course.Description, &course.Category,
		&modules, &course.Thumbnail, &course.CreatedAt, &course.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(modules, &course.Modules); err != nil {
		return nil, err
	}
	return &course, nil
}
