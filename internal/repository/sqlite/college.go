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

var _ repository.CollegeRepository = (*CollegeDB)(nil)

// CollegeDB stores colleges and the admission applications sent to them.
type CollegeDB struct {
	conn *sql.DB
}

const collegeColumns = `id, name, courses, email, phone, address, created_at`

func (c *CollegeDB) Create(ctx context.Context, college *model.College) error {
	college.ID = xid.New().String()
	college.CreatedAt = time.Now().UTC()

	courses, err := encodeJSON(college.Courses)
	if err != nil {
		return fmt.Errorf("sqlite: encoding college courses: %w", err)
	}
	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO colleges (`+collegeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		college.ID, college.Name, courses, college.Email, college.Phone, college.Address,
		college.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating college: %w", err)
	}
	return nil
}

func (c *CollegeDB) GetByID(ctx context.Context, id string) (*model.College, error) {
	college, err := scanCollege(c.conn.QueryRowContext(ctx,
		`SELECT `+collegeColumns+` FROM colleges WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("college", id)
		}
		return nil, fmt.Errorf("sqlite: getting college %s: %w", id, err)
	}
	return college, nil
}

func (c *CollegeDB) List(ctx context.Context) ([]model.College, error) {
	rows, err := c.conn.QueryContext(ctx,
		`SELECT `+collegeColumns+` FROM colleges ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing colleges: %w", err)
	}
	defer rows.Close()

	colleges := []model.College{}
	for rows.Next() {
		college, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning college row: %w", err)
		}
		colleges = append(colleges, *college)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating colleges: %w", err)
	}
	return colleges, nil
}

func (c *CollegeDB) Update(ctx context.Context, college *model.College) error {
	courses, err := encodeJSON(college.Courses)
	if err != nil {
		return fmt.Errorf("sqlite: encoding college courses: %w", err)
	}
	result, err := c.conn.ExecContext(ctx,
		`UPDATE colleges SET name = ?, courses = ?, email = ?, phone = ?, address = ? WHERE id = ?`,
		college.Name, courses, college.Email, college.Phone, college.Address, college.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating college %s: %w", college.ID, err)
	}
	return expectOneRow(result, "college", college.ID)
}

func (c *CollegeDB) Delete(ctx context.Context, id string) error {
	result, err := c.conn.ExecContext(ctx, `DELETE FROM colleges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting college %s: %w", id, err)
	}
	return expectOneRow(result, "college", id)
}

// CreateApplication stores an application. ReferenceID is chosen by the
// caller and must be unique.
func (c *CollegeDB) CreateApplication(ctx context.Context, app *model.Application) error {
	app.ID = xid.New().String()
	app.CreatedAt = time.Now().UTC()

	courses, err := encodeJSON(app.Courses)
	if err != nil {
		return fmt.Errorf("sqlite: encoding application courses: %w", err)
	}
	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO applications
		 (id, reference_id, college_id, name, dob, father_name, email, phone, address, courses, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.ReferenceID, app.CollegeID, app.Name, app.DOB, app.FatherName,
		app.Email, app.Phone, app.Address, courses, app.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("application", app.ReferenceID)
		}
		return fmt.Errorf("sqlite: creating application: %w", err)
	}
	return nil
}

func (c *CollegeDB) ListApplications(ctx context.Context, collegeID string) ([]model.Application, error) {
	rows, err := c.conn.QueryContext(ctx,
		`SELECT id, reference_id, college_id, name, dob, father_name, email, phone, address,
		        courses, created_at
		 FROM applications WHERE college_id = ? ORDER BY created_at DESC`,
		collegeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications: %w", err)
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		var (
			app     model.Application
			courses string
		)
		if err := rows.Scan(
			&app.ID, &app.ReferenceID, &app.CollegeID, &app.Name, &app.DOB, &app.FatherName,
			&app.Email, &app.Phone, &app.Address, &courses, &app.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning application row: %w", err)
		}
		if err := decodeJSON(courses, &app.Courses); err != nil {
			return nil, fmt.Errorf("sqlite: decoding application courses: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating applications: %w", err)
	}
	return apps, nil
}

func scanCollege(row rowScanner) (*model.College, error) {
	var (
		college model.College
		courses string
	)
	if err := row.Scan(
		&college.ID, &college.Name, &courses, &college.Email, &college.Phone,
		&college.Address, &college.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(courses, &college.Courses); err != nil {
		return nil, err
	}
	return &college, nil
}
