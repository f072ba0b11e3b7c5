package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/notify"
	"github.com/sakif/edtech-platform/internal/repository"
)

// ApplicationInput is what an applicant submits from the admission form.
type ApplicationInput struct {
	CollegeID  string   `json:"collegeId" validate:"required"`
	Name       string   `json:"name" validate:"required,max=100"`
	DOB        string   `json:"dob" validate:"required"`
	FatherName string   `json:"fatherName" validate:"required,max=100"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"required,min=7,max=20"`
	Address    string   `json:"address" validate:"required,max=500"`
	Courses    []string `json:"courses" validate:"required,min=1"`
}

// AdmissionService manages colleges and the applications sent to them.
type AdmissionService struct {
	colleges repository.CollegeRepository
	mailer   notify.Mailer
	logger   *slog.Logger
}

func NewAdmissionService(colleges repository.CollegeRepository, mailer notify.Mailer, logger *slog.Logger) *AdmissionService {
	return &AdmissionService{colleges: colleges, mailer: mailer, logger: logger}
}

// NewReferenceID returns an applicant-facing reference such as APP-1A2B3C4D.
func NewReferenceID() string {
	id := uuid.New()
	return "APP-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func (in *ApplicationInput) normalise() error {
	in.CollegeID = strings.TrimSpace(in.CollegeID)
	in.Name = strings.TrimSpace(in.Name)
	in.DOB = strings.TrimSpace(in.DOB)
	in.FatherName = strings.TrimSpace(in.FatherName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Courses = cleanList(in.Courses)

	if err := firstErr(
		required("collegeId", in.CollegeID),
		required("name", in.Name),
		required("dob", in.DOB),
		required("fatherName", in.FatherName),
		required("email", in.Email),
		required("phone", in.Phone),
		required("address", in.Address),
	); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(in.Courses) == 0 {
		return apperror.ValidationFailed("courses", "select at least one course")
	}
	return nil
}

// Submit validates an application, stores it under a fresh reference id and
// mails a confirmation. The returned application carries the reference id the
// applicant is shown. Mail failures are logged, never returned.
func (s *AdmissionService) Submit(ctx context.Context, in ApplicationInput) (*model.Application, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}

	college, err := s.colleges.GetByID(ctx, in.CollegeID)
	if err != nil {
		return nil, fmt.Errorf("submitting application: %w", err)
	}
	for _, c := range in.Courses {
		if !college.OffersCourse(c) {
			return nil, apperror.ValidationFailed("courses",
				fmt.Sprintf("%s does not offer %q", college.Name, c))
		}
	}

	app := &model.Application{
		CollegeID:  college.ID,
		Name:       in.Name,
		DOB:        in.DOB,
		FatherName: in.FatherName,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		Courses:    in.Courses,
	}
	app.ReferenceID = NewReferenceID()
	if err := s.colleges.CreateApplication(ctx, app); err != nil {
		s.logger.Error("failed to store application",
			slog.String("college", college.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("submitting application: %w", err)
	}

	s.logger.Info("application submitted",
		slog.String("referenceId", app.ReferenceID),
		slog.String("college", college.ID),
	)

	msg := notify.ApplicationReceived(app.Email, app.Name, college.Name, app.ReferenceID, app.Courses)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send application confirmation",
			slog.String("referenceId", app.ReferenceID),
			slog.String("error", err.Error()),
		)
	}
	return app, nil
}

func (s *AdmissionService) Applications(ctx context.Context, collegeID string) ([]model.Application, error) {
	if _, err := s.colleges.GetByID(ctx, collegeID); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	apps, err := s.colleges.ListApplications(ctx, collegeID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

func validateCollege(c *model.College) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Courses = cleanList(c.Courses)
	if err := required("name", c.Name); err != nil {
		return err
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperror.ValidationFailed("email", "contact email is not valid")
		}
	}
	return nil
}

func (s *AdmissionService) CreateCollege(ctx context.Context, c *model.College) (*model.College, error) {
	if err := validateCollege(c); err != nil {
		return nil, err
	}
	if err := s.colleges.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating college: %w", err)
	}
	s.logger.Info("college created", slog.String("id", c.ID), slog.String("name", c.Name))
	return c, nil
}

func (s *AdmissionService) College(ctx context.Context, id string) (*model.College, error) {
	c, err := s.colleges.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting college: %w", err)
	}
	return c, nil
}

func (s *AdmissionService) Colleges(ctx context.Context) ([]model.College, error) {
	cs, err := s.colleges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing colleges: %w", err)
	}
	return cs, nil
}

func (s *AdmissionService) UpdateCollege(ctx context.Context, id string, in *model.College) (*model.College, error) {
	if err := validateCollege(in); err != nil {
		return nil, err
	}
	c, err := s.colleges.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating college: %w", err)
	}
	in.ID = c.ID
	in.CreatedAt = c.CreatedAt
	if err := s.colleges.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("updating college %s: %w", id, err)
	}
	return in, nil
}

func (s *AdmissionService) DeleteCollege(ctx context.Context, id string) error {
	if err := s.colleges.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting college %s: %w", id, err)
	}
	s.logger.Info("college deleted", slog.String("id", id))
	return nil
}
