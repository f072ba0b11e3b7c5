package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

const MaxCourseTitleLength = 200

// CourseService manages the course catalogue. Writes are admin-only; the
// router enforces that, so the service does not re-check roles.
type CourseService struct {
	repo   repository.CourseRepository
	logger *slog.Logger
}

func NewCourseService(repo repository.CourseRepository, logger *slog.Logger) *CourseService {
	return &CourseService{repo: repo, logger: logger}
}

func validateCourse(c *model.Course) error {
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	if err := firstErr(
		required("title", c.Title),
		maxLen("title", c.Title, MaxCourseTitleLength),
	); err != nil {
		return err
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		m.Title = strings.TrimSpace(m.Title)
		if m.Title == "" {
			return apperror.ValidationFailed("modules", fmt.Sprintf("module %d needs a title", i+1))
		}
		for j := range m.Topics {
			m.Topics[j].Title = strings.TrimSpace(m.Topics[j].Title)
			if m.Topics[j].Title == "" {
				return apperror.ValidationFailed("modules",
					fmt.Sprintf("topic %d of module %q needs a title", j+1, m.Title))
			}
		}
	}
	if c.Modules == nil {
		c.Modules = []model.CourseModule{}
	}
	return nil
}

func (s *CourseService) Create(ctx context.Context, course *model.Course) (*model.Course, error) {
	if err := validateCourse(course); err != nil {
		return nil, err
	}
	err := createWithSlug(ctx, makeSlug(course.Title, "course"), func(ctx context.Context, slug string) error {
		course.Slug = slug
		return s.repo.Create(ctx, course)
	})
	if err != nil {
		return nil, fmt.Errorf("creating course: %w", err)
	}
	s.logger.Info("course created", slog.String("id", course.ID), slog.String("slug", course.Slug))
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting course: %w", err)
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, category string, opts repository.ListOptions) ([]model.Course, error) {
	courses, err := s.repo.List(ctx, strings.TrimSpace(category), opts)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// Update replaces the editable fields; the slug stays stable so links survive.
func (s *CourseService) Update(ctx context.Context, id string, in *model.Course) (*model.Course, error) {
	if err := validateCourse(in); err != nil {
		return nil, err
	}
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating course: %w", err)
	}
	course.Title = in.Title
	course.Description = in.Description
	course.Category = in.Category
	course.Modules = in.Modules
	course.Thumbnail = in.Thumbnail

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("updating course %s: %w", id, err)
	}
	s.logger.Info("course updated", slog.String("id", id))
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting course %s: %w", id, err)
	}
	s.logger.Info("course deleted", slog.String("id", id))
	return nil
}
