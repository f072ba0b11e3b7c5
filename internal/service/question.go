package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

// QuestionService manages the DSA practice catalogue.
type QuestionService struct {
	repo   repository.QuestionRepository
	logger *slog.Logger
}

func NewQuestionService(repo repository.QuestionRepository, logger *slog.Logger) *QuestionService {
	return &QuestionService{repo: repo, logger: logger}
}

// NormaliseDifficulty maps any casing of Easy, Medium or Hard to its
// canonical form.
func NormaliseDifficulty(d string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return model.DifficultyEasy, nil
	case "medium":
		return model.DifficultyMedium, nil
	case "hard":
		return model.DifficultyHard, nil
	}
	return "", apperror.ValidationFailed("difficulty", "difficulty must be Easy, Medium or Hard")
}

func validateQuestion(q *model.DSAQuestion) error {
	q.Question = strings.TrimSpace(q.Question)
	q.Topic = strings.TrimSpace(q.Topic)
	q.Company = strings.TrimSpace(q.Company)
	if err := firstErr(required("question", q.Question), required("topic", q.Topic)); err != nil {
		return err
	}
	d, err := NormaliseDifficulty(q.Difficulty)
	if err != nil {
		return err
	}
	q.Difficulty = d
	return nil
}

func (s *QuestionService) Create(ctx context.Context, q *model.DSAQuestion) (*model.DSAQuestion, error) {
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("creating question: %w", err)
	}
	s.logger.Info("question created", slog.String("id", q.ID), slog.String("topic", q.Topic))
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*model.DSAQuestion, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, filter model.QuestionFilter) ([]model.DSAQuestion, error) {
	if filter.Difficulty != "" {
		d, err := NormaliseDifficulty(filter.Difficulty)
		if err != nil {
			return nil, err
		}
		filter.Difficulty = d
	}
	qs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	return qs, nil
}

func (s *QuestionService) Update(ctx context.Context, id string, in *model.DSAQuestion) (*model.DSAQuestion, error) {
	if err := validateQuestion(in); err != nil {
		return nil, err
	}
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating question: %w", err)
	}
	in.ID = q.ID
	in.CreatedAt = q.CreatedAt
	if err := s.repo.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("updating question %s: %w", id, err)
	}
	return in, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting question %s: %w", id, err)
	}
	s.logger.Info("question deleted", slog.String("id", id))
	return nil
}

// WorkshopService manages live workshops and their join codes.
type WorkshopService struct {
	repo   repository.WorkshopRepository
	logger *slog.Logger
}

func NewWorkshopService(repo repository.WorkshopRepository, logger *slog.Logger) *WorkshopService {
	return &WorkshopService{repo: repo, logger: logger}
}

var workshopCode = regexp.MustCompile(`^[A-Z0-9-]{3,20}$`)

// Create stores a workshop. Codes are upper-cased; a reused code is a Conflict.
func (s *WorkshopService) Create(ctx context.Context, title, code string) (*model.Workshop, error) {
	title = strings.TrimSpace(title)
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := required("title", title); err != nil {
		return nil, err
	}
	if !workshopCode.MatchString(code) {
		return nil, apperror.ValidationFailed("code", "code must be 3-20 letters, digits or dashes")
	}

	w := &model.Workshop{Title: title, Code: code}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("creating workshop: %w", err)
	}
	s.logger.Info("workshop created", slog.String("id", w.ID), slog.String("code", w.Code))
	return w, nil
}

func (s *WorkshopService) List(ctx context.Context) ([]model.Workshop, error) {
	ws, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing workshops: %w", err)
	}
	return ws, nil
}

func (s *WorkshopService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting workshop %s: %w", id, err)
	}
	return nil
}
