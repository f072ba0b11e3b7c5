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

type GoodieService struct {
	repo   repository.GoodieRepository
	logger *slog.Logger
}

func NewGoodieService(repo repository.GoodieRepository, logger *slog.Logger) *GoodieService {
	return &GoodieService{repo: repo, logger: logger}
}

func validateGoodie(g *model.Goodie) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Category = strings.TrimSpace(g.Category)
	if err := required("name", g.Name); err != nil {
		return err
	}
	switch {
	case g.Price < 0:
		return apperror.ValidationFailed("price", "price cannot be negative")
	case g.CoinPrice < 0:
		return apperror.ValidationFailed("coinPrice", "coin price cannot be negative")
	case g.Stock < 0:
		return apperror.ValidationFailed("stock", "stock cannot be negative")
	case g.Price == 0 && g.CoinPrice == 0:
		return apperror.ValidationFailed("price", "a goodie needs a price or a coin price")
	}
	return nil
}

func (s *GoodieService) Create(ctx context.Context, goodie *model.Goodie) (*model.Goodie, error) {
	if err := validateGoodie(goodie); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, goodie); err != nil {
		return nil, fmt.Errorf("creating goodie: %w", err)
	}
	s.logger.Info("goodie created", slog.String("id", goodie.ID), slog.String("name", goodie.Name))
	return goodie, nil
}

func (s *GoodieService) Get(ctx context.Context, id string) (*model.Goodie, error) {
	goodie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting goodie: %w", err)
	}
	return goodie, nil
}

// List returns goodies with popular ones first.
func (s *GoodieService) List(ctx context.Context, category string) ([]model.Goodie, error) {
	goodies, err := s.repo.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("listing goodies: %w", err)
	}
	return goodies, nil
}

func (s *GoodieService) Update(ctx context.Context, id string, in *model.Goodie) (*model.Goodie, error) {
	if err := validateGoodie(in); err != nil {
		return nil, err
	}
	goodie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating goodie: %w", err)
	}
	in.ID = goodie.ID
	in.CreatedAt = goodie.CreatedAt
	if err := s.repo.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("updating goodie %s: %w", id, err)
	}
	s.logger.Info("goodie updated", slog.String("id", id))
	return in, nil
}

func (s *GoodieService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting goodie %s: %w", id, err)
	}
	s.logger.Info("goodie deleted", slog.String("id", id))
	return nil
}
