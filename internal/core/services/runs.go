package services

import (
	"context"

	"github.com/google/uuid"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type RunService struct {
	repo output.RunRepository
}

func NewRunService(repo output.RunRepository) *RunService {
	return &RunService{repo: repo}
}

func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	return s.repo.GetByID(ctx, id)
}

// RunPage is one page of run history together with the paging actually applied.
type RunPage struct {
	Runs   []*domain.PipelineRun
	Total  int
	Limit  int
	Offset int
}

// List clamps the filter (limit 1..100, default 20) and fetches one page.
func (s *RunService) List(ctx context.Context, filter output.RunListFilter) (*RunPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Order != "asc" {
		filter.Order = "desc"
	}
	runs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &RunPage{Runs: runs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
