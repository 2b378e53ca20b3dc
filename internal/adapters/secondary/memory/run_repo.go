// Package memory keeps pipeline run history in process memory for
// deployments without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type runRepo struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.PipelineRun
}

// NewRunRepository creates an empty in-memory RunRepository
func NewRunRepository() output.RunRepository {
	return &runRepo{runs: make(map[uuid.UUID]domain.PipelineRun)}
}

func (r *runRepo) Create(_ context.Context, run *domain.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = copyRun(run)
	return nil
}

func (r *runRepo) Update(_ context.Context, run *domain.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

func (r *runRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	out := copyRun(&run)
	return &out, nil
}

func (r *runRepo) List(_ context.Context, filter output.RunListFilter) ([]*domain.PipelineRun, int, error) {
	r.mu.RLock()
	matched := make([]domain.PipelineRun, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.Status != "" && string(run.Status) != filter.Status {
			continue
		}
		matched = append(matched, copyRun(&run))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if filter.Order == "asc" {
			return matched[i].StartedAt.Before(matched[j].StartedAt)
		}
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	out := make([]*domain.PipelineRun, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, total, nil
}

func copyRun(run *domain.PipelineRun) domain.PipelineRun {
	out := *run
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
