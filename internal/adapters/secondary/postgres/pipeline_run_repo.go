package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

const pipelineRunDDL = `
	CREATE TABLE IF NOT EXISTS pipeline_run (
		id              UUID PRIMARY KEY,
		started_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ,
		status          TEXT NOT NULL,
		stage           TEXT NOT NULL DEFAULT '',
		artifact_dir    TEXT NOT NULL,
		cv_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		new_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
		reference_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		accepted        BOOLEAN NOT NULL DEFAULT FALSE,
		model_key       TEXT NOT NULL DEFAULT '',
		error           TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS pipeline_run_started_at_idx ON pipeline_run (started_at);
`

const pipelineRunColumns = `
	id, started_at, updated_at, finished_at, status, stage, artifact_dir,
	cv_score, new_score, reference_score, accepted, model_key, error
`

type pipelineRunRepo struct {
	pool *pgxpool.Pool
}

// NewPipelineRunRepository creates a new RunRepository
func NewPipelineRunRepository(pool *pgxpool.Pool) output.RunRepository {
	return &pipelineRunRepo{pool: pool}
}

// EnsureSchema creates the pipeline_run table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, pipelineRunDDL); err != nil {
		return fmt.Errorf("ensure pipeline_run schema: %w", err)
	}
	return nil
}

func (r *pipelineRunRepo) Create(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		INSERT INTO pipeline_run (` + pipelineRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.StartedAt, run.UpdatedAt, run.FinishedAt,
		string(run.Status), string(run.Stage), run.ArtifactDir,
		run.CVScore, run.NewScore, run.ReferenceScore, run.Accepted,
		run.ModelKey, run.Error,
	)
	if err != nil {
		return fmt.Errorf("create pipeline run: %w", err)
	}
	return nil
}

func (r *pipelineRunRepo) Update(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		UPDATE pipeline_run
		SET updated_at = $1, finished_at = $2, status = $3, stage = $4,
			cv_score = $5, new_score = $6, reference_score = $7, accepted = $8,
			model_key = $9, error = $10
		WHERE id = $11
	`

	result, err := r.pool.Exec(ctx, query,
		run.UpdatedAt, run.FinishedAt, string(run.Status), string(run.Stage),
		run.CVScore, run.NewScore, run.ReferenceScore, run.Accepted,
		run.ModelKey, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update pipeline run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *pipelineRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_run WHERE id = $1`

	run, err := scanPipelineRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get pipeline run by id: %w", err)
	}
	return run, nil
}

func (r *pipelineRunRepo) List(ctx context.Context, filter output.RunListFilter) ([]*domain.PipelineRun, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM pipeline_run %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pipeline runs: %w", err)
	}

	dir := "DESC"
	if filter.Order == "asc" {
		dir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM pipeline_run
		%s
		ORDER BY started_at %s
		LIMIT $%d OFFSET $%d
	`, pipelineRunColumns, whereClause, dir, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PipelineRun
	for rows.Next() {
		run, err := scanPipelineRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pipeline run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate pipeline run rows: %w", err)
	}

	return runs, total, nil
}

func scanPipelineRun(row pgx.Row) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var status, stage string

	err := row.Scan(
		&run.ID, &run.StartedAt, &run.UpdatedAt, &run.FinishedAt,
		&status, &stage, &run.ArtifactDir,
		&run.CVScore, &run.NewScore, &run.ReferenceScore, &run.Accepted,
		&run.ModelKey, &run.Error,
	)
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	run.Stage = domain.Stage(stage)
	return &run, nil
}
