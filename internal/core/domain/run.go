package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Value Objects
// ============================================================================

// RunStatus represents the state of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusRejected  RunStatus = "REJECTED"
	RunStatusFailed    RunStatus = "FAILED"
)

// IsValid checks if the status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusRejected, RunStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the run has finished
func (s RunStatus) IsTerminal() bool {
	return s != RunStatusRunning
}

// ModelPointer marks which pushed model is currently deployed.
type ModelPointer struct {
	Key      string    `json:"key"`
	PushedAt time.Time `json:"pushed_at"`
	Scoring  string    `json:"scoring"`
	Score    float64   `json:"score"`
	RunID    uuid.UUID `json:"run_id"`
}

// ============================================================================
// Entities
// ============================================================================

// PipelineRun records one execution of the training pipeline
type PipelineRun struct {
	ID             uuid.UUID  `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	Status         RunStatus  `json:"status"`
	Stage          Stage      `json:"stage"`
	ArtifactDir    string     `json:"artifact_dir"`
	CVScore        float64    `json:"cv_score"`
	NewScore       float64    `json:"new_score"`
	ReferenceScore float64    `json:"reference_score"`
	Accepted       bool       `json:"accepted"`
	ModelKey       string     `json:"model_key"`
	Error          string     `json:"error"`
}

// NewPipelineRun creates a run in RUNNING state
func NewPipelineRun(artifactDir string) *PipelineRun {
	now := time.Now()
	return &PipelineRun{
		ID:          uuid.New(),
		StartedAt:   now,
		UpdatedAt:   now,
		Status:      RunStatusRunning,
		ArtifactDir: artifactDir,
	}
}

// EnterStage records the stage currently executing
func (r *PipelineRun) EnterStage(stage Stage) {
	r.Stage = stage
	r.UpdatedAt = time.Now()
}

// RecordEvaluation copies the scores of the evaluation stage onto the run
func (r *PipelineRun) RecordEvaluation(ev EvaluationArtifact) {
	r.NewScore = ev.NewScore
	r.ReferenceScore = ev.ReferenceScore
	r.Accepted = ev.Accepted
	r.UpdatedAt = time.Now()
}

// MarkSucceeded finishes the run with a pushed model
func (r *PipelineRun) MarkSucceeded(modelKey string) {
	r.ModelKey = modelKey
	r.finish(RunStatusSucceeded)
}

// MarkRejected finishes the run without pushing
func (r *PipelineRun) MarkRejected() {
	r.finish(RunStatusRejected)
}

// MarkFailed finishes the run with an error
func (r *PipelineRun) MarkFailed(errMsg string) {
	r.Error = errMsg
	r.finish(RunStatusFailed)
}

func (r *PipelineRun) finish(status RunStatus) {
	now := time.Now()
	r.Status = status
	r.UpdatedAt = now
	r.FinishedAt = &now
}
