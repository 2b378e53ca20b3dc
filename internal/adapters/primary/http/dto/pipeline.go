package dto

import (
	"time"

	"github.com/google/uuid"

	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/core/services"
)

type TrainResponse struct {
	RunID          uuid.UUID `json:"run_id"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	ArtifactDir    string    `json:"artifact_dir"`
	Scoring        string    `json:"scoring"`
	CVScore        float64   `json:"cv_score"`
	NewScore       float64   `json:"new_score"`
	ReferenceScore float64   `json:"reference_score"`
	Accepted       bool      `json:"accepted"`
	ModelKey       string    `json:"model_key,omitempty"`
	ModelURI       string    `json:"model_uri,omitempty"`
}

func ToTrainResponse(res *services.PipelineResult) TrainResponse {
	out := TrainResponse{
		RunID:          res.Run.ID,
		Status:         string(res.Run.Status),
		ArtifactDir:    res.Run.ArtifactDir,
		Scoring:        res.Evaluation.Scoring,
		CVScore:        res.Run.CVScore,
		NewScore:       res.Evaluation.NewScore,
		ReferenceScore: res.Evaluation.ReferenceScore,
		Accepted:       res.Evaluation.Accepted,
	}
	if res.Pusher != nil {
		out.ModelKey = res.Pusher.Key
		out.ModelURI = res.Pusher.URI
		out.Message = "Training successful"
	} else {
		out.Message = "Training finished; the current model was kept"
	}
	return out
}

type ModelResponse struct {
	Key      string    `json:"key"`
	URI      string    `json:"uri"`
	PushedAt string    `json:"pushed_at"`
	Scoring  string    `json:"scoring"`
	Score    float64   `json:"score"`
	RunID    uuid.UUID `json:"run_id"`
}

func ToModelResponse(p *domain.ModelPointer, uri string) ModelResponse {
	return ModelResponse{
		Key:      p.Key,
		URI:      uri,
		PushedAt: p.PushedAt.Format(time.RFC3339),
		Scoring:  p.Scoring,
		Score:    p.Score,
		RunID:    p.RunID,
	}
}

type RunResponse struct {
	ID             uuid.UUID `json:"id"`
	StartedAt      string    `json:"started_at"`
	UpdatedAt      string    `json:"updated_at"`
	FinishedAt     *string   `json:"finished_at"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage"`
	ArtifactDir    string    `json:"artifact_dir"`
	CVScore        float64   `json:"cv_score"`
	NewScore       float64   `json:"new_score"`
	ReferenceScore float64   `json:"reference_score"`
	Accepted       bool      `json:"accepted"`
	ModelKey       string    `json:"model_key,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func ToRunResponse(r *domain.PipelineRun) RunResponse {
	out := RunResponse{
		ID:             r.ID,
		StartedAt:      r.StartedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
		Status:         string(r.Status),
		Stage:          string(r.Stage),
		ArtifactDir:    r.ArtifactDir,
		CVScore:        r.CVScore,
		NewScore:       r.NewScore,
		ReferenceScore: r.ReferenceScore,
		Accepted:       r.Accepted,
		ModelKey:       r.ModelKey,
		Error:          r.Error,
	}
	if r.FinishedAt != nil {
		s := r.FinishedAt.Format(time.RFC3339)
		out.FinishedAt = &s
	}
	return out
}

type ListRunsResponse struct {
	Items      []RunResponse `json:"items"`
	Total      int           `json:"total"`
	PageSize   int           `json:"page_size"`
	NextOffset int           `json:"next_offset"`
}
