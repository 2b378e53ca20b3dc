package domain

import "errors"

// ============================================================================
// Ingestion Errors
// ============================================================================

var (
	ErrSourceUnavailable = errors.New("record source is unreachable")
	ErrEmptyDataset      = errors.New("record source returned no rows")
	ErrInvalidSplit      = errors.New("train/test split ratio must be between 0 and 1 and leave both splits non-empty")
	ErrInvalidRecord     = errors.New("record cannot be converted to a frame row")
)

// ============================================================================
// Validation Errors
// ============================================================================

var (
	ErrSchemaViolation = errors.New("data does not match schema")
	ErrInvalidSchema   = errors.New("schema definition is invalid")
	ErrColumnNotFound  = errors.New("column not found")
)

// ============================================================================
// Transformation / Training Errors
// ============================================================================

var (
	ErrNotFitted          = errors.New("preprocessor is not fitted")
	ErrShapeMismatch      = errors.New("feature and label lengths differ")
	ErrTrainingFailed     = errors.New("model training failed")
	ErrBelowExpectedScore = errors.New("no candidate reached the expected score")
	ErrInvalidSearchSpace = errors.New("hyperparameter search space is empty or invalid")
	ErrInvalidFeature     = errors.New("feature value is missing or has the wrong type")
)

// ============================================================================
// Model Store / Serving Errors
// ============================================================================

var (
	ErrModelNotFound     = errors.New("model artifact not found")
	ErrModelNotLoaded    = errors.New("no model is loaded")
	ErrStoreUnavailable  = errors.New("model store is unreachable")
	ErrCorruptArtifact   = errors.New("model artifact cannot be decoded")
	ErrReferenceMissing  = errors.New("deployed model pointer names a missing object")
	ErrDeployerDisabled  = errors.New("deployment restart is not configured")
	ErrModelNotAccepted  = errors.New("model was not accepted by evaluation")
	ErrModelKeyExists    = errors.New("a model is already stored under this key")
	ErrUnsupportedScorer = errors.New("unsupported scoring metric")
)

// ============================================================================
// Pipeline Run Errors
// ============================================================================

var (
	ErrRunNotFound  = errors.New("pipeline run not found")
	ErrPipelineBusy = errors.New("a pipeline run is already in progress")
)
