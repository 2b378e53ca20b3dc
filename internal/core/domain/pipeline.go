package domain

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Stages
// ============================================================================

type Stage string

const (
	StageIngestion      Stage = "data_ingestion"
	StageValidation     Stage = "data_validation"
	StageTransformation Stage = "data_transformation"
	StageTraining       Stage = "model_trainer"
	StageEvaluation     Stage = "model_evaluation"
	StagePusher         Stage = "model_pusher"
)

// TimestampLayout formats the start time that prefixes each run name.
const TimestampLayout = "20060102T150405Z"

// RunName names the artifact directory and model key of one run. The run id
// keeps runs started within the same second apart.
func RunName(startedAt time.Time, runID uuid.UUID) string {
	return startedAt.UTC().Format(TimestampLayout) + "-" + runID.String()
}

// ============================================================================
// Hyperparameters
// ============================================================================

// ForestParams configures one random forest fit.
type ForestParams struct {
	NEstimators     int    `json:"n_estimators" yaml:"n_estimators" mapstructure:"n_estimators"`
	MaxDepth        int    `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"` // 0 = unlimited
	MinSamplesSplit int    `json:"min_samples_split" yaml:"min_samples_split" mapstructure:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf" yaml:"min_samples_leaf" mapstructure:"min_samples_leaf"`
	MaxFeatures     string `json:"max_features" yaml:"max_features" mapstructure:"max_features"` // sqrt, log2, all
	Criterion       string `json:"criterion" yaml:"criterion" mapstructure:"criterion"`          // gini, entropy
	Bootstrap       bool   `json:"bootstrap" yaml:"bootstrap" mapstructure:"bootstrap"`
}

// SearchSpace is the grid a randomized search samples from.
type SearchSpace struct {
	NEstimators     []int    `json:"n_estimators" mapstructure:"n_estimators"`
	MaxDepth        []int    `json:"max_depth" mapstructure:"max_depth"`
	MinSamplesSplit []int    `json:"min_samples_split" mapstructure:"min_samples_split"`
	MinSamplesLeaf  []int    `json:"min_samples_leaf" mapstructure:"min_samples_leaf"`
	MaxFeatures     []string `json:"max_features" mapstructure:"max_features"`
	Criterion       []string `json:"criterion" mapstructure:"criterion"`
	Bootstrap       []bool   `json:"bootstrap" mapstructure:"bootstrap"`
}

// Size is the number of distinct combinations in the grid.
func (s SearchSpace) Size() int {
	return len(s.NEstimators) * len(s.MaxDepth) * len(s.MinSamplesSplit) *
		len(s.MinSamplesLeaf) * len(s.MaxFeatures) * len(s.Criterion) * len(s.Bootstrap)
}

// At decodes combination i (0 <= i < Size) in mixed radix order.
func (s SearchSpace) At(i int) ForestParams {
	var p ForestParams
	p.NEstimators = s.NEstimators[i%len(s.NEstimators)]
	i /= len(s.NEstimators)
	p.MaxDepth = s.MaxDepth[i%len(s.MaxDepth)]
	i /= len(s.MaxDepth)
	p.MinSamplesSplit = s.MinSamplesSplit[i%len(s.MinSamplesSplit)]
	i /= len(s.MinSamplesSplit)
	p.MinSamplesLeaf = s.MinSamplesLeaf[i%len(s.MinSamplesLeaf)]
	i /= len(s.MinSamplesLeaf)
	p.MaxFeatures = s.MaxFeatures[i%len(s.MaxFeatures)]
	i /= len(s.MaxFeatures)
	p.Criterion = s.Criterion[i%len(s.Criterion)]
	i /= len(s.Criterion)
	p.Bootstrap = s.Bootstrap[i%len(s.Bootstrap)]
	return p
}

// ClassificationMetrics are computed for the positive class (label 1).
type ClassificationMetrics struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
}

// ============================================================================
// Stage Configs
// ============================================================================

type IngestionConfig struct {
	Collection string
	DropFields []string
	TestRatio  float64
	Seed       int64
	TrainPath  string
	TestPath   string
}

type ValidationConfig struct {
	ReportPath string
}

type TransformationConfig struct {
	PreprocessorPath  string
	TrainArrayPath    string
	TestArrayPath     string
	Resample          bool
	ResampleNeighbors int
	Seed              int64
}

type TrainerConfig struct {
	ModelPath     string
	Space         SearchSpace
	Iterations    int
	Folds         int
	Scoring       string
	ExpectedScore float64
	Seed          int64
}

type EvaluationConfig struct {
	Scoring string
	Margin  float64
}

type PusherConfig struct {
	Bucket string
	Key    string
}

// PipelineSettings carries the run-independent knobs from which each run's
// stage configs are derived.
type PipelineSettings struct {
	ArtifactDir       string
	Collection        string
	DropFields        []string
	TestRatio         float64
	Seed              int64
	Resample          bool
	ResampleNeighbors int
	Space             SearchSpace
	Iterations        int
	Folds             int
	Scoring           string
	ExpectedScore     float64
	Margin            float64
	Bucket            string
	Prefix            string
}

// PipelineConfig bundles every stage config of a single run.
type PipelineConfig struct {
	Timestamp      string
	Name           string
	Dir            string
	Ingestion      IngestionConfig
	Validation     ValidationConfig
	Transformation TransformationConfig
	Trainer        TrainerConfig
	Evaluation     EvaluationConfig
	Pusher         PusherConfig
}

// NewPipelineConfig lays out the artifact directory of run runID started at
// now: <artifact_dir>/<timestamp>-<run_id>/<stage>/...
func NewPipelineConfig(s PipelineSettings, now time.Time, runID uuid.UUID) PipelineConfig {
	ts := now.UTC().Format(TimestampLayout)
	name := RunName(now, runID)
	dir := filepath.Join(s.ArtifactDir, name)
	stageDir := func(st Stage, parts ...string) string {
		return filepath.Join(append([]string{dir, string(st)}, parts...)...)
	}

	return PipelineConfig{
		Timestamp: ts,
		Name:      name,
		Dir:       dir,
		Ingestion: IngestionConfig{
			Collection: s.Collection,
			DropFields: s.DropFields,
			TestRatio:  s.TestRatio,
			Seed:       s.Seed,
			TrainPath:  stageDir(StageIngestion, "ingested", "train.csv"),
			TestPath:   stageDir(StageIngestion, "ingested", "test.csv"),
		},
		Validation: ValidationConfig{
			ReportPath: stageDir(StageValidation, "report.yaml"),
		},
		Transformation: TransformationConfig{
			PreprocessorPath:  stageDir(StageTransformation, "transformed_object", "preprocessing.json"),
			TrainArrayPath:    stageDir(StageTransformation, "transformed", "train.csv"),
			TestArrayPath:     stageDir(StageTransformation, "transformed", "test.csv"),
			Resample:          s.Resample,
			ResampleNeighbors: s.ResampleNeighbors,
			Seed:              s.Seed,
		},
		Trainer: TrainerConfig{
			ModelPath:     stageDir(StageTraining, "trained_model", "model.json.gz"),
			Space:         s.Space,
			Iterations:    s.Iterations,
			Folds:         s.Folds,
			Scoring:       s.Scoring,
			ExpectedScore: s.ExpectedScore,
			Seed:          s.Seed,
		},
		Evaluation: EvaluationConfig{
			Scoring: s.Scoring,
			Margin:  s.Margin,
		},
		Pusher: PusherConfig{
			Bucket: s.Bucket,
			Key:    ModelKey(s.Prefix, name),
		},
	}
}

// ModelKey is the immutable object key of the model pushed by run name.
func ModelKey(prefix, name string) string {
	if prefix == "" {
		return name + "/model.json.gz"
	}
	return prefix + "/" + name + "/model.json.gz"
}

// ============================================================================
// Stage Artifacts
// ============================================================================

type IngestionArtifact struct {
	TrainPath string
	TestPath  string
	TrainRows int
	TestRows  int
}

// Violation is one broken schema rule.
type Violation struct {
	Rule   string `yaml:"rule" json:"rule"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
	Split  string `yaml:"split,omitempty" json:"split,omitempty"`
	Detail string `yaml:"detail" json:"detail"`
}

// Validation rule names.
const (
	RuleMissingColumn      = "missing_column"
	RuleColumnCount        = "unexpected_column_count"
	RuleInvalidType        = "invalid_type"
	RuleUnexpectedCategory = "unexpected_category"
	RuleNullRatio          = "null_ratio_exceeded"
)

type ValidationArtifact struct {
	Passed     bool
	Violations []Violation
	ReportPath string
}

type TransformationArtifact struct {
	PreprocessorPath string
	TrainArrayPath   string
	TestArrayPath    string
	Features         []string
	TrainRows        int
	TestRows         int
}

type TrainerArtifact struct {
	ModelPath    string
	CVScore      float64
	BestParams   ForestParams
	TrainMetrics ClassificationMetrics
	TestMetrics  ClassificationMetrics
}

type EvaluationArtifact struct {
	Accepted       bool
	Scoring        string
	NewScore       float64
	ReferenceScore float64
	Difference     float64
	ReferenceKey   string
	ModelPath      string
}

type PusherArtifact struct {
	Bucket string
	Key    string
	URI    string
}
