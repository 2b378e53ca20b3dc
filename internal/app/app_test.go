package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/metrics"
	"vehicle-insurance-mlops/internal/testutil"
)

const testSpace = `
random_forest:
  n_estimators: [10]
  max_depth: [6]
  min_samples_split: [2]
  min_samples_leaf: [1]
  max_features: [all]
  criterion: [gini]
`

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	data := filepath.Join(dir, "data", "Proj1-Data.csv")
	require.NoError(t, artifact.WriteFrameCSV(data, testutil.SyntheticFrame(400, 21)))
	space := filepath.Join(dir, "space.yaml")
	require.NoError(t, os.WriteFile(space, []byte(testSpace), 0o644))

	return &config.Config{
		Mongo:   config.MongoConfig{Collection: "Proj1-Data"},
		Source:  config.SourceConfig{Backend: "csv", CSVPath: filepath.Dir(data)},
		Storage: config.StorageConfig{Backend: "local", Bucket: "models", Prefix: "vehicle", LocalDir: filepath.Join(dir, "store")},
		Pipeline: config.PipelineConfig{
			ArtifactDir:      filepath.Join(dir, "artifact"),
			SearchSpacePath:  space,
			DropFields:       []string{"_id"},
			TestRatio:        0.25,
			Seed:             42,
			SearchIterations: 1,
			CVFolds:          3,
			Scoring:          "f1",
			ExpectedScore:    0.3,
			EvaluationMargin: 0.02,
		},
	}
}

func TestNew_OfflineRun(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, offlineConfig(t), metrics.New())
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.Ready(ctx))

	res, err := a.Pipeline.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, res.Run.Status)
	require.NotNil(t, res.Pusher)

	require.NoError(t, a.Prediction.Reload(ctx))
	pointer, err := a.Prediction.Current()
	require.NoError(t, err)
	assert.Equal(t, res.Pusher.Key, pointer.Key)

	run, err := a.Runs.Get(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, run.Status)
}

func TestNew_InvalidSearchSpace(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Pipeline.SearchSpacePath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestUnavailableSource(t *testing.T) {
	cause := errors.New("server selection timeout")
	src := unavailableSource{err: cause}

	_, err := src.Fetch(context.Background(), "Proj1-Data")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, src.Ping(context.Background()), cause)
	assert.NoError(t, src.Close(context.Background()))
}
