package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/adapters/secondary/localstore"
	"vehicle-insurance-mlops/internal/adapters/secondary/memory"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/schema"
	"vehicle-insurance-mlops/internal/testutil"
)

const testCollection = "Proj1-Data"

var smallSpace = domain.SearchSpace{
	NEstimators:     []int{10},
	MaxDepth:        []int{6},
	MinSamplesSplit: []int{2},
	MinSamplesLeaf:  []int{1},
	MaxFeatures:     []string{"all"},
	Criterion:       []string{"gini"},
	Bootstrap:       []bool{true},
}

func testSettings(dir string) domain.PipelineSettings {
	return domain.PipelineSettings{
		ArtifactDir:       filepath.Join(dir, "artifact"),
		Collection:        testCollection,
		DropFields:        []string{"_id"},
		TestRatio:         0.25,
		Seed:              42,
		ResampleNeighbors: 5,
		Space:             smallSpace,
		Iterations:        2,
		Folds:             3,
		Scoring:           "f1",
		ExpectedScore:     0.3,
		Margin:            0.02,
		Bucket:            "models-bucket",
		Prefix:            "models",
	}
}

type testPipeline struct {
	svc        *PipelineService
	catalog    *ModelCatalog
	store      output.ModelStore
	runs       output.RunRepository
	source     *testutil.MockRecordSource
	deployer   *testutil.MockDeployer
	prediction *PredictionService
	settings   domain.PipelineSettings
}

// newTestPipeline wires every stage against a temp dir store, an in-memory
// run history and a mocked record source. Each run gets a distinct clock tick.
func newTestPipeline(t *testing.T, settings func(*domain.PipelineSettings)) *testPipeline {
	t.Helper()
	dir := t.TempDir()

	s := testSettings(dir)
	if settings != nil {
		settings(&s)
	}

	sch, err := schema.Load("")
	require.NoError(t, err)

	store, err := localstore.New(filepath.Join(dir, "store"), s.Bucket)
	require.NoError(t, err)

	source := new(testutil.MockRecordSource)
	deployer := new(testutil.MockDeployer)
	deployer.On("IsAvailable").Return(false).Maybe()

	catalog := NewModelCatalog(store, s.Prefix)
	runs := memory.NewRunRepository()

	svc := NewPipelineService(
		s,
		NewIngestionService(source),
		NewValidationService(sch),
		NewTransformationService(sch),
		NewTrainerService(),
		NewEvaluationService(catalog),
		NewPusherService(catalog, deployer),
		runs,
		nil,
	)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return &testPipeline{
		svc:        svc,
		catalog:    catalog,
		store:      store,
		runs:       runs,
		source:     source,
		deployer:   deployer,
		prediction: NewPredictionService(catalog, nil),
		settings:   s,
	}
}

func (p *testPipeline) serve(docs []domain.Document) {
	p.source.On("Fetch", mock.Anything, testCollection).Return(docs, nil)
}

// serveSequence answers successive fetches with successive batches.
func (p *testPipeline) serveSequence(batches ...[]domain.Document) {
	for _, docs := range batches {
		p.source.On("Fetch", mock.Anything, testCollection).Return(docs, nil).Once()
	}
}

// invertResponses flips every label so a model trained on the result learns
// the opposite of the generating rule.
func invertResponses(docs []domain.Document) []domain.Document {
	for _, doc := range docs {
		for i := range doc {
			if doc[i].Key == "Response" {
				doc[i].Value = 1 - doc[i].Value.(int)
			}
		}
	}
	return docs
}

// positiveRecord matches the rule the synthetic response is generated from.
func positiveRecord() map[string]any {
	return map[string]any{
		"Gender":               "Male",
		"Age":                  40,
		"Driving_License":      1,
		"Region_Code":          28.0,
		"Previously_Insured":   0,
		"Vehicle_Age":          "1-2 Year",
		"Vehicle_Damage":       "Yes",
		"Annual_Premium":       35000.0,
		"Policy_Sales_Channel": 26.0,
		"Vintage":              120,
	}
}

func negativeRecord() map[string]any {
	rec := positiveRecord()
	rec["Previously_Insured"] = 1
	rec["Vehicle_Damage"] = "No"
	return rec
}
