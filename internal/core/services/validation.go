package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
)

type ValidationService struct {
	schema *domain.Schema
}

func NewValidationService(schema *domain.Schema) *ValidationService {
	return &ValidationService{schema: schema}
}

// validationReport is the YAML document written next to the run's artifacts.
type validationReport struct {
	ValidationStatus bool               `yaml:"validation_status"`
	Message          string             `yaml:"message"`
	Violations       []domain.Violation `yaml:"violations"`
}

// Validate checks one frame against the schema and returns every broken rule.
func (s *ValidationService) Validate(frame *domain.Frame, split string) []domain.Violation {
	var out []domain.Violation
	add := func(rule, column, detail string) {
		out = append(out, domain.Violation{Rule: rule, Column: column, Split: split, Detail: detail})
	}

	if got, want := len(frame.Columns()), len(s.schema.Columns); got != want {
		add(domain.RuleColumnCount, "", fmt.Sprintf("frame has %d columns, schema declares %d", got, want))
	}

	for _, col := range s.schema.Columns {
		values, err := frame.Column(col.Name)
		if err != nil {
			add(domain.RuleMissingColumn, col.Name, "required column is absent")
			continue
		}

		allowed := make(map[string]bool, len(col.Allowed))
		for _, a := range col.Allowed {
			allowed[a] = true
		}

		var nulls, badType int
		var firstBad any
		unexpected := map[string]bool{}
		for _, v := range values {
			if v == nil {
				nulls++
				continue
			}
			if !col.Type.Accepts(v) {
				if badType == 0 {
					firstBad = v
				}
				badType++
				continue
			}
			if len(allowed) > 0 && !allowed[v.(string)] {
				unexpected[v.(string)] = true
			}
		}

		if badType > 0 {
			add(domain.RuleInvalidType, col.Name,
				fmt.Sprintf("%d values are not %s (first: %v)", badType, col.Type, firstBad))
		}
		if len(unexpected) > 0 {
			add(domain.RuleUnexpectedCategory, col.Name,
				fmt.Sprintf("unexpected categories: %s", strings.Join(sortedKeys(unexpected), ", ")))
		}
		if len(values) > 0 {
			if ratio := float64(nulls) / float64(len(values)); ratio > s.schema.MaxNullRatio {
				add(domain.RuleNullRatio, col.Name,
					fmt.Sprintf("null ratio %.4f exceeds %.4f", ratio, s.schema.MaxNullRatio))
			}
		}
	}
	return out
}

// Run validates both ingested splits and writes the report. When any rule is
// broken the artifact is returned together with domain.ErrSchemaViolation.
func (s *ValidationService) Run(ctx context.Context, cfg domain.ValidationConfig, in domain.IngestionArtifact) (domain.ValidationArtifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValidationArtifact{}, err
	}

	var violations []domain.Violation
	for _, split := range []struct{ name, path string }{
		{"train", in.TrainPath},
		{"test", in.TestPath},
	} {
		frame, err := artifact.ReadFrameCSV(split.path)
		if err != nil {
			return domain.ValidationArtifact{}, fmt.Errorf("read %s split: %w", split.name, err)
		}
		violations = append(violations, s.Validate(frame, split.name)...)
	}

	report := validationReport{
		ValidationStatus: len(violations) == 0,
		Violations:       violations,
	}
	if report.ValidationStatus {
		report.Message = "all schema checks passed"
	} else {
		report.Message = fmt.Sprintf("%d schema checks failed", len(violations))
	}
	if err := artifact.WriteYAML(cfg.ReportPath, report); err != nil {
		return domain.ValidationArtifact{}, err
	}

	log.WithFields(log.Fields{
		"passed":     report.ValidationStatus,
		"violations": len(violations),
		"report":     cfg.ReportPath,
	}).Info("data validated")

	out := domain.ValidationArtifact{
		Passed:     report.ValidationStatus,
		Violations: violations,
		ReportPath: cfg.ReportPath,
	}
	if !out.Passed {
		return out, fmt.Errorf("%w: %s", domain.ErrSchemaViolation, report.Message)
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
