// Package schema loads the dataset schema and the hyperparameter search space.
// Both fall back to the copies embedded in the binary when no path is given.
package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"vehicle-insurance-mlops/internal/core/domain"
)

//go:embed schema.yaml
var defaultSchema []byte

//go:embed search_space.yaml
var defaultSearchSpace []byte

// Load reads a schema file, or the embedded default when path is empty.
func Load(path string) (*domain.Schema, error) {
	data := defaultSchema
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*domain.Schema, error) {
	var s domain.Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSearchSpace reads the random_forest grid from a YAML file, or the
// embedded default when path is empty.
func LoadSearchSpace(path string) (domain.SearchSpace, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	var err error
	if path == "" {
		err = v.ReadConfig(bytes.NewReader(defaultSearchSpace))
	} else {
		v.SetConfigFile(path)
		err = v.ReadInConfig()
	}
	if err != nil {
		return domain.SearchSpace{}, fmt.Errorf("read search space: %w", err)
	}

	var space domain.SearchSpace
	if err := v.UnmarshalKey("random_forest", &space); err != nil {
		return domain.SearchSpace{}, fmt.Errorf("decode search space: %w", err)
	}
	if len(space.Bootstrap) == 0 {
		space.Bootstrap = []bool{true}
	}
	if err := validateSearchSpace(space); err != nil {
		return domain.SearchSpace{}, err
	}
	return space, nil
}

func validateSearchSpace(s domain.SearchSpace) error {
	if s.Size() == 0 {
		return fmt.Errorf("%w: every parameter needs at least one value", domain.ErrInvalidSearchSpace)
	}
	for _, n := range s.NEstimators {
		if n <= 0 {
			return fmt.Errorf("%w: n_estimators %d", domain.ErrInvalidSearchSpace, n)
		}
	}
	for _, d := range s.MaxDepth {
		if d < 0 {
			return fmt.Errorf("%w: max_depth %d", domain.ErrInvalidSearchSpace, d)
		}
	}
	for _, m := range s.MinSamplesSplit {
		if m < 2 {
			return fmt.Errorf("%w: min_samples_split %d", domain.ErrInvalidSearchSpace, m)
		}
	}
	for _, m := range s.MinSamplesLeaf {
		if m < 1 {
			return fmt.Errorf("%w: min_samples_leaf %d", domain.ErrInvalidSearchSpace, m)
		}
	}
	for _, f := range s.MaxFeatures {
		if f != "sqrt" && f != "log2" && f != "all" {
			return fmt.Errorf("%w: max_features %q", domain.ErrInvalidSearchSpace, f)
		}
	}
	for _, c := range s.Criterion {
		if c != "gini" && c != "entropy" {
			return fmt.Errorf("%w: criterion %q", domain.ErrInvalidSearchSpace, c)
		}
	}
	return nil
}
