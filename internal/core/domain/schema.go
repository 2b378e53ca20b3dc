package domain

import (
	"fmt"
	"math"
)

type ColumnType string

const (
	ColumnTypeInt      ColumnType = "int"
	ColumnTypeFloat    ColumnType = "float"
	ColumnTypeCategory ColumnType = "category"
)

// IsValid checks if the column type is known
func (t ColumnType) IsValid() bool {
	return t == ColumnTypeInt || t == ColumnTypeFloat || t == ColumnTypeCategory
}

// Accepts reports whether a non-null cell matches the type.
func (t ColumnType) Accepts(v any) bool {
	switch t {
	case ColumnTypeInt:
		n, ok := v.(float64)
		return ok && n == math.Trunc(n)
	case ColumnTypeFloat:
		_, ok := v.(float64)
		return ok
	case ColumnTypeCategory:
		_, ok := v.(string)
		return ok
	}
	return false
}

type ColumnSpec struct {
	Name    string     `yaml:"name" json:"name"`
	Type    ColumnType `yaml:"type" json:"type"`
	Allowed []string   `yaml:"allowed,omitempty" json:"allowed,omitempty"`
}

// TransformRules names the columns each encoder or scaler applies to.
// Feature columns not named here pass through unchanged.
type TransformRules struct {
	StandardScale []string                      `yaml:"standard_scale" json:"standard_scale"`
	MinMaxScale   []string                      `yaml:"minmax_scale" json:"minmax_scale"`
	BinaryMap     map[string]map[string]float64 `yaml:"binary_map" json:"binary_map"`
	OneHot        []string                      `yaml:"one_hot" json:"one_hot"`
	DropFirst     bool                          `yaml:"drop_first" json:"drop_first"`
}

// Schema declares the expected shape of the customer dataset.
type Schema struct {
	TargetColumn string         `yaml:"target_column" json:"target_column"`
	DropColumns  []string       `yaml:"drop_columns" json:"drop_columns"`
	MaxNullRatio float64        `yaml:"max_null_ratio" json:"max_null_ratio"`
	Columns      []ColumnSpec   `yaml:"columns" json:"columns"`
	Transform    TransformRules `yaml:"transform" json:"transform"`
}

func (s *Schema) Column(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// FeatureColumns lists the model inputs: every schema column except the
// target and the dropped ones, in schema order.
func (s *Schema) FeatureColumns() []string {
	skip := map[string]bool{s.TargetColumn: true}
	for _, d := range s.DropColumns {
		skip[d] = true
	}
	var out []string
	for _, c := range s.Columns {
		if !skip[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}

// Validate checks the schema is internally consistent.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns declared", ErrInvalidSchema)
	}
	if s.MaxNullRatio < 0 || s.MaxNullRatio > 1 {
		return fmt.Errorf("%w: max_null_ratio %v out of [0,1]", ErrInvalidSchema, s.MaxNullRatio)
	}

	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column without name", ErrInvalidSchema)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c.Name)
		}
		seen[c.Name] = true
		if !c.Type.IsValid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidSchema, c.Name, c.Type)
		}
		if len(c.Allowed) > 0 && c.Type != ColumnTypeCategory {
			return fmt.Errorf("%w: column %q lists allowed values but is not a category", ErrInvalidSchema, c.Name)
		}
	}

	target, ok := s.Column(s.TargetColumn)
	if !ok {
		return fmt.Errorf("%w: target column %q not declared", ErrInvalidSchema, s.TargetColumn)
	}
	if target.Type != ColumnTypeInt {
		return fmt.Errorf("%w: target column %q must be int", ErrInvalidSchema, s.TargetColumn)
	}

	features := make(map[string]bool)
	for _, f := range s.FeatureColumns() {
		features[f] = true
	}
	numeric := func(rule string, cols []string) error {
		for _, name := range cols {
			col, ok := s.Column(name)
			if !ok || !features[name] {
				return fmt.Errorf("%w: %s column %q is not a feature", ErrInvalidSchema, rule, name)
			}
			if col.Type == ColumnTypeCategory {
				return fmt.Errorf("%w: %s column %q is categorical", ErrInvalidSchema, rule, name)
			}
		}
		return nil
	}
	if err := numeric("standard_scale", s.Transform.StandardScale); err != nil {
		return err
	}
	if err := numeric("minmax_scale", s.Transform.MinMaxScale); err != nil {
		return err
	}

	categorical := func(rule, name string) error {
		col, ok := s.Column(name)
		if !ok || !features[name] {
			return fmt.Errorf("%w: %s column %q is not a feature", ErrInvalidSchema, rule, name)
		}
		if col.Type != ColumnTypeCategory {
			return fmt.Errorf("%w: %s column %q is not categorical", ErrInvalidSchema, rule, name)
		}
		return nil
	}
	for name := range s.Transform.BinaryMap {
		if err := categorical("binary_map", name); err != nil {
			return err
		}
	}
	for _, name := range s.Transform.OneHot {
		if err := categorical("one_hot", name); err != nil {
			return err
		}
	}

	for _, name := range s.FeatureColumns() {
		col, _ := s.Column(name)
		if col.Type != ColumnTypeCategory {
			continue
		}
		_, mapped := s.Transform.BinaryMap[name]
		if !mapped && !contains(s.Transform.OneHot, name) {
			return fmt.Errorf("%w: categorical feature %q has no encoder", ErrInvalidSchema, name)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
