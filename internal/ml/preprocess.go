package ml

import (
	"fmt"
	"math"
	"sort"

	"vehicle-insurance-mlops/internal/core/domain"
)

type EncoderKind string

const (
	KindPassthrough EncoderKind = "passthrough"
	KindStandard    EncoderKind = "standard"
	KindMinMax      EncoderKind = "minmax"
	KindBinary      EncoderKind = "binary"
	KindOneHot      EncoderKind = "onehot"
)

// ColumnEncoder turns one input column into one or more output features.
// Numeric nulls are replaced by Fill before scaling; categorical nulls and
// unseen one-hot categories encode as all zeros.
type ColumnEncoder struct {
	Column     string             `json:"column"`
	Kind       EncoderKind        `json:"kind"`
	Fill       float64            `json:"fill"`
	Mean       float64            `json:"mean,omitempty"`
	Std        float64            `json:"std,omitempty"`
	Min        float64            `json:"min,omitempty"`
	Max        float64            `json:"max,omitempty"`
	Mapping    map[string]float64 `json:"mapping,omitempty"`
	Categories []string           `json:"categories,omitempty"`
	DropFirst  bool               `json:"drop_first,omitempty"`
	Outputs    []string           `json:"outputs"`
}

// Preprocessor is the fitted feature pipeline stored alongside the forest.
type Preprocessor struct {
	Target   string          `json:"target"`
	Encoders []ColumnEncoder `json:"encoders"`
	Fitted   bool            `json:"fitted"`
}

// NewPreprocessor builds an unfitted preprocessor from the schema's rules.
func NewPreprocessor(schema *domain.Schema) *Preprocessor {
	kinds := make(map[string]EncoderKind)
	for _, c := range schema.Transform.StandardScale {
		kinds[c] = KindStandard
	}
	for _, c := range schema.Transform.MinMaxScale {
		kinds[c] = KindMinMax
	}
	for c := range schema.Transform.BinaryMap {
		kinds[c] = KindBinary
	}
	for _, c := range schema.Transform.OneHot {
		kinds[c] = KindOneHot
	}

	p := &Preprocessor{Target: schema.TargetColumn}
	for _, col := range schema.FeatureColumns() {
		kind, ok := kinds[col]
		if !ok {
			kind = KindPassthrough
		}
		enc := ColumnEncoder{Column: col, Kind: kind}
		switch kind {
		case KindBinary:
			enc.Mapping = make(map[string]float64, len(schema.Transform.BinaryMap[col]))
			for k, v := range schema.Transform.BinaryMap[col] {
				enc.Mapping[k] = v
			}
		case KindOneHot:
			enc.DropFirst = schema.Transform.DropFirst
		}
		p.Encoders = append(p.Encoders, enc)
	}
	return p
}

// Fit learns scaling statistics and categories from the train frame.
func (p *Preprocessor) Fit(frame *domain.Frame) error {
	for i := range p.Encoders {
		enc := &p.Encoders[i]
		values, err := frame.Column(enc.Column)
		if err != nil {
			return fmt.Errorf("fit %s: %w", enc.Column, err)
		}

		switch enc.Kind {
		case KindPassthrough, KindStandard, KindMinMax:
			nums, err := numericValues(enc.Column, values)
			if err != nil {
				return err
			}
			mean, std, lo, hi := describe(nums)
			enc.Fill = mean
			enc.Mean, enc.Std = mean, std
			enc.Min, enc.Max = lo, hi
			enc.Outputs = []string{enc.Column}

		case KindBinary:
			enc.Fill = binaryMode(enc.Mapping, values)
			enc.Outputs = []string{enc.Column}

		case KindOneHot:
			seen := make(map[string]bool)
			for _, v := range values {
				if s, ok := v.(string); ok {
					seen[s] = true
				}
			}
			cats := make([]string, 0, len(seen))
			for s := range seen {
				cats = append(cats, s)
			}
			sort.Strings(cats)
			if enc.DropFirst && len(cats) > 1 {
				cats = cats[1:]
			}
			enc.Categories = cats
			enc.Outputs = make([]string, len(cats))
			for j, c := range cats {
				enc.Outputs[j] = enc.Column + "_" + c
			}
		}
	}
	p.Fitted = true
	return nil
}

// FeatureNames lists output columns in transform order.
func (p *Preprocessor) FeatureNames() []string {
	var out []string
	for _, enc := range p.Encoders {
		out = append(out, enc.Outputs...)
	}
	return out
}

// Transform encodes every row of frame.
func (p *Preprocessor) Transform(frame *domain.Frame) ([][]float64, error) {
	if !p.Fitted {
		return nil, domain.ErrNotFitted
	}
	out := make([][]float64, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		row, err := p.TransformRecord(frame.RecordAt(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = row
	}
	return out, nil
}

// TransformRecord encodes a single record keyed by column name.
func (p *Preprocessor) TransformRecord(rec map[string]any) ([]float64, error) {
	if !p.Fitted {
		return nil, domain.ErrNotFitted
	}
	row := make([]float64, 0, len(p.Encoders))
	for _, enc := range p.Encoders {
		v, err := domain.NormalizeValue(rec[enc.Column])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFeature, enc.Column)
		}
		vals, err := enc.encode(v)
		if err != nil {
			return nil, err
		}
		row = append(row, vals...)
	}
	return row, nil
}

func (enc *ColumnEncoder) encode(v any) ([]float64, error) {
	switch enc.Kind {
	case KindPassthrough, KindStandard, KindMinMax:
		x := enc.Fill
		if v != nil {
			n, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a number, got %T", domain.ErrInvalidFeature, enc.Column, v)
			}
			x = n
		}
		switch enc.Kind {
		case KindStandard:
			std := enc.Std
			if std == 0 {
				std = 1
			}
			x = (x - enc.Mean) / std
		case KindMinMax:
			span := enc.Max - enc.Min
			if span == 0 {
				span = 1
			}
			x = (x - enc.Min) / span
		}
		return []float64{x}, nil

	case KindBinary:
		if v == nil {
			return []float64{enc.Fill}, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a category, got %T", domain.ErrInvalidFeature, enc.Column, v)
		}
		x, ok := enc.Mapping[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no mapping for %q", domain.ErrInvalidFeature, enc.Column, s)
		}
		return []float64{x}, nil

	case KindOneHot:
		out := make([]float64, len(enc.Categories))
		if v == nil {
			return out, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a category, got %T", domain.ErrInvalidFeature, enc.Column, v)
		}
		for j, c := range enc.Categories {
			if c == s {
				out[j] = 1
				break
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown encoder %q", domain.ErrInvalidFeature, enc.Kind)
}

func numericValues(column string, values []any) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s row %d is %T", domain.ErrInvalidFeature, column, i, v)
		}
		out = append(out, n)
	}
	return out, nil
}

// describe returns mean, population std, min and max. Empty input yields zeros.
func describe(xs []float64) (mean, std, lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0, 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs {
		mean += x
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std, lo, hi
}

// binaryMode is the encoded value of the most frequent mapped category.
func binaryMode(mapping map[string]float64, values []any) float64 {
	counts := make(map[string]int)
	for _, v := range values {
		if s, ok := v.(string); ok {
			if _, known := mapping[s]; known {
				counts[s]++
			}
		}
	}
	best, bestN := "", -1
	for s, n := range counts {
		if n > bestN || (n == bestN && s < best) {
			best, bestN = s, n
		}
	}
	return mapping[best]
}
