// Package csvsource reads raw customer records from CSV exports, for offline
// runs and tests without a document store.
package csvsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type recordSource struct {
	path string
}

// NewRecordSource reads path as a single CSV file, or as a directory holding
// one <collection>.csv per collection.
func NewRecordSource(path string) output.RecordSource {
	return &recordSource{path: path}
}

func (s *recordSource) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

func (s *recordSource) Fetch(ctx context.Context, collection string) ([]domain.Document, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	file := s.path
	if info, _ := os.Stat(s.path); info.IsDir() {
		file = filepath.Join(s.path, collection+".csv")
	}
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	frame, err := artifact.ReadFrameCSV(file)
	if err != nil {
		return nil, err
	}

	columns := frame.Columns()
	docs := make([]domain.Document, frame.Len())
	for i := range docs {
		row := frame.Row(i)
		doc := make(domain.Document, len(columns))
		for j, c := range columns {
			doc[j] = domain.Field{Key: c, Value: row[j]}
		}
		docs[i] = doc
	}
	return docs, nil
}

func (s *recordSource) Close(_ context.Context) error { return nil }
