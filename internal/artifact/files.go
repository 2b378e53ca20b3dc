// Package artifact reads and writes the files stages hand to each other.
package artifact

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"vehicle-insurance-mlops/internal/core/domain"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteFile(path, data)
}

func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteFile(path, data)
}

// WriteFrameCSV writes a header row followed by one line per frame row.
// Nulls are written as empty cells.
func WriteFrameCSV(path string, frame *domain.Frame) error {
	rows := make([][]string, 0, frame.Len()+1)
	rows = append(rows, frame.Columns())
	for i := 0; i < frame.Len(); i++ {
		row := frame.Row(i)
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = formatCell(v)
		}
		rows = append(rows, line)
	}
	return writeCSV(path, rows)
}

// ReadFrameCSV reads a file written by WriteFrameCSV. Cells that parse as
// numbers become float64, empty cells become nulls, anything else a string.
func ReadFrameCSV(path string) (*domain.Frame, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrEmptyDataset)
	}
	frame := domain.NewFrame(rows[0])
	for n, line := range rows[1:] {
		row := make([]any, len(line))
		for j, cell := range line {
			row[j] = ParseCell(cell)
		}
		if err := frame.Append(row); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
		}
	}
	return frame, nil
}

// ParseCell infers the cell kind of a CSV field.
func ParseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		if math.IsNaN(f) {
			return nil
		}
		return f
	}
	return cell
}

// WriteMatrixCSV stores a transformed feature matrix with the label in the
// last column.
func WriteMatrixCSV(path string, features []string, x [][]float64, y []int) error {
	if len(x) != len(y) {
		return domain.ErrShapeMismatch
	}
	rows := make([][]string, 0, len(x)+1)
	header := append(append([]string{}, features...), "label")
	rows = append(rows, header)
	for i, r := range x {
		line := make([]string, len(r)+1)
		for j, v := range r {
			line[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		line[len(r)] = strconv.Itoa(y[i])
		rows = append(rows, line)
	}
	return writeCSV(path, rows)
}

func ReadMatrixCSV(path string) ([]string, [][]float64, []int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, domain.ErrEmptyDataset)
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, domain.ErrShapeMismatch)
	}
	features := header[:len(header)-1]
	x := make([][]float64, 0, len(rows)-1)
	y := make([]int, 0, len(rows)-1)
	for n, line := range rows[1:] {
		r := make([]float64, len(features))
		for j := range features {
			v, err := strconv.ParseFloat(line[j], 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
			}
			r[j] = v
		}
		label, err := strconv.Atoi(line[len(features)])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
		}
		x = append(x, r)
		y = append(y, label)
	}
	return features, x, y, nil
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
