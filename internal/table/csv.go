package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// FromCSV reads a CSV stream into a raw all-string table. The header row
// supplies column names; typing happens later at the normalizer boundary.
// Empty cells become nulls rather than empty strings so that per-field
// missing policies can tell the two apart.
func FromCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv stream is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	columns := make([]*Column, len(header))
	for i, name := range header {
		columns[i] = NewColumn(strings.TrimSpace(name), KindString)
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}
		for i, cell := range record {
			if strings.TrimSpace(cell) == "" {
				columns[i].AppendNull()
			} else {
				columns[i].AppendString(cell)
			}
		}
		row++
	}

	return New(columns...)
}

// FromCSVFile reads the named file into a raw table.
func FromCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return FromCSV(f)
}
