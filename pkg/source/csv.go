package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// column aliases accepted for CSV input, unknown columns are ignored
var (
	textColumns   = []string{"text", "review", "feedback", "comment"}
	ratingColumns = []string{"rating", "score"}
	authorColumns = []string{"author", "name"}
)

// LoadCSV reads survey rows from a file
func LoadCSV(path string) ([]Item, error) {
	f, err := os.Open(path) //nolint:gosec // file path comes from config
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses survey rows from a reader. The text column is required,
// everything else is optional. Rows without text are still emitted, the
// normalizer counts and drops them.
func ReadCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))] = i
	}

	if columnIndex(cols, textColumns) < 0 {
		return nil, fmt.Errorf("csv has no text column (accepted: %s)", strings.Join(textColumns, ", "))
	}

	var items []Item
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		get := func(names ...string) string {
			if idx := columnIndex(cols, names); idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		id := get("id")
		if id == "" {
			id = "csv_" + uuid.NewString()
		}

		items = append(items, CSVRow{
			ID:      id,
			Text:    get(textColumns...),
			Rating:  get(ratingColumns...),
			Date:    get("date"),
			Author:  get(authorColumns...),
			Title:   get("title"),
			Version: get("version"),
		})
	}
	return items, nil
}

func columnIndex(cols map[string]int, names []string) int {
	for _, name := range names {
		if idx, ok := cols[name]; ok {
			return idx
		}
	}
	return -1
}
