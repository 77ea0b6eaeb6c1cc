package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// FromCSV converts a tabular exercise export into catalog entries.
// The expected header columns are Title, BodyPart, Equipment, Level
// and Desc; rows without a Title are skipped, missing cells fall back
// to Unknown/Any/empty.
func FromCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Title"]; !ok {
		return nil, fmt.Errorf("CSV header has no Title column: %v", header)
	}

	var entries []Entry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		name := field(record, col, "Title", "")
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			Name:        name,
			BodyPart:    field(record, col, "BodyPart", "Unknown"),
			Equipment:   field(record, col, "Equipment", "Unknown"),
			Level:       field(record, col, "Level", "Any"),
			Description: field(record, col, "Desc", ""),
		})
	}
	return entries, nil
}

func field(record []string, col map[string]int, name, fallback string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return fallback
	}
	v := strings.TrimSpace(record[i])
	if v == "" {
		return fallback
	}
	return v
}
