// Package config loads the export-run configuration: a CSV enumerating
// the metadata identifiers to export and their per-identifier flags.
package config

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ExportConfig drives exactly one export. Parsed once, immutable.
type ExportConfig struct {
	MetadataID      string
	IncludeSources  bool
	IncludeKeywords bool
}

// Load reads export configurations from a CSV file. Lines whose first
// non-blank character is '#' are comments; a file with headers but no
// data rows is a configuration error.
func Load(path string) ([]ExportConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // safe to ignore

	var filtered strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			continue
		}
		filtered.WriteString(line)
		filtered.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read configuration %s: %w", path, err)
	}

	reader := csv.NewReader(strings.NewReader(filtered.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse configuration %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("configuration %s must define column headers", path)
	}

	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["metadata_id"]; !ok {
		return nil, fmt.Errorf("configuration %s missing 'metadata_id' column", path)
	}

	var configs []ExportConfig
	for rowNumber, record := range records[1:] {
		metadataID := strings.TrimSpace(field(record, columns, "metadata_id"))
		if metadataID == "" {
			return nil, fmt.Errorf("configuration %s row %d missing mandatory 'metadata_id' value", path, rowNumber+2)
		}
		configs = append(configs, ExportConfig{
			MetadataID:      metadataID,
			IncludeSources:  parseBool(field(record, columns, "include_sources"), true),
			IncludeKeywords: parseBool(field(record, columns, "include_keywords"), true),
		})
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("configuration %s contains no metadata records", path)
	}
	return configs, nil
}

func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseBool converts a configuration token to a boolean, falling back
// to the default for blank or unrecognised values.
func parseBool(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y":
		return true
	case "0", "false", "f", "no", "n":
		return false
	default:
		return def
	}
}
