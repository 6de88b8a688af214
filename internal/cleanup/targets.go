package cleanup

import (
	"fmt"
	"os"

	"github.com/ohler55/ojg/oj"
)

// Target describes one table/column pair subject to normalisation.
// Where narrows the scan; Identifier names a column echoed in log
// output for traceability.
type Target struct {
	Table      string
	Column     string
	Where      string
	Identifier string
}

// LoadTargets parses a JSON array of target descriptors.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets %s: %w", path, err)
	}

	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse targets %s: %w", path, err)
	}
	entries, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("targets %s: expected a JSON array of targets", path)
	}

	targets := make([]Target, 0, len(entries))
	for i, entry := range entries {
		payload, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("targets %s: entry %d is not an object", path, i)
		}
		t := Target{
			Table:      stringField(payload, "table"),
			Column:     stringField(payload, "column"),
			Where:      stringField(payload, "where"),
			Identifier: stringField(payload, "identifier"),
		}
		if t.Table == "" || t.Column == "" {
			return nil, fmt.Errorf("targets %s: entry %d must define 'table' and 'column'", path, i)
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("targets %s defines no cleanup targets", path)
	}
	return targets, nil
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
