package store

import (
	"fmt"
	"strings"
)

// Row is one result row keyed by lower-cased column name. A missing or
// nil value means the column was NULL; callers that care about the
// null/blank distinction use Has, everything else goes through Text.
type Row map[string]any

// Text returns the column value rendered as a string. NULL and missing
// columns render as the empty string.
func (r Row) Text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether the column is present and non-NULL.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Value returns the raw column value, nil when NULL or missing.
func (r Row) Value(key string) any {
	return r[key]
}

// Key normalises an identifier value to a trimmed string so that
// numeric and text key columns join consistently across tables.
// NULL yields the empty string.
func Key(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
