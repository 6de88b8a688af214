package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cleanup_targets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTargets(t *testing.T) {
	t.Run("valid targets", func(t *testing.T) {
		path := writeTargets(t, `[
			{"table": "metadata_main", "column": "abstract", "identifier": "metadata_id"},
			{"table": "metadata_citations", "column": "citation_title", "where": "citation_title LIKE '%’%'"}
		]`)

		targets, err := LoadTargets(path)
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, Target{Table: "metadata_main", Column: "abstract", Identifier: "metadata_id"}, targets[0])
		assert.Equal(t, "citation_title LIKE '%’%'", targets[1].Where)
	})

	t.Run("missing column is an error", func(t *testing.T) {
		path := writeTargets(t, `[{"table": "metadata_main"}]`)
		_, err := LoadTargets(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'table' and 'column'")
	})

	t.Run("not an array", func(t *testing.T) {
		path := writeTargets(t, `{"table": "metadata_main", "column": "abstract"}`)
		_, err := LoadTargets(path)
		require.Error(t, err)
	})

	t.Run("empty array", func(t *testing.T) {
		path := writeTargets(t, `[]`)
		_, err := LoadTargets(path)
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeTargets(t, `[{"table": `)
		_, err := LoadTargets(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTargets(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})
}
