package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata_ids.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full rows", func(t *testing.T) {
		path := writeConfig(t, "metadata_id,include_sources,include_keywords\nM1,true,false\nM2,,\n")

		configs, err := Load(path)
		require.NoError(t, err)
		require.Len(t, configs, 2)

		assert.Equal(t, ExportConfig{MetadataID: "M1", IncludeSources: true, IncludeKeywords: false}, configs[0])
		// Blank tokens fall back to the defaults.
		assert.Equal(t, ExportConfig{MetadataID: "M2", IncludeSources: true, IncludeKeywords: true}, configs[1])
	})

	t.Run("comment lines ignored", func(t *testing.T) {
		path := writeConfig(t, "# export batch for March\nmetadata_id\n# mid-file note\nM1\n")

		configs, err := Load(path)
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.Equal(t, "M1", configs[0].MetadataID)
	})

	t.Run("identifier only header", func(t *testing.T) {
		path := writeConfig(t, "metadata_id\nM1\n")

		configs, err := Load(path)
		require.NoError(t, err)
		assert.True(t, configs[0].IncludeSources)
		assert.True(t, configs[0].IncludeKeywords)
	})

	t.Run("no data rows is an error", func(t *testing.T) {
		path := writeConfig(t, "metadata_id,include_sources,include_keywords\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no metadata records")
	})

	t.Run("missing identifier value is an error", func(t *testing.T) {
		path := writeConfig(t, "metadata_id,include_sources\n,true\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("missing identifier column is an error", func(t *testing.T) {
		path := writeConfig(t, "id,include_sources\nM1,true\n")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"T", false, true},
		{"YES", false, true},
		{"y", false, true},
		{"0", true, false},
		{"false", true, false},
		{"F", true, false},
		{"No", true, false},
		{"n", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
		{"  true  ", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.want, parseBool(tc.value, tc.def))
		})
	}
}
