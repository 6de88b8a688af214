package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cranfield-landis/metaexport/internal/bundle"
	"github.com/cranfield-landis/metaexport/internal/config"
	"github.com/cranfield-landis/metaexport/internal/iso19139"
	"github.com/cranfield-landis/metaexport/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapGateway serves main records from a map; everything else is empty.
type mapGateway struct {
	records map[string]store.Row
}

func (g *mapGateway) MainRecord(ctx context.Context, metadataID string) (store.Row, error) {
	return g.records[metadataID], nil
}

func (g *mapGateway) Group(ctx context.Context, groupID string) (store.Row, error) {
	return nil, nil
}

func (g *mapGateway) Citation(ctx context.Context, citationID string) (store.Row, error) {
	return nil, nil
}

func (g *mapGateway) ContactsByID(ctx context.Context, ids []string) (map[string]store.Row, error) {
	return map[string]store.Row{}, nil
}

func (g *mapGateway) Attributes(ctx context.Context, metadataID string) ([]store.Row, error) {
	return nil, nil
}

func (g *mapGateway) Keywords(ctx context.Context, metadataID string) ([]store.Row, error) {
	return nil, nil
}

func (g *mapGateway) Sources(ctx context.Context, metadataID string) ([]store.Row, error) {
	return nil, nil
}

func (g *mapGateway) SourceCitations(ctx context.Context, sourceIDs []string) (map[string][]store.Row, error) {
	return map[string][]store.Row{}, nil
}

func (g *mapGateway) CitationsByID(ctx context.Context, ids []string) (map[string]store.Row, error) {
	return map[string]store.Row{}, nil
}

var _ bundle.Gateway = (*mapGateway)(nil)

func newRunner(t *testing.T, records map[string]store.Row) *Runner {
	t.Helper()
	return &Runner{
		Assembler: &bundle.Assembler{Gateway: &mapGateway{records: records}},
		OutDir:    t.TempDir(),
		Options:   iso19139.Options{DateStamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		Log:       zerolog.Nop(),
	}
}

func TestRun_WritesOneFilePerIdentifier(t *testing.T) {
	r := newRunner(t, map[string]store.Row{
		"M1": {"metadata_id": "M1", "title": "Soil Map"},
		"M2": {"metadata_id": "M2", "title": "Land Cover"},
	})

	results, err := r.Run(context.Background(), []config.ExportConfig{
		{MetadataID: "M1", IncludeSources: true, IncludeKeywords: true},
		{MetadataID: "M2", IncludeSources: true, IncludeKeywords: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, id := range []string{"M1", "M2"} {
		require.NoError(t, results[i].Err)
		assert.Equal(t, filepath.Join(r.OutDir, id+".xml"), results[i].Path)

		data, err := os.ReadFile(results[i].Path)
		require.NoError(t, err)
		content := string(data)
		assert.True(t, strings.HasPrefix(content, `<?xml version="1.0" encoding="UTF-8"?>`))
		assert.Contains(t, content, "<gmd:MD_Metadata")
		assert.Contains(t, content, ">"+id+"<")
	}
}

func TestRun_DryRunSkipsWrites(t *testing.T) {
	r := newRunner(t, map[string]store.Row{
		"M1": {"metadata_id": "M1", "title": "Soil Map"},
	})
	r.DryRun = true

	results, err := r.Run(context.Background(), []config.ExportConfig{
		{MetadataID: "M1", IncludeSources: true, IncludeKeywords: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Path)

	entries, err := os.ReadDir(r.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_IsolatesPerIdentifierFailures(t *testing.T) {
	r := newRunner(t, map[string]store.Row{
		"M2": {"metadata_id": "M2", "title": "Land Cover"},
	})

	results, err := r.Run(context.Background(), []config.ExportConfig{
		{MetadataID: "MISSING", IncludeSources: true, IncludeKeywords: true},
		{MetadataID: "M2", IncludeSources: true, IncludeKeywords: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	var nf *bundle.NotFoundError
	require.ErrorAs(t, results[0].Err, &nf)
	assert.Equal(t, "MISSING", nf.MetadataID)

	require.NoError(t, results[1].Err)
	assert.FileExists(t, results[1].Path)
}

func TestRun_AllFailedReturnsError(t *testing.T) {
	r := newRunner(t, nil)

	results, err := r.Run(context.Background(), []config.ExportConfig{
		{MetadataID: "A"},
		{MetadataID: "B"},
	})
	require.Error(t, err)
	assert.Len(t, results, 2)
}

func TestRun_CreatesOutputDirectory(t *testing.T) {
	r := newRunner(t, map[string]store.Row{
		"M1": {"metadata_id": "M1", "title": "Soil Map"},
	})
	r.OutDir = filepath.Join(t.TempDir(), "nested", "output")

	_, err := r.Run(context.Background(), []config.ExportConfig{
		{MetadataID: "M1", IncludeSources: true, IncludeKeywords: true},
	})
	require.NoError(t, err)
	assert.DirExists(t, r.OutDir)
}
