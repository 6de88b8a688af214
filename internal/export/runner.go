// Package export drives the per-identifier pipeline: assemble bundle,
// build document, write one XML file per identifier.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cranfield-landis/metaexport/internal/bundle"
	"github.com/cranfield-landis/metaexport/internal/config"
	"github.com/cranfield-landis/metaexport/internal/iso19139"
	"github.com/rs/zerolog"
)

// Result records the outcome of one identifier's export. Path is empty
// for dry runs and failures.
type Result struct {
	MetadataID string
	Path       string
	Err        error
}

// Runner exports a batch of configured identifiers in input order.
// Identifiers are independent: a failure assembling or building one is
// recorded and the batch continues.
type Runner struct {
	Assembler *bundle.Assembler
	OutDir    string
	DryRun    bool
	Options   iso19139.Options
	Log       zerolog.Logger
}

// Run processes every configuration in order. Dry-run mode performs
// assembly and build, exercising everything except the final write.
// The returned error is non-nil only when no identifier succeeded.
func (r *Runner) Run(ctx context.Context, configs []config.ExportConfig) ([]Result, error) {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", r.OutDir, err)
	}

	results := make([]Result, 0, len(configs))
	succeeded := 0
	for _, cfg := range configs {
		r.Log.Info().Str("metadata_id", cfg.MetadataID).Msg("exporting metadata record")

		res := r.exportOne(ctx, cfg)
		if res.Err != nil {
			r.Log.Error().Err(res.Err).Str("metadata_id", cfg.MetadataID).Msg("export failed")
		} else {
			succeeded++
			if res.Path != "" {
				r.Log.Info().Str("metadata_id", cfg.MetadataID).Str("path", res.Path).Msg("wrote metadata document")
			}
		}
		results = append(results, res)
	}

	if succeeded == 0 && len(configs) > 0 {
		return results, fmt.Errorf("all %d exports failed", len(configs))
	}
	return results, nil
}

func (r *Runner) exportOne(ctx context.Context, cfg config.ExportConfig) Result {
	res := Result{MetadataID: cfg.MetadataID}

	b, err := r.Assembler.Assemble(ctx, cfg.MetadataID, cfg.IncludeSources, cfg.IncludeKeywords)
	if err != nil {
		res.Err = err
		return res
	}

	doc := iso19139.Build(b, r.Options)
	if r.DryRun {
		r.Log.Debug().Str("metadata_id", cfg.MetadataID).Msg("dry-run enabled, skipping write")
		return res
	}

	doc.Indent(2)
	path := filepath.Join(r.OutDir, cfg.MetadataID+".xml")
	if err := doc.WriteToFile(path); err != nil {
		res.Err = fmt.Errorf("write %s: %w", path, err)
		return res
	}
	res.Path = path
	return res
}
