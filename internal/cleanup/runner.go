package cleanup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cranfield-landis/metaexport/internal/store"
	"github.com/rs/zerolog"
)

// update is one pending column rewrite, addressed by rowid.
type update struct {
	rowid     any
	label     string
	original  string
	converted string
}

// Runner scans cleanup targets and applies quote normalisation.
// Commit false (the default) is a dry run: every proposed change is
// logged, nothing is written.
type Runner struct {
	Store  *store.Store
	Commit bool
	Log    zerolog.Logger
}

// Run processes every target in order and returns the number of rows
// updated (zero in dry-run mode). Scans happen first; writes, when
// committing, go through a single transaction.
func (r *Runner) Run(ctx context.Context, targets []Target) (int, error) {
	type targetUpdates struct {
		target  Target
		pending []update
	}

	var all []targetUpdates
	for _, target := range targets {
		pending, err := r.scanTarget(ctx, target)
		if err != nil {
			return 0, err
		}
		if len(pending) == 0 {
			r.Log.Info().Str("table", target.Table).Str("column", target.Column).Msg("no changes required")
			continue
		}
		for _, u := range pending {
			r.Log.Info().
				Str("table", target.Table).
				Str("column", target.Column).
				Str("row", u.label).
				Str("before", summarise(u.original)).
				Str("after", summarise(u.converted)).
				Msg("normalisation proposed")
		}
		if !r.Commit {
			r.Log.Info().
				Str("table", target.Table).
				Str("column", target.Column).
				Int("pending", len(pending)).
				Msg("dry-run active, updates recorded only")
			continue
		}
		all = append(all, targetUpdates{target: target, pending: pending})
	}

	if !r.Commit || len(all) == 0 {
		return 0, nil
	}

	tx, err := r.Store.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin cleanup transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // safe to ignore

	total := 0
	for _, tu := range all {
		for _, u := range tu.pending {
			if err := r.Store.UpdateTargetRow(ctx, tx, tu.target.Table, tu.target.Column, u.rowid, u.converted); err != nil {
				return 0, err
			}
			total++
		}
		r.Log.Info().
			Str("table", tu.target.Table).
			Str("column", tu.target.Column).
			Int("updates", len(tu.pending)).
			Msg("updates applied")
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cleanup transaction: %w", err)
	}
	r.Log.Info().Int("total", total).Msg("cleanup committed")
	return total, nil
}

// scanTarget selects the target rows and computes which ones change
// under normalisation.
func (r *Runner) scanTarget(ctx context.Context, target Target) ([]update, error) {
	rows, err := r.Store.TargetRows(ctx, target.Table, target.Column, target.Where, target.Identifier)
	if err != nil {
		return nil, fmt.Errorf("scan %s.%s: %w", target.Table, target.Column, err)
	}

	column := strings.ToLower(target.Column)
	identifier := strings.ToLower(target.Identifier)

	var pending []update
	for _, row := range rows {
		if !row.Has(column) {
			continue
		}
		original := row.Text(column)
		converted := Normalise(original)
		if converted == original {
			continue
		}
		label := fmt.Sprintf("rowid=%v", row.Value("rowid"))
		if identifier != "" && row.Has(identifier) {
			label = row.Text(identifier)
		}
		pending = append(pending, update{
			rowid:     row.Value("rowid"),
			label:     label,
			original:  original,
			converted: converted,
		})
	}
	return pending, nil
}

// summarise truncates long values for log output.
func summarise(text string) string {
	const width = 120
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
