// Package bundle aggregates the relational fan-out of one metadata
// record — main record, group, citation, contacts, attributes,
// keywords, lineage sources and their citation links — into a single
// value ready for document construction.
package bundle

import (
	"context"
	"fmt"
	"sort"

	"github.com/cranfield-landis/metaexport/internal/store"
)

// Gateway is the set of read operations the assembler needs. The
// batched operations must issue a single query per call and return an
// empty map, without querying, for an empty identifier set.
type Gateway interface {
	MainRecord(ctx context.Context, metadataID string) (store.Row, error)
	Group(ctx context.Context, groupID string) (store.Row, error)
	Citation(ctx context.Context, citationID string) (store.Row, error)
	ContactsByID(ctx context.Context, ids []string) (map[string]store.Row, error)
	Attributes(ctx context.Context, metadataID string) ([]store.Row, error)
	Keywords(ctx context.Context, metadataID string) ([]store.Row, error)
	Sources(ctx context.Context, metadataID string) ([]store.Row, error)
	SourceCitations(ctx context.Context, sourceIDs []string) (map[string][]store.Row, error)
	CitationsByID(ctx context.Context, ids []string) (map[string]store.Row, error)
}

// Bundle is the fully-resolved aggregate for one metadata identifier.
// It is immutable after Assemble returns: Main is always present, the
// other record fields are nil when the source data has no reference,
// and CitationLookup covers every citation id reachable from Sources
// and SourceCitations.
type Bundle struct {
	Identifier      string
	Main            store.Row
	Group           store.Row
	Citation        store.Row
	GroupContact    store.Row
	MetadataContact store.Row
	Attributes      []store.Row
	Keywords        []store.Row
	Sources         []store.Row
	SourceCitations map[string][]store.Row
	CitationLookup  map[string]store.Row
}

// NotFoundError reports that the primary record for an identifier does
// not exist. Fatal to that identifier's export, not to the run.
type NotFoundError struct {
	MetadataID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("metadata record %q not found", e.MetadataID)
}

// Assembler orchestrates the gateway calls in dependency order.
type Assembler struct {
	Gateway Gateway
}

// Assemble builds the bundle for one metadata identifier. The six
// steps are inherently sequential: each lookup depends on identifiers
// produced by the previous one.
func (a *Assembler) Assemble(ctx context.Context, metadataID string, includeSources, includeKeywords bool) (*Bundle, error) {
	main, err := a.Gateway.MainRecord(ctx, metadataID)
	if err != nil {
		return nil, fmt.Errorf("fetch main record %s: %w", metadataID, err)
	}
	if main == nil {
		return nil, &NotFoundError{MetadataID: metadataID}
	}

	b := &Bundle{
		Identifier:      metadataID,
		Main:            main,
		SourceCitations: map[string][]store.Row{},
		CitationLookup:  map[string]store.Row{},
	}

	if groupID := store.Key(main.Value("group_id")); groupID != "" {
		b.Group, err = a.Gateway.Group(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("fetch group %s: %w", groupID, err)
		}
	}

	if citationID := store.Key(main.Value("citation_id")); citationID != "" {
		b.Citation, err = a.Gateway.Citation(ctx, citationID)
		if err != nil {
			return nil, fmt.Errorf("fetch citation %s: %w", citationID, err)
		}
	}

	if err := a.resolveContacts(ctx, b); err != nil {
		return nil, err
	}

	b.Attributes, err = a.Gateway.Attributes(ctx, metadataID)
	if err != nil {
		return nil, fmt.Errorf("fetch attributes for %s: %w", metadataID, err)
	}

	if includeKeywords {
		b.Keywords, err = a.Gateway.Keywords(ctx, metadataID)
		if err != nil {
			return nil, fmt.Errorf("fetch keywords for %s: %w", metadataID, err)
		}
	}

	if includeSources {
		if err := a.resolveSources(ctx, b, metadataID); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// resolveContacts collects the group's contact and metadata-contact
// identifiers, deduplicates them preserving first-seen order, performs
// one batched fetch, and distributes the results back.
func (a *Assembler) resolveContacts(ctx context.Context, b *Bundle) error {
	if b.Group == nil {
		return nil
	}
	contactID := store.Key(b.Group.Value("contact_id"))
	metadataContactID := store.Key(b.Group.Value("metadata_contact_id"))

	var ids []string
	if contactID != "" {
		ids = append(ids, contactID)
	}
	if metadataContactID != "" {
		ids = append(ids, metadataContactID)
	}
	ids = dedupe(ids)

	lookup, err := a.Gateway.ContactsByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetch contacts: %w", err)
	}
	if contactID != "" {
		b.GroupContact = lookup[contactID]
	}
	if metadataContactID != "" {
		b.MetadataContact = lookup[metadataContactID]
	}
	return nil
}

// resolveSources fetches lineage sources, their citation link rows
// (batched by source id), and batch-resolves the union of every
// citation identifier referenced by either.
func (a *Assembler) resolveSources(ctx context.Context, b *Bundle, metadataID string) error {
	sources, err := a.Gateway.Sources(ctx, metadataID)
	if err != nil {
		return fmt.Errorf("fetch sources for %s: %w", metadataID, err)
	}
	b.Sources = sources
	if len(sources) == 0 {
		return nil
	}

	sourceIDs := make([]string, 0, len(sources))
	for _, src := range sources {
		sourceIDs = append(sourceIDs, store.Key(src.Value("source_id")))
	}
	b.SourceCitations, err = a.Gateway.SourceCitations(ctx, dedupe(sourceIDs))
	if err != nil {
		return fmt.Errorf("fetch source citations: %w", err)
	}

	citationSet := map[string]bool{}
	for _, src := range sources {
		if id := store.Key(src.Value("citation_id")); id != "" {
			citationSet[id] = true
		}
	}
	for _, links := range b.SourceCitations {
		for _, link := range links {
			if id := store.Key(link.Value("citation_id")); id != "" {
				citationSet[id] = true
			}
		}
	}

	// Sorted ids keep the batched query deterministic.
	citationIDs := make([]string, 0, len(citationSet))
	for id := range citationSet {
		citationIDs = append(citationIDs, id)
	}
	sort.Strings(citationIDs)

	b.CitationLookup, err = a.Gateway.CitationsByID(ctx, citationIDs)
	if err != nil {
		return fmt.Errorf("fetch linked citations: %w", err)
	}
	return nil
}

// dedupe removes duplicate identifiers preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
