// Package store is the read gateway to the metadata database. It issues
// parametrised queries and returns rows as column-keyed maps; join
// composition aside, no business logic lives here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// EnvDSN names the environment variable holding the database location.
const EnvDSN = "LANDIS_DB_DSN"

// Store wraps one *sql.DB, which is safe for concurrent use. All
// lookups within a run share this connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to the metadata database and verifies the connection,
// so credential or path problems surface before any export begins.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dsn, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close() // ignore error
		return nil, fmt.Errorf("connect database %s: %w", dsn, err)
	}
	return &Store{db: db}, nil
}

// OpenFromEnv connects using the LANDIS_DB_DSN environment variable.
func OpenFromEnv() (*Store, error) {
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		return nil, fmt.Errorf("environment variable %s must be set", EnvDSN)
	}
	return Open(dsn)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a write transaction. Used by the cleanup subsystem to
// apply normalisation updates atomically.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// queryRows executes a read query and converts every result row into a
// Row keyed by lower-cased column name.
func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = strings.ToLower(c)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r := make(Row, len(cols))
		for i, name := range names {
			r[name] = vals[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// queryOne returns the first row of a query, nil when there is none.
func (s *Store) queryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.queryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// fetchKeyed runs one IN query for a set of identifiers and returns the
// matching rows keyed by keyColumn. Zero identifiers returns an empty
// map without touching the database — callers rely on that contract for
// both the contact and citation lookups.
func (s *Store) fetchKeyed(ctx context.Context, query, keyColumn string, ids []string) (map[string]Row, error) {
	out := make(map[string]Row, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.queryRows(ctx, expandIn(query, len(ids)), toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[Key(r[keyColumn])] = r
	}
	return out, nil
}

func expandIn(query string, n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(query, strings.Join(placeholders, ", "))
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// MainRecord fetches the primary metadata record, nil when absent.
func (s *Store) MainRecord(ctx context.Context, metadataID string) (Row, error) {
	const query = `
		SELECT metadata_id, group_id, title, abstract,
		       supplemental_information, citation_id, publication_date,
		       status_progress, update_frequency, security_classification,
		       west_bounding_coordinate, east_bounding_coordinate,
		       north_bounding_coordinate, south_bounding_coordinate,
		       temporal_date_from, temporal_date_to, metadata_facing
		FROM metadata_main
		WHERE metadata_id = ?`
	return s.queryOne(ctx, query, metadataID)
}

// Group fetches one metadata group record, nil when absent.
func (s *Store) Group(ctx context.Context, groupID string) (Row, error) {
	const query = `
		SELECT group_id, use_constraint, access_constraint, purpose,
		       contact_id, metadata_contact_id, attribute_accuracy_report,
		       thumbnail
		FROM metadata_groups
		WHERE group_id = ?`
	return s.queryOne(ctx, query, groupID)
}

// Citation fetches one citation record, nil when absent.
func (s *Store) Citation(ctx context.Context, citationID string) (Row, error) {
	const query = citationSelect + ` WHERE citation_id = ?`
	return s.queryOne(ctx, query, citationID)
}

const citationSelect = `
	SELECT citation_id, citation_title, citation_originator,
	       citation_pubdate, citation_edition, citation_data_form,
	       citation_series, issue_identification, publication_place,
	       publisher, online_linkage
	FROM metadata_citations`

// ContactsByID fetches contact records for a set of identifiers in one
// query, keyed by contact id.
func (s *Store) ContactsByID(ctx context.Context, ids []string) (map[string]Row, error) {
	const query = `
		SELECT contact_id, contact_role, individual_name,
		       organisation_name, position_name, voice_phone,
		       facsimile_phone, delivery_point, city, administrative_area,
		       postal_code, country, electronic_mail_address,
		       hours_of_service, contact_instructions
		FROM metadata_contacts
		WHERE contact_id IN (%s)`
	return s.fetchKeyed(ctx, query, "contact_id", ids)
}

// CitationsByID fetches citation records for a set of identifiers in
// one query, keyed by citation id.
func (s *Store) CitationsByID(ctx context.Context, ids []string) (map[string]Row, error) {
	const query = citationSelect + ` WHERE citation_id IN (%s)`
	return s.fetchKeyed(ctx, query, "citation_id", ids)
}

// Attributes fetches the attribute records for a metadata record,
// ordered by explicit sequence number (nulls sort last) then name.
func (s *Store) Attributes(ctx context.Context, metadataID string) ([]Row, error) {
	const query = `
		SELECT metadata_id, attribute_name, attribute_alias, attribute_no,
		       attribute_definition, attribute_type, attribute_width,
		       attribute_precision, attribute_scale, codeset_name
		FROM metadata_attributes
		WHERE metadata_id = ?
		ORDER BY attribute_no IS NULL, attribute_no, attribute_name`
	return s.queryRows(ctx, query, metadataID)
}

// Keywords fetches keyword records ordered by type then value.
func (s *Store) Keywords(ctx context.Context, metadataID string) ([]Row, error) {
	const query = `
		SELECT metadata_id, keyword_type, keyword
		FROM metadata_keywords
		WHERE metadata_id = ?
		ORDER BY keyword_type, keyword`
	return s.queryRows(ctx, query, metadataID)
}

// Sources fetches the lineage sources linked to a metadata record,
// joined to their descriptive fields and ordered by link row id.
func (s *Store) Sources(ctx context.Context, metadataID string) ([]Row, error) {
	const query = `
		SELECT ms.id, ms.metadata_id, ms.source_id, s.source_name,
		       s.source_scale, s.source_media, s.source_contribution,
		       s.citation_id
		FROM metadata_main_source ms
		JOIN metadata_sources s ON s.source_id = ms.source_id
		WHERE ms.metadata_id = ?
		ORDER BY ms.id`
	return s.queryRows(ctx, query, metadataID)
}

// SourceCitations fetches the source→citation link rows for a set of
// source identifiers in one query, grouped by source id.
func (s *Store) SourceCitations(ctx context.Context, sourceIDs []string) (map[string][]Row, error) {
	grouped := make(map[string][]Row, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return grouped, nil
	}
	const query = `
		SELECT source_id, citation_id
		FROM metadata_source_citation
		WHERE source_id IN (%s)
		ORDER BY source_id`
	rows, err := s.queryRows(ctx, expandIn(query, len(sourceIDs)), toArgs(sourceIDs)...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		key := Key(r["source_id"])
		grouped[key] = append(grouped[key], r)
	}
	return grouped, nil
}

// TargetRows selects rowid, the target column, and the optional
// identifier column for a cleanup scan. Table and column names come
// from operator-supplied configuration, not user input.
func (s *Store) TargetRows(ctx context.Context, table, column, where, identifier string) ([]Row, error) {
	cols := []string{"rowid", column}
	if identifier != "" {
		cols = append(cols, identifier)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	if where != "" {
		query += " WHERE " + where
	}
	return s.queryRows(ctx, query)
}

// UpdateTargetRow rewrites one column value by rowid inside the given
// transaction.
func (s *Store) UpdateTargetRow(ctx context.Context, tx *sql.Tx, table, column string, rowid any, value string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", table, column)
	if _, err := tx.ExecContext(ctx, query, value, rowid); err != nil {
		return fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	return nil
}
