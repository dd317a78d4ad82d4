// Package search maintains the local full-text index used when no hosted
// search backend is configured.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sqlitemigrate "github.com/ultikits/ultitools-dev-doc/internal/platform/storage/sqlitemigrate"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/search/migrations"
	_ "modernc.org/sqlite"
)

// MemoryDSN selects a private in-memory index.
const MemoryDSN = ":memory:"

const (
	// DefaultLimit is used when a query does not ask for a size.
	DefaultLimit = 10
	// MaxLimit caps the number of results per query.
	MaxLimit = 50

	snippetTokens = 12
)

// Document is one searchable entry: a page or a heading within a page.
type Document struct {
	Locale  string `json:"locale"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
	Body    string `json:"-"`
}

// Result is one query hit.
type Result struct {
	Locale  string `json:"locale"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Index is a SQLite FTS5 search index.
type Index struct {
	sqlDB *sql.DB
}

// Open opens the index at dsn and applies embedded migrations. An empty dsn
// or MemoryDSN opens an in-memory index.
func Open(ctx context.Context, dsn string) (*Index, error) {
	dsn = strings.TrimSpace(dsn)
	memory := dsn == "" || dsn == MemoryDSN
	if memory {
		dsn = MemoryDSN
	} else {
		dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Index{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (i *Index) Close() error {
	if i == nil || i.sqlDB == nil {
		return nil
	}
	return i.sqlDB.Close()
}

// Rebuild replaces the index content with docs in one transaction.
// Documents without a link or title are skipped; duplicates by locale and
// link keep the last occurrence.
func (i *Index) Rebuild(ctx context.Context, docs []Document) (int, error) {
	if i == nil || i.sqlDB == nil {
		return 0, fmt.Errorf("search index is not configured")
	}
	docs = Merge(docs)

	tx, err := i.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM search_documents`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO search_documents (locale, link, title, section, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.Locale, doc.Link, doc.Title, doc.Section, doc.Body); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("index %s: %w", doc.Link, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}
	return len(docs), nil
}

// Count returns the number of indexed documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	if i == nil || i.sqlDB == nil {
		return 0, fmt.Errorf("search index is not configured")
	}
	var n int
	if err := i.sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM search_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Query returns documents of locale matching every term of q as a prefix,
// best matches first. A blank query matches nothing.
func (i *Index) Query(ctx context.Context, locale string, q string, limit int) ([]Result, error) {
	if i == nil || i.sqlDB == nil {
		return nil, fmt.Errorf("search index is not configured")
	}
	match := MatchExpression(q)
	if match == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := i.sqlDB.QueryContext(ctx, `SELECT locale, link, title, section,
	       coalesce(snippet(search_documents, 4, '<mark>', '</mark>', '...', ?), '')
	  FROM search_documents
	 WHERE search_documents MATCH ? AND locale = ?
	 ORDER BY bm25(search_documents, 0.0, 0.0, 10.0, 5.0, 1.0), link
	 LIMIT ?`, snippetTokens, match, strings.TrimSpace(locale), limit)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Locale, &r.Link, &r.Title, &r.Section, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// MatchExpression turns free text into an FTS5 query: each whitespace
// separated term becomes a quoted prefix phrase, so FTS operators in user
// input are matched literally. Terms without letters or digits are dropped.
func MatchExpression(q string) string {
	var terms []string
	for _, field := range strings.Fields(q) {
		term := strings.ReplaceAll(field, `"`, "")
		if strings.IndexFunc(term, isWordRune) < 0 {
			continue
		}
		terms = append(terms, `"`+term+`"*`)
	}
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Merge drops documents without link or title and collapses duplicates by
// locale and link. The last duplicate wins but keeps the first position
// and, when it has none, the earlier section.
func Merge(sets ...[]Document) []Document {
	type key struct{ locale, link string }
	index := map[key]int{}
	var out []Document
	for _, docs := range sets {
		for _, doc := range docs {
			doc.Locale = strings.TrimSpace(doc.Locale)
			doc.Link = strings.TrimSpace(doc.Link)
			doc.Title = strings.TrimSpace(doc.Title)
			if doc.Link == "" || doc.Title == "" {
				continue
			}
			k := key{doc.Locale, doc.Link}
			if pos, ok := index[k]; ok {
				if doc.Section == "" {
					doc.Section = out[pos].Section
				}
				out[pos] = doc
				continue
			}
			index[k] = len(out)
			out = append(out, doc)
		}
	}
	return out
}
