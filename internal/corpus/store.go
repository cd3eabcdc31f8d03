// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus manages the numbered source-material passages that
// artifact anchors cite. Passages live in a SQLite database with an
// FTS5 index for keyword search; the passage range feeds the
// provenance lint rules. The corpus is an external collaborator of the
// merge core: it consumes anchor citations but contains no merge or
// validation logic.
//
// Building this package requires the sqlite_fts5 tag so that
// go-sqlite3 compiles with FTS5 support; the mage Build and Test
// targets pass it.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

const dbFile = "corpus.db"

// Passage is one numbered source passage. Anchors cite it as §N.
type Passage struct {
	// Num is the passage number, unique across the whole corpus.
	Num int `json:"num" yaml:"num"`

	// Source names the document the passage came from.
	Source string `json:"source" yaml:"source"`

	// Text is the passage body.
	Text string `json:"text" yaml:"text"`
}

// Ref returns the passage's citation token (e.g. "§12").
func (p Passage) Ref() string {
	return fmt.Sprintf("§%d", p.Num)
}

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the corpus database at
// cfg.CorpusDir/corpus.db, creating the schema if it does not exist.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	if cfg.CorpusDir == "" {
		return nil, fmt.Errorf("corpus directory not configured")
	}
	if err := os.MkdirAll(cfg.CorpusDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CorpusDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating corpus schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS passages (
			num INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL REFERENCES sources(id),
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(text, content=passages, content_rowid=num)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, text) VALUES (new.num, new.text);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, text) VALUES('delete', old.num, old.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Index splits text into passages and appends them to the corpus under
// the given source name. Passage numbers continue from the current
// maximum, so citations in existing artifacts stay stable. It returns
// the numbers assigned to the new passages.
func (s *Store) Index(ctx context.Context, source, text string) ([]int, error) {
	passages := SplitPassages(text)
	if len(passages) == 0 {
		return nil, fmt.Errorf("source %q contains no passages", source)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sources (name, added_at) VALUES (?, ?)`, source, types.Now())
	if err != nil {
		return nil, fmt.Errorf("inserting source %q: %w", source, err)
	}
	sourceID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading source id: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(num), 0) + 1 FROM passages`).Scan(&next); err != nil {
		return nil, fmt.Errorf("finding next passage number: %w", err)
	}

	nums := make([]int, 0, len(passages))
	for i, p := range passages {
		num := next + i
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passages (num, source_id, text) VALUES (?, ?, ?)`,
			num, sourceID, p); err != nil {
			return nil, fmt.Errorf("inserting passage %d: %w", num, err)
		}
		nums = append(nums, num)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return nums, nil
}

// SplitPassages splits source text into passages on blank lines,
// dropping empty paragraphs.
func SplitPassages(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

// MaxPassage returns the highest passage number in the corpus, the
// upper bound of the valid citation range. Zero means the corpus is
// empty.
func (s *Store) MaxPassage(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(num), 0) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("querying passage range: %w", err)
	}
	return n, nil
}

// Search runs a keyword query over the FTS index and returns matching
// passages ranked by relevance.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Passage, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.num, src.name, p.text
		FROM passages_fts
		JOIN passages p ON p.num = passages_fts.rowid
		JOIN sources src ON src.id = p.source_id
		WHERE passages_fts MATCH ?
		ORDER BY passages_fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Num, &p.Source, &p.Text); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Trace returns the passage a citation points at.
func (s *Store) Trace(ctx context.Context, num int) (Passage, error) {
	var p Passage
	err := s.db.QueryRowContext(ctx,
		`SELECT p.num, src.name, p.text
		FROM passages p
		JOIN sources src ON src.id = p.source_id
		WHERE p.num = ?`, num).Scan(&p.Num, &p.Source, &p.Text)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("no passage §%d in corpus", num)
	}
	if err != nil {
		return p, fmt.Errorf("tracing passage §%d: %w", num, err)
	}
	return p, nil
}
