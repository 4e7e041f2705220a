// Package store is the SQLite persistence adapter for the medqc pipeline.
//
// All stage writes are transactional replace-by-document: delete every row
// scoped to the doc id, then insert the new set. Re-running a stage is
// therefore fully idempotent and never leaves stale rows behind. Reads are
// keyed by doc id only.
//
// Concurrent processing of different documents is safe; concurrent runs
// for the same doc id are not (a reader could pair sections from one run
// with entities from another) and must be serialized by the caller.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/medqc/dbopen"
	"github.com/hazyhaar/medqc/model"
)

const ddl = `
CREATE TABLE IF NOT EXISTS docs (
    doc_id     TEXT PRIMARY KEY,
    sha256     TEXT NOT NULL DEFAULT '',
    src_path   TEXT NOT NULL DEFAULT '',
    filename   TEXT NOT NULL DEFAULT '',
    mime       TEXT NOT NULL DEFAULT '',
    size_bytes INTEGER NOT NULL DEFAULT 0,
    facility   TEXT NOT NULL DEFAULT '',
    dept       TEXT NOT NULL DEFAULT '',
    author     TEXT NOT NULL DEFAULT '',
    admit_dt   TEXT NOT NULL DEFAULT '',
    producer   TEXT NOT NULL DEFAULT '',
    page_count INTEGER NOT NULL DEFAULT 0,
    is_scanned INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS raw (
    doc_id  TEXT PRIMARY KEY REFERENCES docs(doc_id) ON DELETE CASCADE,
    content TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
    doc_id    TEXT NOT NULL REFERENCES docs(doc_id) ON DELETE CASCADE,
    pageno    INTEGER NOT NULL,
    start_off INTEGER NOT NULL,
    end_off   INTEGER NOT NULL,
    PRIMARY KEY (doc_id, pageno)
);

CREATE TABLE IF NOT EXISTS sections (
    doc_id     TEXT NOT NULL REFERENCES docs(doc_id) ON DELETE CASCADE,
    section_id TEXT NOT NULL,
    name       TEXT NOT NULL,
    kind       TEXT NOT NULL DEFAULT '',
    start_off  INTEGER NOT NULL,
    end_off    INTEGER NOT NULL,
    PRIMARY KEY (doc_id, section_id)
);

CREATE TABLE IF NOT EXISTS entities (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id     TEXT NOT NULL REFERENCES docs(doc_id) ON DELETE CASCADE,
    etype      TEXT NOT NULL,
    section_id TEXT,
    start_off  INTEGER NOT NULL,
    end_off    INTEGER NOT NULL,
    value_json TEXT NOT NULL DEFAULT '{}',
    source     TEXT NOT NULL DEFAULT 'regex',
    confidence REAL NOT NULL DEFAULT 0.9,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sections_doc ON sections(doc_id, start_off);
CREATE INDEX IF NOT EXISTS idx_entities_doc ON entities(doc_id, start_off);
CREATE INDEX IF NOT EXISTS idx_docs_sha    ON docs(sha256);
`

// Store wraps an SQLite database holding documents, pages, sections and
// entities.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with the production pragmas
// and the schema applied.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(ddl))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for tests and closes it on cleanup.
func OpenMemory(t *testing.T) *Store {
	t.Helper()
	return &Store{db: dbopen.OpenMemory(t, dbopen.WithSchema(ddl))}
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Doc is a docs row: document identity, source file facts and the display
// metadata (facility, department, author, admission timestamp) that the
// core algorithms never read.
type Doc struct {
	ID        string `json:"doc_id"`
	SHA256    string `json:"sha256,omitempty"`
	SrcPath   string `json:"src_path,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MIME      string `json:"mime,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Facility  string `json:"facility,omitempty"`
	Dept      string `json:"dept,omitempty"`
	Author    string `json:"author,omitempty"`
	AdmitDT   string `json:"admit_dt,omitempty"`
	Producer  string `json:"producer,omitempty"`
	PageCount int    `json:"page_count"`
	Scanned   bool   `json:"is_scanned"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UpsertDoc inserts or updates a docs row by doc id. Extraction-owned
// columns (producer, page_count, is_scanned) are left untouched here;
// ReplaceExtraction maintains them.
func (s *Store) UpsertDoc(d *Doc) error {
	now := nowUTC()
	_, err := dbopen.Exec(context.Background(), s.db, `
INSERT INTO docs (doc_id, sha256, src_path, filename, mime, size_bytes, facility, dept, author, admit_dt, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(doc_id) DO UPDATE SET
    sha256     = excluded.sha256,
    src_path   = excluded.src_path,
    filename   = excluded.filename,
    mime       = excluded.mime,
    size_bytes = excluded.size_bytes,
    facility   = excluded.facility,
    dept       = excluded.dept,
    author     = excluded.author,
    admit_dt   = excluded.admit_dt,
    updated_at = excluded.updated_at`,
		d.ID, d.SHA256, d.SrcPath, d.Filename, d.MIME, d.SizeBytes,
		d.Facility, d.Dept, d.Author, d.AdmitDT, now, now,
	)
	return err
}

// GetDoc returns a docs row by id. Returns nil, nil if not found.
func (s *Store) GetDoc(id string) (*Doc, error) {
	d := &Doc{}
	var scanned int
	err := s.db.QueryRow(`
SELECT doc_id, sha256, src_path, filename, mime, size_bytes, facility, dept, author, admit_dt,
       producer, page_count, is_scanned, created_at, updated_at
FROM docs WHERE doc_id = ?`, id,
	).Scan(&d.ID, &d.SHA256, &d.SrcPath, &d.Filename, &d.MIME, &d.SizeBytes,
		&d.Facility, &d.Dept, &d.Author, &d.AdmitDT,
		&d.Producer, &d.PageCount, &scanned, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Scanned = scanned == 1
	return d, nil
}

// FindDocBySHA256 returns the id of the document with the given content
// hash, or "" when none exists.
func (s *Store) FindDocBySHA256(sha string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT doc_id FROM docs WHERE sha256 = ? LIMIT 1`, sha).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReplaceExtraction atomically replaces the extraction output for one
// document: the raw full text, the page offset table, and the
// extraction-owned docs columns.
func (s *Store) ReplaceExtraction(doc model.Document, pages []model.Page) error {
	return dbopen.RunTx(context.Background(), s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM pages WHERE doc_id = ?`, doc.ID); err != nil {
			return fmt.Errorf("delete pages: %w", err)
		}
		for _, p := range pages {
			if _, err := tx.Exec(
				`INSERT INTO pages (doc_id, pageno, start_off, end_off) VALUES (?, ?, ?, ?)`,
				doc.ID, p.Number, p.Start, p.End,
			); err != nil {
				return fmt.Errorf("insert page %d: %w", p.Number, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO raw (doc_id, content) VALUES (?, ?)
			 ON CONFLICT(doc_id) DO UPDATE SET content = excluded.content`,
			doc.ID, doc.FullText,
		); err != nil {
			return fmt.Errorf("upsert raw: %w", err)
		}
		scanned := 0
		if doc.Scanned {
			scanned = 1
		}
		if _, err := tx.Exec(
			`UPDATE docs SET producer = ?, page_count = ?, is_scanned = ?, updated_at = ? WHERE doc_id = ?`,
			doc.Producer, doc.PageCount, scanned, nowUTC(), doc.ID,
		); err != nil {
			return fmt.Errorf("update doc: %w", err)
		}
		return nil
	})
}

// GetFullText returns the extracted full text for a document, or "" when
// no text has been extracted yet.
func (s *Store) GetFullText(docID string) (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM raw WHERE doc_id = ?`, docID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// GetPages returns the page offset table in page-number order.
func (s *Store) GetPages(docID string) ([]model.Page, error) {
	rows, err := s.db.Query(
		`SELECT pageno, start_off, end_off FROM pages WHERE doc_id = ? ORDER BY pageno`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.Number, &p.Start, &p.End); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ReplaceSections atomically replaces all sections of a document.
func (s *Store) ReplaceSections(docID string, secs []model.Section) error {
	return dbopen.RunTx(context.Background(), s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sections WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("delete sections: %w", err)
		}
		for _, sec := range secs {
			if _, err := tx.Exec(
				`INSERT INTO sections (doc_id, section_id, name, kind, start_off, end_off) VALUES (?, ?, ?, ?, ?, ?)`,
				docID, sec.ID, sec.Label, string(sec.Kind), sec.Start, sec.End,
			); err != nil {
				return fmt.Errorf("insert section %s: %w", sec.ID, err)
			}
		}
		return nil
	})
}

// GetSections returns a document's sections ordered by start offset.
func (s *Store) GetSections(docID string) ([]model.Section, error) {
	rows, err := s.db.Query(
		`SELECT section_id, name, kind, start_off, end_off FROM sections WHERE doc_id = ? ORDER BY start_off`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secs []model.Section
	for rows.Next() {
		var sec model.Section
		var kind string
		if err := rows.Scan(&sec.ID, &sec.Label, &kind, &sec.Start, &sec.End); err != nil {
			return nil, err
		}
		sec.Kind = model.SectionKind(kind)
		secs = append(secs, sec)
	}
	return secs, rows.Err()
}

// ReplaceEntities atomically replaces all entities of a document.
func (s *Store) ReplaceEntities(docID string, ents []model.Entity) error {
	return dbopen.RunTx(context.Background(), s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM entities WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("delete entities: %w", err)
		}
		now := nowUTC()
		for _, e := range ents {
			var sectionID any
			if e.SectionID != "" {
				sectionID = e.SectionID
			}
			value := string(e.Value)
			if value == "" {
				value = "{}"
			}
			if _, err := tx.Exec(
				`INSERT INTO entities (doc_id, etype, section_id, start_off, end_off, value_json, source, confidence, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				docID, string(e.Type), sectionID, e.Start, e.End, value, e.Source, e.Confidence, now,
			); err != nil {
				return fmt.Errorf("insert entity: %w", err)
			}
		}
		return nil
	})
}

// GetEntities returns a document's entities ordered by start offset.
func (s *Store) GetEntities(docID string) ([]model.Entity, error) {
	rows, err := s.db.Query(
		`SELECT etype, section_id, start_off, end_off, value_json, source, confidence
		 FROM entities WHERE doc_id = ? ORDER BY start_off, id`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ents []model.Entity
	for rows.Next() {
		var e model.Entity
		var etype, value string
		var sectionID sql.NullString
		if err := rows.Scan(&etype, &sectionID, &e.Start, &e.End, &value, &e.Source, &e.Confidence); err != nil {
			return nil, err
		}
		e.Type = model.EntityType(etype)
		e.SectionID = sectionID.String
		e.Value = json.RawMessage(value)
		ents = append(ents, e)
	}
	return ents, rows.Err()
}

// CountSections returns the number of stored sections for a document.
func (s *Store) CountSections(docID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sections WHERE doc_id = ?`, docID).Scan(&n)
	return n, err
}

// CountEntities returns the number of stored entities for a document.
func (s *Store) CountEntities(docID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entities WHERE doc_id = ?`, docID).Scan(&n)
	return n, err
}
