// ABOUTME: SQLite-backed journal storage using mattn/go-sqlite3.
// ABOUTME: Entries get auto-increment ids; creation time and kind are immutable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"github.com/2389-research/memento/internal/models"
)

// validSyncModes lists the accepted values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true,
}

// SQLiteOptions tunes how the database file is opened.
type SQLiteOptions struct {
	WAL         bool
	Synchronous string
}

// JournalSQLiteStore stores journal entries in a single SQLite database file.
type JournalSQLiteStore struct {
	db   *sql.DB
	path string
}

const entryColumns = `id, type, created_at, text, audio_data, mime_type, transcript, categories, embedding`

// NewJournalSQLiteStore opens (creating if needed) the database at path and
// brings its schema to SchemaVersion.
func NewJournalSQLiteStore(ctx context.Context, path string, opts SQLiteOptions) (*JournalSQLiteStore, error) {
	if path == "" {
		return nil, storageErr("open", errors.New("database path is required"))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, storageErr("open", errors.Wrap(err, "create database directory"))
		}
	}

	params := url.Values{}
	if opts.WAL {
		params.Add("_journal_mode", "WAL")
	}
	if opts.Synchronous != "" {
		mode := strings.ToUpper(opts.Synchronous)
		if !validSyncModes[mode] {
			return nil, storageErr("open", errors.Errorf("invalid synchronous mode %q: must be one of OFF, NORMAL, FULL, EXTRA", opts.Synchronous))
		}
		params.Add("_synchronous", mode)
	}
	params.Add("_busy_timeout", "5000")
	db, err := sql.Open("sqlite3", sqliteDSN(path, params))
	if err != nil {
		return nil, storageErr("open", errors.Wrapf(err, "open %s", path))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("open", errors.Wrapf(err, "ping %s", path))
	}
	if err := migrate(ctx, db, SchemaVersion); err != nil {
		_ = db.Close()
		return nil, storageErr("migrate", err)
	}

	return &JournalSQLiteStore{db: db, path: path}, nil
}

// uriPathEscaper escapes the characters SQLite's URI parser would treat as
// delimiters or escapes inside a file path.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// sqliteDSN builds a file: URI for path. SQLite decodes the escapes, so the
// database lands at the literal path.
func sqliteDSN(path string, params url.Values) string {
	return "file:" + uriPathEscaper.Replace(path) + "?" + params.Encode()
}

// Path returns the database file path.
func (s *JournalSQLiteStore) Path() string {
	return s.path
}

// Insert persists a new entry and assigns its id.
func (s *JournalSQLiteStore) Insert(ctx context.Context, entry *models.Entry) (int64, error) {
	if entry == nil || entry.Body == nil {
		return 0, storageErr("insert", errors.New("entry body is required"))
	}
	if entry.ID != 0 {
		return 0, storageErr("insert", errors.Errorf("entry already has id %d", entry.ID))
	}

	row, err := toRow(entry)
	if err != nil {
		return 0, storageErr("insert", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (type, created_at, text, audio_data, mime_type, transcript, categories, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.kind, row.createdAt, row.text, row.audio, row.mimeType, row.transcript, row.categories, row.embedding,
	)
	if err != nil {
		return 0, storageErr("insert", errors.Wrap(err, "insert entry"))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert", errors.Wrap(err, "read assigned id"))
	}

	entry.ID = id
	return id, nil
}

// ListAll returns every stored entry. Rows come back in id order, which
// callers must not rely on.
func (s *JournalSQLiteStore) ListAll(ctx context.Context) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries`)
	if err != nil {
		return nil, storageErr("list", errors.Wrap(err, "query entries"))
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr("list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", errors.Wrap(err, "iterate entries"))
	}
	return entries, nil
}

// Get returns the entry with the given id.
func (s *JournalSQLiteStore) Get(ctx context.Context, id int64) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storageErr("get", fmt.Errorf("id %d: %w", id, ErrNotFound))
		}
		return nil, storageErr("get", err)
	}
	return entry, nil
}

// Upsert replaces the stored entry matching entry.ID. The stored creation
// time and kind win over whatever the caller passes.
func (s *JournalSQLiteStore) Upsert(ctx context.Context, entry *models.Entry) error {
	if entry == nil || entry.ID == 0 {
		return storageErr("upsert", errors.New("entry id is required"))
	}
	if entry.Body == nil {
		return storageErr("upsert", errors.New("entry body is required"))
	}

	row, err := toRow(entry)
	if err != nil {
		return storageErr("upsert", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, type, created_at, text, audio_data, mime_type, transcript, categories, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     text = excluded.text,
		     audio_data = excluded.audio_data,
		     mime_type = excluded.mime_type,
		     transcript = excluded.transcript,
		     categories = excluded.categories,
		     embedding = excluded.embedding
		 WHERE entries.type = excluded.type`,
		entry.ID, row.kind, row.createdAt, row.text, row.audio, row.mimeType, row.transcript, row.categories, row.embedding,
	)
	if err != nil {
		return storageErr("upsert", errors.Wrapf(err, "upsert entry %d", entry.ID))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("upsert", errors.Wrap(err, "read affected rows"))
	}
	if affected == 0 {
		return storageErr("upsert", errors.Errorf("entry %d is stored with a different type than %q", entry.ID, row.kind))
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *JournalSQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	err := s.db.Close()
	s.db = nil
	return storageErr("close", err)
}

// entryRow holds an entry flattened into column values.
type entryRow struct {
	kind       string
	createdAt  int64
	text       sql.NullString
	audio      []byte
	mimeType   sql.NullString
	transcript sql.NullString
	categories string
	embedding  []byte
}

func toRow(entry *models.Entry) (entryRow, error) {
	categories, err := encodeCategories(entry.Categories)
	if err != nil {
		return entryRow{}, err
	}

	row := entryRow{
		kind:       string(entry.Kind()),
		createdAt:  entry.CreatedAt.UnixMilli(),
		categories: categories,
		embedding:  EncodeVector(entry.Embedding),
	}

	switch body := entry.Body.(type) {
	case models.TextNote:
		row.text = sql.NullString{String: body.Text, Valid: true}
	case models.AudioClip:
		row.audio = body.Data
		if row.audio == nil {
			row.audio = []byte{}
		}
		row.mimeType = sql.NullString{String: body.MIMEType, Valid: true}
		row.transcript = sql.NullString{String: body.Transcript, Valid: true}
	default:
		return entryRow{}, errors.Errorf("unsupported entry body %T", entry.Body)
	}
	return row, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*models.Entry, error) {
	var (
		id         int64
		kind       string
		createdAt  int64
		text       sql.NullString
		audio      []byte
		mimeType   sql.NullString
		transcript sql.NullString
		categories string
		embedding  []byte
	)
	if err := sc.Scan(&id, &kind, &createdAt, &text, &audio, &mimeType, &transcript, &categories, &embedding); err != nil {
		return nil, err
	}

	cats, err := decodeCategories(categories)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %d", id)
	}
	vec, err := DecodeVector(embedding)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %d", id)
	}

	entry := &models.Entry{
		ID:         id,
		CreatedAt:  time.UnixMilli(createdAt),
		Categories: cats,
		Embedding:  vec,
	}
	switch models.Kind(kind) {
	case models.KindText:
		entry.Body = models.TextNote{Text: text.String}
	case models.KindAudio:
		entry.Body = models.AudioClip{Data: audio, MIMEType: mimeType.String, Transcript: transcript.String}
	default:
		return nil, errors.Errorf("entry %d has unknown type %q", id, kind)
	}
	return entry, nil
}
