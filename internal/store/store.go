// Package store persists finished research runs in SQLite. Summaries are
// stored as a JSON blob alongside the topic and lens so the history API can
// replay them without re-running research.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mohammad-safakhou/topicradar/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	topic      TEXT NOT NULL,
	lens       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	summary    TEXT NOT NULL
);
`

// Store is a SQLite-backed history of research runs.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// New opens (creating if needed) the history database at path. Use ":memory:"
// for an ephemeral store.
func New(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save inserts a finished run and returns its row ID.
func (s *Store) Save(ctx context.Context, topic, lens string, summary models.TopicSummary) (int64, error) {
	blob, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("encode summary: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO searches (topic, lens, created_at, summary) VALUES (?, ?, ?, ?)",
		topic, lens, time.Now().UTC().Format(time.RFC3339Nano), string(blob),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	s.logger.Printf("[store] saved history entry id=%d topic=%q", id, topic)
	return id, nil
}

// List returns list-view items newest first, metadata only: the summary
// column is never read here. offset skips that many entries; limit caps the
// page size.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.HistoryListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, topic, lens, created_at FROM searches ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []models.HistoryListItem
	for rows.Next() {
		var (
			item      models.HistoryListItem
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.Topic, &item.Lens, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			// A corrupt row should not take the whole listing down.
			s.logger.Printf("[store] skipping history entry %d: bad created_at: %v", item.ID, err)
			continue
		}
		item.CreatedAt = ts
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return items, nil
}

// GetByID fetches a single entry, returning models.ErrEntryNotFound when the
// ID does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (models.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, topic, lens, created_at, summary FROM searches WHERE id = ?", id,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HistoryEntry{}, models.ErrEntryNotFound
	}
	if err != nil {
		return models.HistoryEntry{}, err
	}
	return entry, nil
}

// Delete removes an entry, returning models.ErrEntryNotFound when nothing was
// deleted.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM searches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrEntryNotFound
	}
	s.logger.Printf("[store] deleted history entry id=%d", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.HistoryEntry, error) {
	var (
		entry     models.HistoryEntry
		createdAt string
		blob      string
	)
	if err := row.Scan(&entry.ID, &entry.Topic, &entry.Lens, &createdAt, &blob); err != nil {
		return models.HistoryEntry{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("entry %d: parse created_at: %w", entry.ID, err)
	}
	entry.CreatedAt = ts
	if err := json.Unmarshal([]byte(blob), &entry.Summary); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("entry %d: decode summary: %w", entry.ID, err)
	}
	return entry, nil
}
