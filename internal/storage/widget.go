package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kindredapp/kindred/protocol/wire"
	_ "github.com/mattn/go-sqlite3"
)

// widgetHistoryLimit is how many received scribbles the widget store keeps.
const widgetHistoryLimit = 10

// ScribbleMeta describes who sent a scribble and when.
type ScribbleMeta struct {
	SenderName string
	Timestamp  string
}

// WidgetScribble is a scribble as stored for the home-screen widget.
type WidgetScribble struct {
	ID         string
	Paths      []wire.PathSegment
	SenderName string
	Timestamp  string
	SavedAt    time.Time
}

// WidgetStore persists received scribbles so the home-screen widget can
// render the latest one without a live connection.
type WidgetStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenWidgetStore opens (or creates) the SQLite database at path.
func OpenWidgetStore(path string) (*WidgetStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open widget database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY between the pool's own connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping widget database: %w", err)
	}
	if err := migrateWidget(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run widget migrations: %w", err)
	}
	return &WidgetStore{db: db, now: time.Now}, nil
}

func migrateWidget(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS widget_scribbles (
			id          TEXT PRIMARY KEY,
			paths_json  TEXT NOT NULL,
			sender_name TEXT NOT NULL DEFAULT '',
			sent_at     TEXT NOT NULL DEFAULT '',
			saved_at    INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_widget_scribbles_saved_at
		ON widget_scribbles (saved_at)
	`)
	return err
}

// SaveScribblePaths stores a received scribble as the widget's latest and
// prunes older entries beyond the history limit.
func (s *WidgetStore) SaveScribblePaths(ctx context.Context, paths []wire.PathSegment, meta ScribbleMeta) error {
	raw, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to encode paths: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO widget_scribbles (id, paths_json, sender_name, sent_at, saved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), string(raw), meta.SenderName, meta.Timestamp, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scribble: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM widget_scribbles WHERE id NOT IN (
			SELECT id FROM widget_scribbles ORDER BY saved_at DESC LIMIT ?
		)`, widgetHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to prune scribbles: %w", err)
	}

	return tx.Commit()
}

// LatestScribble returns the most recently saved scribble, or nil when the
// store is empty.
func (s *WidgetStore) LatestScribble(ctx context.Context) (*WidgetScribble, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, paths_json, sender_name, sent_at, saved_at
		 FROM widget_scribbles ORDER BY saved_at DESC LIMIT 1`)

	var (
		out     WidgetScribble
		raw     string
		savedAt int64
	)
	if err := row.Scan(&out.ID, &raw, &out.SenderName, &out.Timestamp, &savedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load scribble: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &out.Paths); err != nil {
		return nil, fmt.Errorf("failed to decode paths: %w", err)
	}
	out.SavedAt = time.Unix(0, savedAt)
	return &out, nil
}

// Count returns how many scribbles are stored.
func (s *WidgetStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM widget_scribbles`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *WidgetStore) Close() error {
	return s.db.Close()
}
