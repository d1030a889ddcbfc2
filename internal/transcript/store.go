// Package transcript records inbound chat events in SQLite for later
// inspection. Recording happens before filtering so the transcript is a
// complete log of what the gateways observed.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"relaybot/internal/domain"
)

// Store persists inbound events in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id    TEXT NOT NULL,
		gateway     TEXT NOT NULL,
		tenant      TEXT,
		channel_id  TEXT,
		channel     TEXT,
		author_id   TEXT,
		author      TEXT,
		kind        TEXT,
		content     TEXT,
		attachments TEXT,
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_tenant ON events(tenant, created_at);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one inbound event.
func (s *Store) Record(ctx context.Context, ev domain.InboundEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, gateway, tenant, channel_id, channel, author_id, author, kind, content, attachments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Gateway, ev.Tenant, ev.ChannelID, ev.ChannelName,
		ev.AuthorID, ev.Author, ev.Kind, ev.Content,
		strings.Join(ev.Attachments, ", "), ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	return nil
}

// Count reports how many events are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// RecentByTenant returns up to limit of the newest events for a tenant.
func (s *Store) RecentByTenant(ctx context.Context, tenant string, limit int) ([]domain.InboundEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, gateway, tenant, channel_id, channel, author_id, author, kind, content, created_at
		 FROM events WHERE tenant = ? ORDER BY created_at DESC LIMIT ?`,
		tenant, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.InboundEvent
	for rows.Next() {
		var ev domain.InboundEvent
		if err := rows.Scan(&ev.ID, &ev.Gateway, &ev.Tenant, &ev.ChannelID, &ev.ChannelName,
			&ev.AuthorID, &ev.Author, &ev.Kind, &ev.Content, &ev.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
