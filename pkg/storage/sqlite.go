package storage

import (
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using a SQLite backend
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore creates a new SQLite-backed store
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{
		db: db,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initDB initializes the database schema
func (s *SQLiteStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connection_events (
		id TEXT PRIMARY KEY,
		sid TEXT NOT NULL,
		kind TEXT NOT NULL,
		role TEXT DEFAULT '',
		occurred_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON connection_events(occurred_at DESC);
	CREATE INDEX IF NOT EXISTS idx_events_sid ON connection_events(sid);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON connection_events(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) record(sid, kind, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
	INSERT INTO connection_events (id, sid, kind, role, occurred_at)
	VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), sid, kind, role, time.Now().UTC())
	return err
}

// RecordConnect records a new connection
func (s *SQLiteStore) RecordConnect(sid string) error {
	return s.record(sid, KindConnect, "")
}

// RecordIdentify records a successful agent identification
func (s *SQLiteStore) RecordIdentify(sid string) error {
	return s.record(sid, KindIdentify, "")
}

// RecordDisconnect records a disconnection with the connection's final role
func (s *SQLiteStore) RecordDisconnect(sid, role string) error {
	return s.record(sid, KindDisconnect, role)
}

// RecentEvents returns the most recent audit rows, newest first
func (s *SQLiteStore) RecentEvents(limit int) ([]*ConnectionEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
	SELECT id, sid, kind, role, occurred_at
	FROM connection_events
	ORDER BY occurred_at DESC, id
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ConnectionEvent
	for rows.Next() {
		var e ConnectionEvent
		if err := rows.Scan(&e.ID, &e.SID, &e.Kind, &e.Role, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Stats returns aggregate counts over the audit log
func (s *SQLiteStore) Stats() (*Stats, error) {
	stats := &Stats{}
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM connection_events WHERE kind = ?`, KindConnect).Scan(&stats.TotalConnections); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM connection_events WHERE kind = ?`, KindIdentify).Scan(&stats.AgentIdentifications); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM connection_events WHERE kind = ?`, KindDisconnect).Scan(&stats.Disconnections); err != nil {
		return nil, err
	}
	return stats, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
