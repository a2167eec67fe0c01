package storage

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLStore implements Store using a MySQL backend (use Database.Path as DSN)
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed store
func NewMySQLStore(dsn string, maxConns int) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	s := &MySQLStore{db: db}
	if err := s.initDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// initDB initializes the database schema
func (s *MySQLStore) initDB() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS connection_events (
		id VARCHAR(36) PRIMARY KEY,
		sid VARCHAR(64) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT '',
		occurred_at DATETIME(6) NOT NULL,
		INDEX idx_events_occurred_at (occurred_at DESC),
		INDEX idx_events_sid (sid),
		INDEX idx_events_kind (kind)
	)`)
	return err
}

func (s *MySQLStore) record(sid, kind, role string) error {
	_, err := s.db.Exec(`
	INSERT INTO connection_events (id, sid, kind, role, occurred_at)
	VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), sid, kind, role, time.Now().UTC())
	return err
}

// RecordConnect records a new connection
func (s *MySQLStore) RecordConnect(sid string) error {
	return s.record(sid, KindConnect, "")
}

// RecordIdentify records a successful agent identification
func (s *MySQLStore) RecordIdentify(sid string) error {
	return s.record(sid, KindIdentify, "")
}

// RecordDisconnect records a disconnection with the connection's final role
func (s *MySQLStore) RecordDisconnect(sid, role string) error {
	return s.record(sid, KindDisconnect, role)
}

// RecentEvents returns the most recent audit rows, newest first
func (s *MySQLStore) RecentEvents(limit int) ([]*ConnectionEvent, error) {
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
func (s *MySQLStore) Stats() (*Stats, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
