package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/service"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLitePersistence implements SessionPersistence on a SQLite database
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens (or creates) the database at dbPath
func NewSQLitePersistence(dbPath string) (*SQLitePersistence, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return &SQLitePersistence{db: db}, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			scenario_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			scene TEXT NOT NULL,
			data TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_updated ON sessions(last_updated);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// Save upserts the session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	_, err = sp.db.Exec(`
		INSERT INTO sessions (id, scenario_id, day, scene, data, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario_id = excluded.scenario_id,
			day = excluded.day,
			scene = excluded.scene,
			data = excluded.data,
			last_updated = excluded.last_updated`,
		strings.ToLower(session.ID), session.ScenarioID, session.Run.Day, string(session.Scene), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads a session row
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	var data string
	err := sp.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return decodeSession([]byte(data))
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	res, err := sp.db.Exec(`DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := sp.db.Query(`SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session row exists
func (sp *SQLitePersistence) Exists(id string) bool {
	var one int
	err := sp.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}

// Close closes the database
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}
