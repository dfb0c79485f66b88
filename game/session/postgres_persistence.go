package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/service"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS storekeeper_sessions (
	id TEXT PRIMARY KEY,
	pack_id TEXT NOT NULL,
	level_index INTEGER NOT NULL,
	moves INTEGER NOT NULL,
	pushes INTEGER NOT NULL,
	progress JSONB NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	last_accessed_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

// PostgresPersistence implements SessionPersistence on a PostgreSQL table
type PostgresPersistence struct {
	db     *sql.DB
	packs  service.PackManager
	logger zerolog.Logger
}

// NewPostgresPersistence connects to dsn and ensures the sessions table exists
func NewPostgresPersistence(dsn string, packs service.PackManager, logger zerolog.Logger) (*PostgresPersistence, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &PostgresPersistence{db: db, packs: packs, logger: logger}
	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

// Close releases the database handle
func (p *PostgresPersistence) Close() error {
	return p.db.Close()
}

// Save upserts a session row
func (p *PostgresPersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := newPersistedSessionData(session)
	progress, err := json.Marshal(data.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	query := `
	INSERT INTO storekeeper_sessions (id, pack_id, level_index, moves, pushes, progress, created_at, last_accessed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id)
	DO UPDATE SET
		pack_id = $2, level_index = $3, moves = $4, pushes = $5, progress = $6,
		last_accessed_at = $8, updated_at = NOW()
	`
	_, err = p.db.Exec(query,
		strings.ToLower(data.ID), data.PackID, data.Progress.CurrentIndex,
		data.Stats.Moves, data.Stats.Pushes, string(progress),
		data.CreatedAt, data.LastAccessedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a session row and replays its progress
func (p *PostgresPersistence) Load(id string) (*service.Session, error) {
	query := `SELECT id, pack_id, moves, pushes, progress, created_at, last_accessed_at FROM storekeeper_sessions WHERE id = $1`

	var data PersistedSessionData
	var progress []byte
	err := p.db.QueryRow(query, strings.ToLower(id)).Scan(
		&data.ID, &data.PackID, &data.Stats.Moves, &data.Stats.Pushes,
		&progress, &data.CreatedAt, &data.LastAccessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(progress, &data.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	return restoreSession(data, p.packs, p.logger)
}

// Delete removes a session row
func (p *PostgresPersistence) Delete(id string) error {
	res, err := p.db.Exec(`DELETE FROM storekeeper_sessions WHERE id = $1`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns every stored session ID
func (p *PostgresPersistence) ListAll() ([]string, error) {
	rows, err := p.db.Query(`SELECT id FROM storekeeper_sessions ORDER BY id`)
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
func (p *PostgresPersistence) Exists(id string) bool {
	var exists bool
	err := p.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM storekeeper_sessions WHERE id = $1)`, strings.ToLower(id)).Scan(&exists)
	if err != nil {
		p.logger.Warn().Err(err).Str("session", id).Msg("session lookup failed")
		return false
	}
	return exists
}
