// Package history persists the rolling conversation log that gives the
// assistant continuity across messages. Each session is an independent
// keyed record capped at 2×maxRounds turns with FIFO eviction.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tcb-dev/claudebridge/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS history_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_session ON history_turns(session_id, id);
`

// Store is a SQLite-backed rolling history store. Appends for the same
// session serialize on a session lock; distinct sessions are independent.
type Store struct {
	db        *sql.DB
	maxRounds int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates or opens the store at path and applies the schema.
func Open(path string, maxRounds int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{
		db:        db,
		maxRounds: maxRounds,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Append adds one turn and evicts the oldest turns beyond the cap in the
// same transaction, so a crash can neither lose nor duplicate the turn.
func (s *Store) Append(ctx context.Context, sessionID string, role models.Role, content string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(role), content, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	maxTurns := s.maxRounds * 2
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history_turns
		WHERE session_id = ?
		  AND id NOT IN (
			SELECT id FROM history_turns WHERE session_id = ? ORDER BY id DESC LIMIT ?
		  )`,
		sessionID, sessionID, maxTurns)
	if err != nil {
		return fmt.Errorf("trim session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Read returns the session's turns oldest-first for replay.
func (s *Store) Read(ctx context.Context, sessionID string) ([]models.HistoryTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM history_turns WHERE session_id = ? ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	defer rows.Close()

	var turns []models.HistoryTurn
	for rows.Next() {
		var (
			role      string
			content   string
			createdAt string
		)
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		timestamp, _ := time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, models.HistoryTurn{
			Role:      models.Role(role),
			Content:   content,
			Timestamp: timestamp,
		})
	}
	return turns, rows.Err()
}

// Clear wipes one session and persists immediately.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM history_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Len reports the number of turns stored for a session.
func (s *Store) Len(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history_turns WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count session: %w", err)
	}
	return n, nil
}
