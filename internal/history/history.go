// Package history provides SQLite-based persistence for chat transcripts.
// The database is opened lazily and created on first use.
// If opening the DB or executing queries fails, the store falls back to in-memory storage.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/logger"
)

// Store keeps chat messages per session.
type Store struct {
	path string

	mu       sync.Mutex
	messages []Message // in-memory fallback

	dbOnce  sync.Once
	db      *sql.DB
	initErr error
}

// New returns a store backed by the SQLite file at path. Nothing is opened until
// the first call. An empty path keeps everything in memory.
func New(path string) *Store {
	return &Store{path: path}
}

// initDB lazily opens the SQLite database and creates the messages table if it doesn't exist.
func (s *Store) initDB() {
	if s.path == "" {
		s.initErr = errMemoryOnly
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.initErr = err
		logger.L.Warn("history dir not writable; using in-memory history", "error", err)
		return
	}
	var err error
	s.db, err = sql.Open("sqlite", "file:"+s.path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return
	}
	if _, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`); err == nil {
		_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS messages_session ON messages(session_id, seq);`)
	}
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		return
	}
	logger.L.Debug("sqlite history DB initialized", "path", s.path)
}

// Record persists a chat message to SQLite when available and always keeps an
// in-memory copy as fallback.
func (s *Store) Record(ctx context.Context, sessionID string, m chat.Message) error {
	s.dbOnce.Do(s.initDB)

	msg := fromChat(sessionID, m)
	var err error
	if s.initErr == nil && s.db != nil {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO messages (session_id, message_id, role, content, created_at) VALUES (?,?,?,?,?);`,
			msg.SessionID, msg.MessageID, msg.Role, msg.Content, msg.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store message in sqlite; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return err
}

// List returns all messages of a session in chronological order.
func (s *Store) List(ctx context.Context, sessionID string) []Message {
	s.dbOnce.Do(s.initDB)
	var out []Message
	if s.initErr == nil && s.db != nil {
		rows, err := s.db.QueryContext(ctx,
			`SELECT seq, session_id, message_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq ASC;`,
			sessionID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var m Message
				if err := rows.Scan(&m.Seq, &m.SessionID, &m.MessageID, &m.Role, &m.Content, &m.CreatedAt); err == nil {
					out = append(out, m)
				}
			}
			return out
		}
		logger.L.Warn("sqlite query failed; reading in-memory history", "error", err)
	}
	s.mu.Lock()
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	return out
}

// Transcript returns the session as chat messages, ready to seed a controller.
func (s *Store) Transcript(ctx context.Context, sessionID string) []chat.Message {
	stored := s.List(ctx, sessionID)
	out := make([]chat.Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, m.toChat())
	}
	return out
}

// Close closes the database if it was opened.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
