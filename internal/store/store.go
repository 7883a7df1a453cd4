// Package store persists chat archives, access grants and user accounts
// in SQLite. Rooms themselves are deliberately not stored: the registry is
// in-memory only and the archive outlives it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ansari/parlor/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("store: user not found")
	ErrUsernameTaken = errors.New("store: username already in use")
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent appends from different rooms independent.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Info().Str("module", "store").Str("path", dbPath).Msg("log store opened")
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chatlogs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		name TEXT NOT NULL,
		message TEXT NOT NULL,
		time TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chatlogs_chat_id ON chatlogs(chat_id);

	CREATE TABLE IF NOT EXISTS logaccess (
		username TEXT NOT NULL,
		chat_id TEXT NOT NULL,
		UNIQUE(username, chat_id)
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		hash TEXT NOT NULL
	);
	`

	_, err := db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Chat log operations

func (s *Store) Append(ctx context.Context, entry domain.LogEntry) error {
	// RFC3339 text keeps timestamps comparable inside SQL aggregates.
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chatlogs (chat_id, name, message, time) VALUES (?, ?, ?, ?)",
		string(entry.ChatID), entry.Name, entry.Message, entry.Time.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) ChatIDExists(ctx context.Context, chatID domain.ChatID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM chatlogs WHERE chat_id = ?", string(chatID),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LogsForChat returns the archived events for one chat id in append order.
func (s *Store) LogsForChat(ctx context.Context, chatID domain.ChatID) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, message FROM chatlogs WHERE chat_id = ? ORDER BY id",
		string(chatID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.Name, &ev.Message); err != nil {
			return nil, err
		}
		logs = append(logs, ev)
	}
	return logs, rows.Err()
}

// Access grant operations

// GrantAccess is idempotent: granting the same pair twice leaves one row.
func (s *Store) GrantAccess(ctx context.Context, username string, chatID domain.ChatID) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO logaccess (username, chat_id) VALUES (?, ?)",
		username, string(chatID),
	)
	return err
}

// RevokeAccess removes the user's grant only; the log entries stay.
func (s *Store) RevokeAccess(ctx context.Context, chatID domain.ChatID, username string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM logaccess WHERE chat_id = ? AND username = ?",
		string(chatID), username,
	)
	return err
}

func (s *Store) HasAccess(ctx context.Context, username string, chatID domain.ChatID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM logaccess WHERE username = ? AND chat_id = ?",
		username, string(chatID),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ChatSummary lists one archived chat for the browsing page.
type ChatSummary struct {
	ChatID  domain.ChatID `json:"chat_id"`
	Started time.Time     `json:"started"`
}

// ChatsForUser returns the chat ids granted to the user with the time of
// each chat's first entry, oldest grant first.
func (s *Store) ChatsForUser(ctx context.Context, username string) ([]ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.chat_id, MIN(c.time)
		FROM logaccess a
		JOIN chatlogs c ON c.chat_id = a.chat_id
		WHERE a.username = ?
		GROUP BY a.chat_id
		ORDER BY MIN(c.time)`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatSummary
	for rows.Next() {
		var (
			id      string
			started string
		)
		if err := rows.Scan(&id, &started); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, err
		}
		out = append(out, ChatSummary{ChatID: domain.ChatID(id), Started: ts})
	}
	return out, rows.Err()
}

// User operations

func (s *Store) CreateUser(ctx context.Context, username, hash string) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (username, hash) VALUES (?, ?)",
		username, hash,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrUsernameTaken
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: id, Username: username}, nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, hash FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Username, &u.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
