package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageStore is the message-grouped schema: one immutable row per
// message, tagged with a role. The FTS index is kept in sync by triggers.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore wraps an open database in a message-grouped store.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id);
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
			content,
			tokenize='porter unicode61'
		);

		CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
			INSERT INTO messages_fts(rowid, content) VALUES (NEW.id, NEW.content);
		END;
		CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
			DELETE FROM messages_fts WHERE rowid = OLD.id;
		END;
	`)
	if err != nil {
		return storageErr("init messages schema", err)
	}
	return nil
}

func (s *MessageStore) AppendUserMessage(ctx context.Context, chatID int64, text string) (TurnHandle, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`,
		chatID, RoleUser, text,
	)
	if err != nil {
		return TurnHandle{}, storageErr("insert user message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TurnHandle{}, storageErr("read inserted message id", err)
	}
	return TurnHandle{ChatID: chatID, TurnID: id}, nil
}

func (s *MessageStore) AppendAssistantReply(ctx context.Context, handle TurnHandle, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`,
		handle.ChatID, RoleAssistant, text,
	)
	if err != nil {
		return storageErr("insert assistant reply", err)
	}
	return nil
}

func (s *MessageStore) Search(ctx context.Context, q Query) ([]Record, error) {
	turnRange, hasRange, err := q.rangeOf()
	if err != nil {
		return nil, err
	}

	query := `SELECT role, content, created_at FROM messages WHERE chat_id = ?`
	args := []any{q.ChatID}
	if since, bounded := q.since(time.Now()); bounded {
		query += ` AND created_at >= ?`
		args = append(args, since.Unix())
	}
	if q.Role != "" {
		query += ` AND role = ?`
		args = append(args, q.Role)
	}
	if match := matchExpression(q.Terms); match != "" {
		query += ` AND id IN (SELECT rowid FROM messages_fts WHERE messages_fts MATCH ?)`
		args = append(args, match)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.Role, &rec.Content, &createdAt); err != nil {
			return nil, storageErr("scan message row", err)
		}
		rec.Timestamp = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate message rows", err)
	}

	return window(records, turnRange, hasRange, q.limit()), nil
}

func (s *MessageStore) Close() error {
	return s.db.Close()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
