package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TurnStore is the turn-grouped schema: one row per user message with its
// assistant replies as a JSON array. Replies mutate the row, so the FTS
// index is maintained here instead of by triggers.
type TurnStore struct {
	db *sql.DB
}

// NewTurnStore wraps an open database in a turn-grouped store.
func NewTurnStore(db *sql.DB) *TurnStore {
	return &TurnStore{db: db}
}

func (s *TurnStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			user_message TEXT NOT NULL,
			assistant_replies TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS idx_turns_chat_id ON turns(chat_id);
		CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
			user_message,
			replies,
			tokenize='porter unicode61'
		);
	`)
	if err != nil {
		return storageErr("init turns schema", err)
	}
	return nil
}

func (s *TurnStore) AppendUserMessage(ctx context.Context, chatID int64, text string) (TurnHandle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TurnHandle{}, storageErr("begin turn insert", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO turns (chat_id, user_message) VALUES (?, ?)`,
		chatID, text,
	)
	if err != nil {
		return TurnHandle{}, storageErr("insert turn", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TurnHandle{}, storageErr("read inserted turn id", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns_fts (rowid, user_message, replies) VALUES (?, ?, '')`,
		id, text,
	); err != nil {
		return TurnHandle{}, storageErr("index turn", err)
	}
	if err := tx.Commit(); err != nil {
		return TurnHandle{}, storageErr("commit turn insert", err)
	}
	return TurnHandle{ChatID: chatID, TurnID: id}, nil
}

func (s *TurnStore) AppendAssistantReply(ctx context.Context, handle TurnHandle, text string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin reply append", err)
	}
	defer tx.Rollback()

	var repliesJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT assistant_replies FROM turns WHERE id = ? AND chat_id = ?`,
		handle.TurnID, handle.ChatID,
	).Scan(&repliesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("turn %d not found for chat %d", handle.TurnID, handle.ChatID)
	}
	if err != nil {
		return storageErr("read turn replies", err)
	}

	var replies []string
	if err := json.Unmarshal([]byte(repliesJSON), &replies); err != nil {
		return fmt.Errorf("corrupt assistant_replies on turn %d: %w", handle.TurnID, err)
	}
	replies = append(replies, text)
	updated, err := json.Marshal(replies)
	if err != nil {
		return fmt.Errorf("marshal assistant_replies: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE turns SET assistant_replies = ? WHERE id = ?`,
		string(updated), handle.TurnID,
	); err != nil {
		return storageErr("update turn replies", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE turns_fts SET replies = ? WHERE rowid = ?`,
		strings.Join(replies, "\n"), handle.TurnID,
	); err != nil {
		return storageErr("reindex turn replies", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit reply append", err)
	}
	return nil
}

func (s *TurnStore) Search(ctx context.Context, q Query) ([]Record, error) {
	turnRange, hasRange, err := q.rangeOf()
	if err != nil {
		return nil, err
	}
	if q.Role != "" {
		return nil, fmt.Errorf("%w: role_filter is not supported by the turn-grouped schema", ErrInvalidQuery)
	}

	query := `SELECT user_message, assistant_replies, created_at FROM turns WHERE chat_id = ?`
	args := []any{q.ChatID}
	if since, bounded := q.since(time.Now()); bounded {
		query += ` AND created_at >= ?`
		args = append(args, since.Unix())
	}
	if match := matchExpression(q.Terms); match != "" {
		query += ` AND id IN (SELECT rowid FROM turns_fts WHERE turns_fts MATCH ?)`
		args = append(args, match)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query turns", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var repliesJSON string
		var createdAt int64
		if err := rows.Scan(&rec.UserMessage, &repliesJSON, &createdAt); err != nil {
			return nil, storageErr("scan turn row", err)
		}
		if err := json.Unmarshal([]byte(repliesJSON), &rec.AssistantReplies); err != nil {
			return nil, fmt.Errorf("corrupt assistant_replies in chat %d: %w", q.ChatID, err)
		}
		rec.Timestamp = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate turn rows", err)
	}

	return window(records, turnRange, hasRange, q.limit()), nil
}

func (s *TurnStore) Close() error {
	return s.db.Close()
}
