package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newMessageStore(t *testing.T) *MessageStore {
	t.Helper()
	s := NewMessageStore(openTestDB(t))
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func newTurnStore(t *testing.T) *TurnStore {
	t.Helper()
	s := NewTurnStore(openTestDB(t))
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

// backdate rewrites a record's creation time, which the append API never
// exposes, so tests can exercise the days window.
func backdate(t *testing.T, db *sql.DB, table string, id int64, at time.Time) {
	t.Helper()
	_, err := db.Exec(`UPDATE `+table+` SET created_at = ? WHERE id = ?`, at.Unix(), id)
	require.NoError(t, err)
}

func addExchange(t *testing.T, s Store, chatID int64, userMsg string, replies ...string) TurnHandle {
	t.Helper()
	ctx := context.Background()
	handle, err := s.AppendUserMessage(ctx, chatID, userMsg)
	require.NoError(t, err)
	for _, reply := range replies {
		require.NoError(t, s.AppendAssistantReply(ctx, handle, reply))
	}
	return handle
}
