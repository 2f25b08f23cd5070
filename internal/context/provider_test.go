package context

import (
	stdctx "context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stupiduntilnot/recall/internal/history"
)

func setupStore(t *testing.T, variant history.Variant) history.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := history.NewStore(db, variant)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InitSchema(stdctx.Background()); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestStoreProvider_GetHistory(t *testing.T) {
	ctx := stdctx.Background()
	store := setupStore(t, history.VariantTurns)

	turn, err := store.AppendUserMessage(ctx, 1, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AppendAssistantReply(ctx, turn, "hi there"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendUserMessage(ctx, 1, "how are you"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendUserMessage(ctx, 2, "other chat"); err != nil {
		t.Fatal(err)
	}

	p := &StoreProvider{Store: store, Window: 10}

	msgs, err := p.GetHistory(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// Chronological order: user, assistant, user.
	if msgs[0].Role != history.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != history.RoleAssistant || msgs[1].Content != "hi there" {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
	if msgs[2].Content != "how are you" {
		t.Errorf("expected third message 'how are you', got %q", msgs[2].Content)
	}
}

func TestStoreProvider_Window(t *testing.T) {
	ctx := stdctx.Background()
	store := setupStore(t, history.VariantMessages)

	for _, text := range []string{"one", "two", "three", "four"} {
		if _, err := store.AppendUserMessage(ctx, 1, text); err != nil {
			t.Fatal(err)
		}
	}

	p := &StoreProvider{Store: store, Window: 2}
	msgs, err := p.GetHistory(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "three" || msgs[1].Content != "four" {
		t.Errorf("expected the two most recent messages, got %+v", msgs)
	}
}

func TestStoreProvider_EmptyChat(t *testing.T) {
	ctx := stdctx.Background()
	store := setupStore(t, history.VariantTurns)

	p := &StoreProvider{Store: store, Window: 10}
	msgs, err := p.GetHistory(ctx, 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}
