package context

import (
	stdctx "context"

	"github.com/stupiduntilnot/recall/internal/history"
)

// StoreProvider reads recent conversation history from the turn store.
type StoreProvider struct {
	Store  history.Store
	Window int
}

// GetHistory returns the most recent Window records for the chat,
// flattened to messages in chronological order.
func (p *StoreProvider) GetHistory(ctx stdctx.Context, chatID int64) ([]Message, error) {
	limit := p.Window
	records, err := p.Store.Search(ctx, history.Query{
		ChatID: chatID,
		Limit:  &limit,
	})
	if err != nil {
		return nil, err
	}
	return FromRecords(records), nil
}
