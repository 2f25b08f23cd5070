package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stupiduntilnot/recall/internal/history"
)

// GetChatHistoryInput describes the retrieval parameters the model may
// pass. All fields are optional; an empty call returns the most recent
// turns up to the default limit.
type GetChatHistoryInput struct {
	Limit      *int     `json:"limit,omitempty"`
	Turns      string   `json:"turns,omitempty"`
	StartTurn  *int     `json:"start_turn,omitempty"`
	EndTurn    *int     `json:"end_turn,omitempty"`
	Query      []string `json:"query,omitempty"`
	Days       *int     `json:"days,omitempty"`
	RoleFilter string   `json:"role_filter,omitempty"`
}

// GetChatHistory retrieves stored conversation turns for the current
// chat with optional range, keyword, time-window, and role filters.
type GetChatHistory struct {
	Store history.Store
}

func NewGetChatHistory(store history.Store) *GetChatHistory {
	return &GetChatHistory{Store: store}
}

func (t *GetChatHistory) Name() string { return "get_chat_history" }

func (t *GetChatHistory) Description() string {
	return "Retrieve stored conversation history for this chat. " +
		"Filters: limit (most recent N), turns (slice like \"-5:\" or \"10:20\"), " +
		"start_turn/end_turn (negative counts from the end), " +
		"query (list of search terms, any may match), days (lookback window), " +
		"role_filter (user or assistant)."
}

func (t *GetChatHistory) ParamsSchema() string {
	return `{"limit": "int?", "turns": "string?", "start_turn": "int?", "end_turn": "int?", "query": "[string]?", "days": "int?", "role_filter": "string?"}`
}

func (t *GetChatHistory) Validate(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var in GetChatHistoryInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("invalid get_chat_history input: %w", err)
	}
	return nil
}

func (t *GetChatHistory) Execute(ctx context.Context, sess *Session, raw json.RawMessage) (string, error) {
	var in GetChatHistoryInput
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Sprintf("error: invalid get_chat_history input: %v", err), nil
		}
	}

	terms := make([]string, 0, len(in.Query))
	for _, q := range in.Query {
		if s := strings.TrimSpace(q); s != "" {
			terms = append(terms, s)
		}
	}

	records, err := t.Store.Search(ctx, history.Query{
		ChatID:    sess.ChatID,
		Limit:     in.Limit,
		StartTurn: in.StartTurn,
		EndTurn:   in.EndTurn,
		Slice:     in.Turns,
		Terms:     terms,
		Days:      in.Days,
		Role:      in.RoleFilter,
	})
	if err != nil {
		// Bad parameters go back to the model as text so it can
		// correct the call; storage trouble aborts the run.
		if errors.Is(err, history.ErrInvalidQuery) {
			return fmt.Sprintf("error: %v", err), nil
		}
		return "", err
	}

	if len(records) == 0 {
		return "no matching history", nil
	}
	out, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode history records: %w", err)
	}
	return string(out), nil
}
