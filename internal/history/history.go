// Package history is the durable conversation store and its query engine.
// Two schema variants exist: turn-grouped (one row per user message plus
// the replies it produced) and message-grouped (one immutable row per
// message). Both implement Store; the variant is chosen at startup.
package history

import (
	"context"
	"time"
)

// Variant selects the persisted schema shape.
type Variant string

const (
	// VariantTurns groups a user message and its assistant replies in one row.
	VariantTurns Variant = "turns"
	// VariantMessages stores one row per message with an explicit role.
	VariantMessages Variant = "messages"
)

// Role values for message-grouped records.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TurnHandle identifies the turn a reply should attach to. For the
// message-grouped schema only ChatID is meaningful.
type TurnHandle struct {
	ChatID int64
	TurnID int64
}

// Record is one query result. Message-grouped stores populate Role and
// Content; turn-grouped stores populate UserMessage and AssistantReplies.
// Timestamp is always set.
type Record struct {
	Role             string    `json:"role,omitempty"`
	Content          string    `json:"content,omitempty"`
	UserMessage      string    `json:"user_message,omitempty"`
	AssistantReplies []string  `json:"assistant_replies,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Store is the durable append-only conversation store. All reads and
// writes are scoped to a single chat; there is no cross-chat access path.
type Store interface {
	// InitSchema provisions tables and indexes. Idempotent.
	InitSchema(ctx context.Context) error

	// AppendUserMessage opens a new turn for the chat.
	AppendUserMessage(ctx context.Context, chatID int64, text string) (TurnHandle, error)

	// AppendAssistantReply attaches one reply to the turn, preserving
	// emission order when called repeatedly.
	AppendAssistantReply(ctx context.Context, handle TurnHandle, text string) error

	// Search resolves a query into a bounded, chronologically ascending
	// record list. An empty result is not an error.
	Search(ctx context.Context, q Query) ([]Record, error)

	Close() error
}
