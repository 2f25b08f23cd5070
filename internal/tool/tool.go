// Package tool defines the tools the model can invoke during a run and
// the registry/runner machinery that dispatches them.
package tool

import (
	"context"
	"encoding/json"

	"github.com/stupiduntilnot/recall/internal/history"
)

// Session carries the per-run state a tool executes against: the chat
// it serves, the open turn, and a way to deliver text to the user.
type Session struct {
	ChatID int64
	Turn   history.TurnHandle
	Send   func(ctx context.Context, text string) error
}

// Tool is the common abstraction for all tools exposed to the model.
type Tool interface {
	Name() string
	Description() string
	ParamsSchema() string
	Validate(raw json.RawMessage) error
	Execute(ctx context.Context, sess *Session, raw json.RawMessage) (string, error)
}
