package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stupiduntilnot/recall/internal/history"
)

// ReplyToUserInput carries the message text to deliver.
type ReplyToUserInput struct {
	Message string `json:"message"`
}

// ReplyToUser delivers a message to the user mid-run and records it in
// the open turn. A run may call it several times; replies are stored in
// emission order.
type ReplyToUser struct {
	Store history.Store
}

func NewReplyToUser(store history.Store) *ReplyToUser {
	return &ReplyToUser{Store: store}
}

func (t *ReplyToUser) Name() string { return "reply_to_user" }

func (t *ReplyToUser) Description() string {
	return "Send a message to the user. Use this to deliver your answer; " +
		"you may call it more than once for long or multi-part answers."
}

func (t *ReplyToUser) ParamsSchema() string {
	return `{"message": "string"}`
}

func (t *ReplyToUser) Validate(raw json.RawMessage) error {
	var in ReplyToUserInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("invalid reply_to_user input: %w", err)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("reply_to_user.message is required")
	}
	return nil
}

func (t *ReplyToUser) Execute(ctx context.Context, sess *Session, raw json.RawMessage) (string, error) {
	var in ReplyToUserInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Sprintf("error: invalid reply_to_user input: %v", err), nil
	}
	if sess == nil || sess.Send == nil {
		return "", fmt.Errorf("reply_to_user has no delivery channel")
	}

	if err := sess.Send(ctx, in.Message); err != nil {
		return "", fmt.Errorf("failed to deliver reply: %w", err)
	}
	// Delivery happened; a persistence failure still aborts the run so
	// the caller can log the divergence.
	if err := t.Store.AppendAssistantReply(ctx, sess.Turn, in.Message); err != nil {
		return "", err
	}
	return "message delivered", nil
}
