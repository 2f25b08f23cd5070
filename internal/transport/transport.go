// Package transport is the chat transport boundary. The agent only ever
// sees this interface; Telegram specifics stay in their own package.
package transport

import "context"

// Transport delivers updates from and replies to the messaging platform.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Typing is implemented by transports that can show an activity indicator
// while a reply is being produced.
type Typing interface {
	SendTyping(ctx context.Context, chatID int64) error
}

// Update represents one incoming transport event.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message represents an inbound message.
type Message struct {
	Chat Chat    `json:"chat"`
	Text *string `json:"text,omitempty"`
	Date int64   `json:"date"`
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}
