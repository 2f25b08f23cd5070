// Package context assembles the working context window handed to the
// language model from stored conversation history.
package context

import (
	stdctx "context"
)

// Provider retrieves conversation history for one chat.
type Provider interface {
	GetHistory(ctx stdctx.Context, chatID int64) ([]Message, error)
}

// Compressor reduces a message list to fit within budget constraints.
type Compressor interface {
	Compress(messages []Message) []Message
}

// Assembler combines system prompt, history, and user message into a
// final message list.
type Assembler interface {
	Assemble(system string, history []Message, userMsg string) []Message
}
