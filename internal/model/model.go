// Package model abstracts the language-model endpoint.
package model

import (
	"context"

	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
)

// CompletionResponse is the common response model for model providers.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Provider is the model provider abstraction used by the agent runner.
// Implementations must honor ctx cancellation: a timed-out call returns
// promptly and the caller appends no assistant reply.
type Provider interface {
	ChatCompletion(ctx context.Context, messages []ctxpkg.Message) (CompletionResponse, error)
}
