package context

// BudgetCompressor bounds the history handed to the model. It caps the
// number of messages and then trims further until an estimated token
// count fits the budget, always dropping from the oldest end. The most
// recent message is never dropped.
type BudgetCompressor struct {
	MaxMessages int
	TokenBudget int
}

// Compress truncates messages to fit MaxMessages and TokenBudget.
// A zero or negative limit disables that bound.
func (c *BudgetCompressor) Compress(messages []Message) []Message {
	out := messages
	if c.MaxMessages > 0 && len(out) > c.MaxMessages {
		out = out[len(out)-c.MaxMessages:]
	}
	if c.TokenBudget > 0 {
		for len(out) > 1 && estimateTokens(out) > c.TokenBudget {
			out = out[1:]
		}
	}
	return out
}

// estimateTokens approximates token usage as one token per four
// characters of content.
func estimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total
}
