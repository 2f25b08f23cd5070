package context

import "github.com/stupiduntilnot/recall/internal/history"

// Message is a model-agnostic chat message used across the context pipeline.
type Message struct {
	Role    string
	Content string
}

// FromRecords flattens store records into role-tagged messages. A
// turn-grouped record expands to its user message followed by each reply;
// a partial turn with no replies contributes just the user message.
func FromRecords(records []history.Record) []Message {
	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		if rec.Role != "" {
			messages = append(messages, Message{Role: rec.Role, Content: rec.Content})
			continue
		}
		messages = append(messages, Message{Role: history.RoleUser, Content: rec.UserMessage})
		for _, reply := range rec.AssistantReplies {
			messages = append(messages, Message{Role: history.RoleAssistant, Content: reply})
		}
	}
	return messages
}
