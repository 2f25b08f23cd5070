package context

// StandardAssembler produces the message list sent to the model:
// system prompt first, stored history in order, the new user message
// last. A partial turn in history (user message without replies) is
// fine; it simply contributes one message.
type StandardAssembler struct{}

func (a *StandardAssembler) Assemble(system string, history []Message, userMsg string) []Message {
	messages := make([]Message, 0, 1+len(history)+1)
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMsg})
	return messages
}
