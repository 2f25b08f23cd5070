// Package gate decides which chats may invoke the agent.
package gate

import (
	"fmt"
	"strconv"
	"strings"
)

// Gate is the stateless authorization predicate evaluated before any turn
// is processed. An empty allow-set authorizes every chat: the gate fails
// open so a fresh deployment works before any IDs are configured.
type Gate struct {
	allowed map[int64]struct{}
}

// New builds a gate from the allowed chat IDs.
func New(chatIDs []int64) *Gate {
	allowed := make(map[int64]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		allowed[id] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// Allowed reports whether the chat may invoke the agent.
func (g *Gate) Allowed(chatID int64) bool {
	if len(g.allowed) == 0 {
		return true
	}
	_, ok := g.allowed[chatID]
	return ok
}

// Size returns the number of configured chat IDs.
func (g *Gate) Size() int {
	return len(g.allowed)
}

// ParseChatIDs parses a comma-separated chat ID list. Surrounding
// brackets and whitespace are tolerated ("[123, 456]" and "123,456" both
// parse); an empty string yields an empty list.
func ParseChatIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
