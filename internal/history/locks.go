package history

import "sync"

// ChatLocks serializes processing per chat: at most one turn runs for a
// chat at a time, and different chats never block one another. Lock
// acquisition is not FIFO, so receipt ordering is the dispatcher's job.
type ChatLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewChatLocks() *ChatLocks {
	return &ChatLocks{locks: map[int64]*sync.Mutex{}}
}

// Lock acquires the chat's lock and returns the matching unlock func.
func (l *ChatLocks) Lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
