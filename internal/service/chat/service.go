package chat

import (
	"sync"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
)

// Store is the process-wide, append-only conversation log. Its sequence
// order is the only ordering guarantee shared by every connection.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewStore returns an empty log.
func NewStore() *Store {
	return &Store{messages: make([]chat.Message, 0, 64)}
}

// Append adds message at the end of the log and returns the new length.
func (s *Store) Append(message chat.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
	return len(s.messages)
}

// Snapshot returns a copy of the whole log in append order.
func (s *Store) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Tail returns a copy of the last n messages together with the total count.
func (s *Store) Tail(n int) ([]chat.Message, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.messages)
	if n < 0 {
		n = 0
	}
	if n > total {
		n = total
	}

	copied := make([]chat.Message, n)
	copy(copied, s.messages[total-n:])
	return copied, total
}

// Len reports how many messages have been appended.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
