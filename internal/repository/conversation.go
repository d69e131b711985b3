package repository

import (
	"context"
	"sync"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
)

// Conversation is one chat history. Turns are serialized through AcquireTurn;
// the history itself is guarded separately so reads never wait for a running turn.
type Conversation struct {
	id          string
	maxMessages int
	turn        chan struct{}

	mu        sync.RWMutex
	turns     []entity.Turn
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
}

func newConversation(id string, maxMessages int) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		id:          id,
		maxMessages: maxMessages,
		turn:        make(chan struct{}, 1),
		createdAt:   now,
		updatedAt:   now,
	}
}

func (c *Conversation) ID() string {
	return c.id
}

// AcquireTurn blocks until no other turn runs on this conversation or ctx ends.
// The returned func releases the turn and must be called exactly once.
func (c *Conversation) AcquireTurn(ctx context.Context) (func(), error) {
	select {
	case c.turn <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-c.turn }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deleted reports whether the conversation was removed from its registry.
func (c *Conversation) Deleted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deleted
}

func (c *Conversation) markDeleted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = true
}

// History returns a copy of the turns, oldest first.
func (c *Conversation) History() []entity.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// AppendExchange records a completed user/assistant exchange and drops the oldest
// turns beyond the cap. The cap is even, so pairs stay aligned.
func (c *Conversation) AppendExchange(user, assistant string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns,
		entity.Turn{Role: entity.RoleUser, Content: user},
		entity.Turn{Role: entity.RoleAssistant, Content: assistant},
	)
	if c.maxMessages > 0 && len(c.turns) > c.maxMessages {
		trimmed := make([]entity.Turn, c.maxMessages)
		copy(trimmed, c.turns[len(c.turns)-c.maxMessages:])
		c.turns = trimmed
	}
	c.updatedAt = time.Now().UTC()
}

func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.updatedAt = time.Now().UTC()
}

func (c *Conversation) Snapshot() entity.ConversationSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	turns := make([]entity.Turn, len(c.turns))
	copy(turns, c.turns)

	return entity.ConversationSnapshot{
		ID:        c.id,
		Turns:     turns,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
}
