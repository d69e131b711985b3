package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ConversationRepository is the registry of live conversations.
type ConversationRepository interface {
	GetOrCreate(id string) *Conversation
	Get(id string) (*Conversation, error)
	Acquire(ctx context.Context, id string) (*Conversation, func(), error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context, id string) error
	List() []string
}

var _ ConversationRepository = (*ConversationMemoryRepository)(nil)

// ConversationMemoryRepository keeps conversations in process memory.
// With a positive ttl a conversation idle for longer than ttl is dropped.
type ConversationMemoryRepository struct {
	mu          sync.Mutex
	items       *cache.Cache
	ttl         time.Duration
	maxMessages int
	logger      *zap.Logger
}

func NewConversationMemoryRepository(maxMessages int, ttl time.Duration, logger *zap.Logger) *ConversationMemoryRepository {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
		if cleanup < time.Second {
			cleanup = time.Second
		}
	}

	items := cache.New(expiration, cleanup)
	items.OnEvicted(func(id string, _ any) {
		logger.Debug("conversation evicted", zap.String("conversation_id", id))
	})

	return &ConversationMemoryRepository{
		items:       items,
		ttl:         ttl,
		maxMessages: maxMessages,
		logger:      logger,
	}
}

// GetOrCreate returns the conversation for id, creating an empty one on first use.
// Concurrent first calls for the same id get the same conversation.
func (r *ConversationMemoryRepository) GetOrCreate(id string) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.items.Get(id); ok {
		conv := v.(*Conversation)
		r.touch(id, conv)
		return conv
	}

	conv := newConversation(id, r.maxMessages)
	if err := r.items.Add(id, conv, cache.DefaultExpiration); err != nil {
		// only possible if an expired entry is still being replaced
		r.items.Set(id, conv, cache.DefaultExpiration)
	}

	r.logger.Info("conversation created", zap.String("conversation_id", id))
	return conv
}

func (r *ConversationMemoryRepository) Get(id string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}

	conv := v.(*Conversation)
	r.touch(id, conv)
	return conv, nil
}

// Acquire resolves id (creating it if needed) and takes its turn lock. If the
// conversation is deleted while waiting, the lock is dropped and the id is
// resolved again, so the caller never holds an orphaned conversation.
func (r *ConversationMemoryRepository) Acquire(ctx context.Context, id string) (*Conversation, func(), error) {
	for {
		conv := r.GetOrCreate(id)
		release, err := conv.AcquireTurn(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !conv.Deleted() {
			return conv, release, nil
		}
		release()
	}
}

// Delete removes the conversation and reports whether it existed. It waits for
// a running turn on the conversation to finish first.
func (r *ConversationMemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	conv, ok := r.lookup(id)
	if !ok {
		return false, nil
	}

	release, err := conv.AcquireTurn(ctx)
	if err != nil {
		return false, fmt.Errorf("wait for running turn: %w", err)
	}
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	// a concurrent delete may have won the race while we waited
	if current, ok := r.items.Get(id); !ok || current.(*Conversation) != conv {
		return false, nil
	}
	r.items.Delete(id)
	conv.markDeleted()

	r.logger.Info("conversation deleted", zap.String("conversation_id", id))
	return true, nil
}

// Clear empties the history of id and keeps the id resolvable. An unknown id
// is created first, so the result is the same either way. A running turn on
// the conversation finishes before the history is emptied.
func (r *ConversationMemoryRepository) Clear(ctx context.Context, id string) error {
	conv, release, err := r.Acquire(ctx, id)
	if err != nil {
		return fmt.Errorf("wait for running turn: %w", err)
	}
	defer release()

	conv.Clear()
	r.logger.Info("conversation cleared", zap.String("conversation_id", id))
	return nil
}

// List returns the ids of live conversations in lexical order.
func (r *ConversationMemoryRepository) List() []string {
	items := r.items.Items()

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *ConversationMemoryRepository) lookup(id string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Conversation), true
}

func (r *ConversationMemoryRepository) touch(id string, conv *Conversation) {
	if r.ttl > 0 {
		r.items.Set(id, conv, cache.DefaultExpiration)
	}
}
