package state

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Manager maps telegram chats to conversation ids. A chat keeps talking to the
// same conversation until /new switches it to a fresh one.
type Manager struct {
	mu    sync.Mutex
	chats *cache.Cache
}

func NewManager() *Manager {
	return &Manager{
		chats: cache.New(cache.NoExpiration, 0),
	}
}

// ConversationID returns the conversation bound to chatID, binding the
// chat's default conversation on first use.
func (m *Manager) ConversationID(chatID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := chatKey(chatID)
	if v, ok := m.chats.Get(key); ok {
		return v.(string)
	}

	id := DefaultConversationID(chatID)
	m.chats.Set(key, id, cache.NoExpiration)
	return id
}

// StartNew binds chatID to a freshly generated conversation id and returns it.
func (m *Manager) StartNew(chatID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("tg-%d-%s", chatID, uuid.NewString()[:8])
	m.chats.Set(chatKey(chatID), id, cache.NoExpiration)
	return id
}

func DefaultConversationID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
