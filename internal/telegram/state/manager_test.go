package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_DefaultBinding(t *testing.T) {
	m := NewManager()

	assert.Equal(t, "tg-42", m.ConversationID(42))
	assert.Equal(t, "tg-42", m.ConversationID(42))
	assert.Equal(t, "tg--7", m.ConversationID(-7))
}

func TestManager_StartNew(t *testing.T) {
	m := NewManager()

	first := m.StartNew(42)
	assert.True(t, strings.HasPrefix(first, "tg-42-"))
	assert.Equal(t, first, m.ConversationID(42))

	second := m.StartNew(42)
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, m.ConversationID(42))
	assert.Equal(t, "tg-1", m.ConversationID(1))
}
