package middleware

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *countingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func textUpdate(userID int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: "hi",
	}}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	sender := &countingSender{}
	rl := NewRateLimiterMiddleware(60, 2, zap.NewNop(), sender)
	defer rl.Close()

	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	calls := 0
	next := func(tgbotapi.Update) { calls++ }

	for i := 0; i < 3; i++ {
		rl.Handle(textUpdate(1), next)
	}
	assert.Equal(t, 2, calls)
	assert.Len(t, sender.texts, 1)

	// other users have their own bucket
	rl.Handle(textUpdate(2), next)
	assert.Equal(t, 3, calls)

	now = now.Add(time.Second)
	rl.Handle(textUpdate(1), next)
	assert.Equal(t, 4, calls)
}

func TestRecovery_SendsErrorOnPanic(t *testing.T) {
	sender := &countingSender{}
	m := NewRecoveryMiddleware(zap.NewNop(), sender)

	assert.NotPanics(t, func() {
		m.Handle(textUpdate(5), func(tgbotapi.Update) { panic("boom") })
	})
	assert.Len(t, sender.texts, 1)
}
