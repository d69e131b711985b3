package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/vitos-assistant/internal/entity"
)

// MaxMessageLength is the telegram limit for one text message.
const MaxMessageLength = 4096

const (
	MsgWelcome = `🍕 Welcome to Vito's Pizza Cafe!

I can help with our menu, orders, delivery and pickup, accounts, payments and discounts.
Just type your question.

/new - start a new conversation
/clear - clear the history of this conversation
/history - show this conversation
/help - show this help`

	MsgNewConversation = "🆕 Started a new conversation. What can I do for you?"
	MsgHistoryCleared  = "🧹 History cleared. The conversation stays open."
	MsgHistoryEmpty    = "📜 No messages in this conversation yet."
	MsgUnknownCommand  = "❌ Unknown command. Use /help"
	MsgUnsupported     = "Please send your question as text."

	ErrGeneric          = "❌ Something went wrong. Please try again."
	ErrRateLimited      = "⚠️ Too many requests. Please wait a little."
	ErrRateLimitedAgain = "⚠️ Rate limit exceeded. Wait about 30 seconds before the next try."
	ErrRateLimitedHard  = "🛑 You are sending requests too often. Please wait a minute."
)

// RenderHistory formats exchanges as a plain text transcript.
func RenderHistory(conversationID string, pairs []entity.ExchangePair) string {
	if len(pairs) == 0 {
		return MsgHistoryEmpty
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 Conversation %s\n", conversationID)
	for i, p := range pairs {
		fmt.Fprintf(&b, "\n%d. 🙋 %s\n   🍕 %s\n", i+1, strings.TrimSpace(p.User), strings.TrimSpace(p.Assistant))
	}
	return b.String()
}

// Split cuts text into pieces that fit a telegram message, preferring line breaks.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
