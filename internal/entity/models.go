package entity

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a conversation
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationSnapshot is a read-only copy of a conversation state
type ConversationSnapshot struct {
	ID        string    `json:"conversation_id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExchangePair is a user message together with the assistant answer to it
type ExchangePair struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Pairs folds turns into user/assistant pairs. A trailing unpaired turn is omitted.
func Pairs(turns []Turn) []ExchangePair {
	pairs := make([]ExchangePair, 0, len(turns)/2)
	for i := 0; i+1 < len(turns); i += 2 {
		pairs = append(pairs, ExchangePair{
			User:      turns[i].Content,
			Assistant: turns[i+1].Content,
		})
	}
	return pairs
}
