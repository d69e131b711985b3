package entity

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type ConversationHistoryDTO struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []ExchangePair `json:"messages"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ChatOutcome describes how a turn ended
type ChatOutcome string

const (
	ChatOutcomeAnswered   ChatOutcome = "answered"
	ChatOutcomeBlocked    ChatOutcome = "blocked"
	ChatOutcomeIncomplete ChatOutcome = "incomplete"
	ChatOutcomeFailed     ChatOutcome = "failed"
)

// ChatResult is the orchestrator answer for a single turn
type ChatResult struct {
	ConversationID string
	Response       string
	Outcome        ChatOutcome
}
