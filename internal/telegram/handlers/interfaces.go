package handlers

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatUsecase runs conversational turns
type ChatUsecase interface {
	Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResult, error)
}

// ConversationUsecase is the subset of conversation bookkeeping used by the bot
type ConversationUsecase interface {
	History(ctx context.Context, id string) (*entity.ConversationHistoryDTO, error)
	Clear(ctx context.Context, id string) error
}

// ConversationBinder remembers which conversation a chat talks to
type ConversationBinder interface {
	ConversationID(chatID int64) string
	StartNew(chatID int64) string
}

// Sender is the part of the telegram API the handlers need. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
