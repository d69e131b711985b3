package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/logger"
	"github.com/futig/vitos-assistant/internal/telegram/keyboard"
	"github.com/futig/vitos-assistant/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatHandler answers commands and forwards free text to the chat pipeline
type ChatHandler struct {
	bot           Sender
	chatUC        ChatUsecase
	conversations ConversationUsecase
	binder        ConversationBinder
	keyboard      *keyboard.Builder
	messageSender *MessageSender
	logger        *zap.Logger
}

func NewChatHandler(
	bot Sender,
	chatUC ChatUsecase,
	conversations ConversationUsecase,
	binder ConversationBinder,
	kb *keyboard.Builder,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		bot:           bot,
		chatUC:        chatUC,
		conversations: conversations,
		binder:        binder,
		keyboard:      kb,
		messageSender: NewMessageSender(bot, logger),
		logger:        logger,
	}
}

// Handle implements Handler
func (h *ChatHandler) Handle(ctx context.Context, msg *Message) error {
	command := msg.Command
	if command == "" {
		if c, ok := keyboard.CommandFor(strings.TrimSpace(msg.Text)); ok {
			command = c
		}
	}

	conversationID := h.binder.ConversationID(msg.ChatID)
	ctx = logger.AddFields(ctx,
		zap.Int64("chat_id", msg.ChatID),
		zap.String("conversation_id", conversationID),
	)

	switch command {
	case "":
		return h.handleText(ctx, msg, conversationID)
	case "start", "help":
		return h.messageSender.Send(msg.ChatID, render.MsgWelcome, h.keyboard.MainMenu())
	case "new":
		id := h.binder.StartNew(msg.ChatID)
		ctxzap.Info(ctx, "new conversation started", zap.String("new_conversation_id", id))
		return h.messageSender.Send(msg.ChatID, render.MsgNewConversation, nil)
	case "clear":
		if err := h.conversations.Clear(ctx, conversationID); err != nil {
			return fmt.Errorf("clear conversation: %w", err)
		}
		return h.messageSender.Send(msg.ChatID, render.MsgHistoryCleared, nil)
	case "history":
		history, err := h.conversations.History(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		return h.messageSender.Send(msg.ChatID, render.RenderHistory(conversationID, history.Messages), nil)
	default:
		return h.messageSender.Send(msg.ChatID, render.MsgUnknownCommand, nil)
	}
}

func (h *ChatHandler) handleText(ctx context.Context, msg *Message, conversationID string) error {
	if strings.TrimSpace(msg.Text) == "" {
		return h.messageSender.Send(msg.ChatID, render.MsgUnsupported, nil)
	}

	ctx = logger.WithAction(ctx, "TelegramChat")

	typing := NewTypingNotifier(h.bot, msg.ChatID, h.logger)
	typing.Start(ctx)
	result, err := h.chatUC.Chat(ctx, &entity.ChatRequest{
		Message:        msg.Text,
		ConversationID: conversationID,
	})
	typing.Stop()
	if err != nil {
		return fmt.Errorf("chat turn: %w", err)
	}

	ctxzap.Info(ctx, "telegram turn finished", zap.String("outcome", string(result.Outcome)))

	return h.messageSender.Send(msg.ChatID, result.Response, nil)
}
