package telegram

import (
	"context"
	"fmt"

	"github.com/futig/vitos-assistant/internal/config"
	"github.com/futig/vitos-assistant/internal/telegram/bot"
	"github.com/futig/vitos-assistant/internal/telegram/handlers"
	"github.com/futig/vitos-assistant/internal/telegram/keyboard"
	"github.com/futig/vitos-assistant/internal/telegram/state"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	chatUC handlers.ChatUsecase,
	conversationUC handlers.ConversationUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.SetHandler(handlers.NewChatHandler(
		b.API(),
		chatUC,
		conversationUC,
		state.NewManager(),
		keyboard.NewBuilder(),
		logger,
	))

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
