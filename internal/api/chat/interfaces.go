package chat

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
)

type ChatUsecase interface {
	Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResult, error)
}
