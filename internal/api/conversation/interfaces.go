package conversation

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
)

type ConversationUsecase interface {
	List(ctx context.Context) []string
	History(ctx context.Context, id string) (*entity.ConversationHistoryDTO, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, id string) error
	Export(ctx context.Context, id string, format entity.ResultFormat) (*entity.ExportFile, error)
}
