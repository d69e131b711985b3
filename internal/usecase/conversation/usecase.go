package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/formatter"
	"github.com/futig/vitos-assistant/internal/pkg/validator"
	"github.com/futig/vitos-assistant/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ConversationUsecase implements the bookkeeping operations on conversations
type ConversationUsecase struct {
	conversations repository.ConversationRepository
	formatters    FormatterFactory
	validator     *validator.Validator
	logger        *zap.Logger
}

func NewUsecase(
	conversations repository.ConversationRepository,
	formatters FormatterFactory,
	validator *validator.Validator,
	logger *zap.Logger,
) *ConversationUsecase {
	return &ConversationUsecase{
		conversations: conversations,
		formatters:    formatters,
		validator:     validator,
		logger:        logger,
	}
}

// List returns the ids of all live conversations
func (uc *ConversationUsecase) List(ctx context.Context) []string {
	ids := uc.conversations.List()
	ctxzap.Debug(ctx, "conversations listed", zap.Int("count", len(ids)))
	return ids
}

// History returns the paired exchanges of a conversation. An unknown id
// resolves to a fresh, empty conversation.
func (uc *ConversationUsecase) History(ctx context.Context, id string) (*entity.ConversationHistoryDTO, error) {
	if err := uc.validator.ValidateConversationID(id); err != nil {
		return nil, err
	}

	pairs := entity.Pairs(uc.conversations.GetOrCreate(id).History())
	ctxzap.Debug(ctx, "history fetched", zap.Int("pairs", len(pairs)))

	return &entity.ConversationHistoryDTO{
		ConversationID: id,
		Messages:       pairs,
	}, nil
}

// Delete removes a conversation. Unknown ids yield ErrConversationNotFound.
func (uc *ConversationUsecase) Delete(ctx context.Context, id string) error {
	if err := uc.validator.ValidateConversationID(id); err != nil {
		return err
	}
	deleted, err := uc.conversations.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("delete %s: %w", id, entity.ErrConversationNotFound)
	}

	ctxzap.Info(ctx, "conversation deleted")
	return nil
}

func (uc *ConversationUsecase) Clear(ctx context.Context, id string) error {
	if err := uc.validator.ValidateConversationID(id); err != nil {
		return err
	}
	if err := uc.conversations.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}

	ctxzap.Info(ctx, "conversation history cleared")
	return nil
}

// Export renders the transcript of an existing conversation in the requested format.
func (uc *ConversationUsecase) Export(ctx context.Context, id string, format entity.ResultFormat) (*entity.ExportFile, error) {
	if err := uc.validator.ValidateConversationID(id); err != nil {
		return nil, err
	}

	conv, err := uc.conversations.Get(id)
	if err != nil {
		return nil, err
	}

	fmtr, err := uc.formatters.Create(format)
	if err != nil {
		return nil, fmt.Errorf("create formatter: %w", err)
	}

	snapshot := conv.Snapshot()
	transcript := formatter.Transcript{
		ConversationID: snapshot.ID,
		StartedAt:      snapshot.CreatedAt,
		ExportedAt:     time.Now().UTC(),
		Exchanges:      entity.Pairs(snapshot.Turns),
	}

	content, err := fmtr.Format(transcript)
	if err != nil {
		return nil, fmt.Errorf("format transcript as %s: %w", format, err)
	}

	ctxzap.Info(ctx, "conversation exported",
		zap.String("format", string(format)),
		zap.Int("pairs", len(transcript.Exchanges)),
		zap.Int("bytes", len(content)),
	)

	return &entity.ExportFile{
		FileName:    fmt.Sprintf("conversation-%s%s", id, fmtr.FileExtension()),
		ContentType: fmtr.ContentType(),
		Content:     content,
	}, nil
}
