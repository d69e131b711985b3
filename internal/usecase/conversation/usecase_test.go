package conversation

import (
	"context"
	"testing"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/formatter"
	"github.com/futig/vitos-assistant/internal/pkg/validator"
	"github.com/futig/vitos-assistant/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUsecase() (*ConversationUsecase, *repository.ConversationMemoryRepository) {
	repo := repository.NewConversationMemoryRepository(20, 0, zap.NewNop())
	return NewUsecase(repo, formatter.NewFactory(), validator.New(), zap.NewNop()), repo
}

func TestHistory_UnknownIDIsEmpty(t *testing.T) {
	uc, repo := newUsecase()

	h, err := uc.History(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", h.ConversationID)
	assert.Empty(t, h.Messages)
	assert.Equal(t, []string{"fresh"}, repo.List())
}

func TestHistory_ReturnsPairs(t *testing.T) {
	uc, repo := newUsecase()
	repo.GetOrCreate("c").AppendExchange("hello", "hi there")

	h, err := uc.History(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []entity.ExchangePair{{User: "hello", Assistant: "hi there"}}, h.Messages)
}

func TestDelete(t *testing.T) {
	uc, repo := newUsecase()
	repo.GetOrCreate("c")

	require.NoError(t, uc.Delete(context.Background(), "c"))
	assert.Empty(t, uc.List(context.Background()))

	err := uc.Delete(context.Background(), "c")
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)
}

func TestClear_KeepsID(t *testing.T) {
	uc, repo := newUsecase()
	for i := 0; i < 3; i++ {
		repo.GetOrCreate("c").AppendExchange("q", "a")
	}

	require.NoError(t, uc.Clear(context.Background(), "c"))
	require.NoError(t, uc.Clear(context.Background(), "c"))

	h, err := uc.History(context.Background(), "c")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
	assert.Contains(t, uc.List(context.Background()), "c")
}

func TestExport(t *testing.T) {
	uc, repo := newUsecase()
	repo.GetOrCreate("c").AppendExchange("What's on the menu?", "Pizza.")

	file, err := uc.Export(context.Background(), "c", entity.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "conversation-c.md", file.FileName)
	assert.Contains(t, file.ContentType, "text/markdown")
	assert.Contains(t, string(file.Content), "What's on the menu?")

	_, err = uc.Export(context.Background(), "missing", entity.FormatMarkdown)
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)

	_, err = uc.Export(context.Background(), "c", entity.ResultFormat("xml"))
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)

	_, err = uc.Export(context.Background(), "c", entity.FormatDOCX)
	assert.ErrorIs(t, err, entity.ErrFormatUnavailable)
}

func TestValidation(t *testing.T) {
	uc, _ := newUsecase()

	_, err := uc.History(context.Background(), " ")
	assert.ErrorIs(t, err, entity.ErrMissingField)

	err = uc.Clear(context.Background(), "bad\nid")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}
