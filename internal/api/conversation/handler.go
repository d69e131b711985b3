package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/logger"
	"github.com/futig/vitos-assistant/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ConversationUsecase
}

func NewHandler(usecase ConversationUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// ListConversations handles GET /conversations - ids of active conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListConversations")

	ids := h.usecase.List(ctx)
	ctxzap.Info(ctx, "conversations listed", zap.Int("count", len(ids)))

	response.JSON(w, http.StatusOK, ids)
}

// GetHistory handles GET /conversations/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, id := h.scope(r, "GetHistory")

	history, err := h.usecase.History(ctx, id)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, history)
}

// DeleteConversation handles DELETE /conversations/{id}
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx, id := h.scope(r, "DeleteConversation")

	if err := h.usecase.Delete(ctx, id); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, entity.MessageResponse{
		Message: fmt.Sprintf("Conversation %s deleted successfully", id),
	})
}

// ClearConversation handles POST /conversations/{id}/clear
func (h *Handler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	ctx, id := h.scope(r, "ClearConversation")

	if err := h.usecase.Clear(ctx, id); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, entity.MessageResponse{
		Message: fmt.Sprintf("Conversation %s history cleared successfully", id),
	})
}

// ExportConversation handles GET /conversations/{id}/export?format=markdown|pdf|docx
func (h *Handler) ExportConversation(w http.ResponseWriter, r *http.Request) {
	ctx, id := h.scope(r, "ExportConversation")

	format, err := entity.ParseResultFormat(r.URL.Query().Get("format"))
	if err != nil {
		ctxzap.Warn(ctx, "invalid format parameter", zap.String("format", r.URL.Query().Get("format")))
		h.handleUsecaseError(ctx, w, err)
		return
	}

	file, err := h.usecase.Export(ctx, id, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.File(w, file)
}

func (h *Handler) scope(r *http.Request, action string) (context.Context, string) {
	id := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", id),
		zap.String("action", action),
	)
	return ctx, id
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrConversationNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "conversation not found", err)
	} else if errors.Is(err, entity.ErrFormatUnavailable) {
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "export format is not enabled on this server", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) || errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
