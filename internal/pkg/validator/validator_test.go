package validator

import (
	"strings"
	"testing"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChatRequest(t *testing.T) {
	v := New()

	req := &entity.ChatRequest{Message: "What are your hours?"}
	require.NoError(t, v.ValidateChatRequest(req))
	assert.Equal(t, DefaultConversationID, req.ConversationID)

	req = &entity.ChatRequest{Message: "hi", ConversationID: "table-7"}
	require.NoError(t, v.ValidateChatRequest(req))
	assert.Equal(t, "table-7", req.ConversationID)

	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Message: "   "}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Message: strings.Repeat("a", 8001)}), entity.ErrInvalidParameter)
}

func TestValidateConversationID(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateConversationID("550e8400-e29b-41d4-a716-446655440000"))
	assert.ErrorIs(t, v.ValidateConversationID(" "), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateConversationID(strings.Repeat("x", 129)), entity.ErrInvalidParameter)
	assert.ErrorIs(t, v.ValidateConversationID("bad\nid"), entity.ErrInvalidParameter)
}
