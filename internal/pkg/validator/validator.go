package validator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/futig/vitos-assistant/internal/entity"
)

const (
	// DefaultConversationID is used when a chat request names no conversation.
	DefaultConversationID = "default"

	maxConversationIDLength = 128
	defaultMaxMessageLength = 8000
)

// Validator checks and normalizes incoming requests
type Validator struct {
	maxMessageLength int
}

func New() *Validator {
	return &Validator{maxMessageLength: defaultMaxMessageLength}
}

// ValidateChatRequest rejects blank messages and fills in the default conversation id.
func (v *Validator) ValidateChatRequest(req *entity.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	if utf8.RuneCountInString(req.Message) > v.maxMessageLength {
		return fmt.Errorf("%w: message longer than %d characters", entity.ErrInvalidParameter, v.maxMessageLength)
	}

	if req.ConversationID == "" {
		req.ConversationID = DefaultConversationID
	}

	return v.ValidateConversationID(req.ConversationID)
}

// ValidateConversationID accepts any printable opaque id of bounded length.
func (v *Validator) ValidateConversationID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: conversation_id", entity.ErrMissingField)
	}
	if utf8.RuneCountInString(id) > maxConversationIDLength {
		return fmt.Errorf("%w: conversation_id longer than %d characters", entity.ErrInvalidParameter, maxConversationIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: conversation_id contains control characters", entity.ErrInvalidParameter)
		}
	}
	return nil
}
