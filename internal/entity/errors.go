package entity

import "errors"

// Domain errors
var (
	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyAnswer          = errors.New("reasoning loop produced an empty answer")
	ErrIterationLimit       = errors.New("reasoning loop exceeded iteration limit")

	// Knowledge errors
	ErrKnowledgeBaseEmpty = errors.New("knowledge base has no documents")

	// Tool errors
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrTableNotFound    = errors.New("table not found")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")

	// Export errors
	ErrFormatUnavailable = errors.New("export format is not available")
)
