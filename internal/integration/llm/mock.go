package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const mockListTablesTool = "sql_db_list_tables"

// MockModel is an offline stand-in for the chat model. On the first step it asks
// for the table list when that tool is offered, then answers with what it got back.
type MockModel struct {
	logger *zap.Logger
}

var _ llms.Model = (*MockModel)(nil)

func NewMockModel(logger *zap.Logger) *MockModel {
	return &MockModel{
		logger: logger,
	}
}

func (m *MockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	var question, toolOutput string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				if msg.Role == llms.ChatMessageTypeHuman {
					question = p.Text
				}
			case llms.ToolCallResponse:
				toolOutput = p.Content
			}
		}
	}

	ctxzap.Info(ctx, "[MOCK] generating content",
		zap.Int("messages", len(messages)),
		zap.Int("tools", len(opts.Tools)),
	)

	if toolOutput == "" && hasTool(opts.Tools, mockListTablesTool) {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "mock-call-1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      mockListTablesTool,
					Arguments: "{}",
				},
			}},
		}}}, nil
	}

	answer := fmt.Sprintf("[MOCK] Thanks for asking Vito's Pizza Cafe: %q.", strings.TrimSpace(question))
	if toolOutput != "" {
		answer += " Known tables: " + toolOutput + "."
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:    answer,
		StopReason: "stop",
	}}}, nil
}

func (m *MockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func hasTool(tools []llms.Tool, name string) bool {
	for _, t := range tools {
		if t.Function != nil && t.Function.Name == name {
			return true
		}
	}
	return false
}
