package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Agent runs a tool-calling loop: the model either answers or asks for tools,
// tool results are fed back, and this repeats up to maxIterations model calls.
type Agent struct {
	model         llms.Model
	tools         map[string]Tool
	definitions   []llms.Tool
	maxIterations int
	logger        *zap.Logger
}

func New(model llms.Model, tools []Tool, maxIterations int, logger *zap.Logger) *Agent {
	a := &Agent{
		model:         model,
		tools:         make(map[string]Tool, len(tools)),
		maxIterations: maxIterations,
		logger:        logger,
	}

	for _, t := range tools {
		a.tools[t.Name()] = t
		a.definitions = append(a.definitions, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return a
}

// Run produces the final answer for one user input.
// Returns entity.ErrIterationLimit when the model keeps calling tools past the cap.
func (a *Agent) Run(ctx context.Context, req entity.AgentRequest) (*entity.AgentResult, error) {
	messages := buildMessages(req)
	result := &entity.AgentResult{}

	var opts []llms.CallOption
	if len(a.definitions) > 0 {
		opts = append(opts, llms.WithTools(a.definitions))
	}

	for result.Iterations < a.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations++

		resp, err := a.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return nil, fmt.Errorf("model call %d: %w", result.Iterations, err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model call %d: %w", result.Iterations, entity.ErrEmptyAnswer)
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			answer := strings.TrimSpace(choice.Content)
			if answer == "" {
				return nil, entity.ErrEmptyAnswer
			}
			result.Answer = answer

			ctxzap.Debug(ctx, "reasoning loop finished",
				zap.Int("iterations", result.Iterations),
				zap.Int("tool_calls", len(result.Invocations)),
			)
			return result, nil
		}

		// one tool call per assistant message
		for _, call := range choice.ToolCalls {
			inv := a.invoke(ctx, call)
			result.Invocations = append(result.Invocations, inv)

			content := inv.Result
			if inv.Error != "" {
				content = "Error: " + inv.Error
			}

			messages = append(messages,
				llms.MessageContent{
					Role:  llms.ChatMessageTypeAI,
					Parts: []llms.ContentPart{call},
				},
				llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{llms.ToolCallResponse{
						ToolCallID: call.ID,
						Name:       inv.Name,
						Content:    content,
					}},
				},
			)
		}
	}

	ctxzap.Warn(ctx, "reasoning loop hit iteration limit",
		zap.Int("max_iterations", a.maxIterations),
		zap.Int("tool_calls", len(result.Invocations)),
	)

	return nil, entity.ErrIterationLimit
}

func (a *Agent) invoke(ctx context.Context, call llms.ToolCall) entity.ToolInvocation {
	inv := entity.ToolInvocation{}
	if call.FunctionCall != nil {
		inv.Name = call.FunctionCall.Name
		inv.Arguments = call.FunctionCall.Arguments
	}

	start := time.Now()

	tool, ok := a.tools[inv.Name]
	if !ok {
		inv.Error = fmt.Sprintf("%s: %q", entity.ErrUnknownTool, inv.Name)
	} else {
		out, err := tool.Call(ctx, inv.Arguments)
		switch {
		case err == nil:
			inv.Result = out
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			inv.Error = "tool call cancelled"
		default:
			inv.Error = err.Error()
		}
	}

	inv.Duration = time.Since(start)
	ctxzap.Info(ctx, "tool invoked",
		zap.String("tool", inv.Name),
		zap.String("arguments", inv.Arguments),
		zap.Int("result_length", len(inv.Result)),
		zap.String("error", inv.Error),
		zap.Duration("duration", inv.Duration),
	)

	return inv
}

func buildMessages(req entity.AgentRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.History)+2)

	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}

	for _, turn := range req.History {
		messages = append(messages, llms.TextParts(messageType(turn.Role), turn.Content))
	}

	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Input))
}

func messageType(role entity.Role) llms.ChatMessageType {
	switch role {
	case entity.RoleAssistant:
		return llms.ChatMessageTypeAI
	case entity.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
