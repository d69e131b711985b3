package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/logger"
	"github.com/futig/vitos-assistant/internal/pkg/validator"
	"github.com/futig/vitos-assistant/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Config tunes a single turn.
type Config struct {
	SearchK      int
	RerankTopN   int
	TurnTimeout  time.Duration
	GuardEnabled bool
}

// ChatUsecase runs one conversational turn: retrieve, rerank, assemble the prompt,
// scan the input, run the reasoning loop, scan the output and record the exchange.
type ChatUsecase struct {
	conversations repository.ConversationRepository
	retriever     Retriever
	reranker      RerankConnector
	guard         GuardConnector
	reasoner      Reasoner
	validator     *validator.Validator
	cfg           Config
	logger        *zap.Logger
}

func NewUsecase(
	conversations repository.ConversationRepository,
	retriever Retriever,
	reranker RerankConnector,
	guard GuardConnector,
	reasoner Reasoner,
	validator *validator.Validator,
	cfg Config,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		conversations: conversations,
		retriever:     retriever,
		reranker:      reranker,
		guard:         guard,
		reasoner:      reasoner,
		validator:     validator,
		cfg:           cfg,
		logger:        logger,
	}
}

// Chat processes one user message. Only validation problems are returned as errors;
// every other failure is answered with a fixed message and leaves history untouched.
func (uc *ChatUsecase) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResult, error) {
	if err := uc.validator.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	ctx = logger.WithConversation(logger.WithAction(ctx, "chat_turn"), req.ConversationID)
	if uc.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.TurnTimeout)
		defer cancel()
	}

	started := time.Now()
	result := &entity.ChatResult{ConversationID: req.ConversationID}

	conv, release, err := uc.conversations.Acquire(ctx, req.ConversationID)
	if err != nil {
		ctxzap.Error(ctx, "waiting for previous turn failed", zap.Error(err))
		result.Response, result.Outcome = ApologyMessage, entity.ChatOutcomeFailed
		return result, nil
	}
	defer release()

	history := conv.History()
	system := systemTurn(uc.retrieveContext(ctx, req.Message))

	if !uc.allowed(ctx, entity.ScanDirectionInput, req.Message) {
		result.Response, result.Outcome = InputBlockedMessage, entity.ChatOutcomeBlocked
		return result, nil
	}

	out, err := uc.reasoner.Run(ctx, entity.AgentRequest{
		System:  system,
		History: history,
		Input:   req.Message,
	})
	switch {
	case errors.Is(err, entity.ErrIterationLimit):
		ctxzap.Warn(ctx, "turn stopped at iteration limit")
		result.Response, result.Outcome = IncompleteMessage, entity.ChatOutcomeIncomplete
		return result, nil
	case err != nil:
		ctxzap.Error(ctx, "reasoning loop failed", zap.Error(err))
		result.Response, result.Outcome = ApologyMessage, entity.ChatOutcomeFailed
		return result, nil
	}

	if !uc.allowed(ctx, entity.ScanDirectionOutput, out.Answer) {
		result.Response, result.Outcome = OutputBlockedMessage, entity.ChatOutcomeBlocked
		return result, nil
	}

	conv.AppendExchange(req.Message, out.Answer)

	ctxzap.Info(ctx, "turn answered",
		zap.Int("iterations", out.Iterations),
		zap.Int("tool_calls", len(out.Invocations)),
		zap.Int("history_turns", len(history)+2),
		zap.Duration("duration", time.Since(started)),
	)

	result.Response, result.Outcome = out.Answer, entity.ChatOutcomeAnswered
	return result, nil
}

// retrieveContext builds the <context> block. Retrieval failures degrade to the
// no-context marker, rerank failures to plain similarity order.
func (uc *ChatUsecase) retrieveContext(ctx context.Context, query string) string {
	hits, err := uc.retriever.Search(ctx, query, uc.cfg.SearchK)
	if err != nil {
		ctxzap.Warn(ctx, "knowledge retrieval failed, continuing without context", zap.Error(err))
		return NoContextBlock
	}
	if len(hits) == 0 {
		ctxzap.Info(ctx, "no relevant context found in the knowledge base")
		return NoContextBlock
	}

	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Chunk.Content
	}

	passages, err := uc.rerank(ctx, query, docs)
	if err != nil {
		ctxzap.Warn(ctx, "rerank failed, using similarity order", zap.Error(err))
		passages = docs
		if len(passages) > uc.cfg.RerankTopN {
			passages = passages[:uc.cfg.RerankTopN]
		}
	}

	ctxzap.Debug(ctx, "context retrieved",
		zap.Int("candidates", len(hits)),
		zap.Int("kept", len(passages)),
	)

	return contextBlock(passages)
}

func (uc *ChatUsecase) rerank(ctx context.Context, query string, docs []string) ([]string, error) {
	ranked, err := uc.reranker.Rerank(ctx, query, docs, uc.cfg.RerankTopN)
	if err != nil {
		return nil, fmt.Errorf("rerank %d candidates: %w", len(docs), err)
	}

	passages := make([]string, 0, len(ranked))
	for _, r := range ranked {
		passages = append(passages, r.Content)
	}
	return passages, nil
}

// allowed runs the safety scan. Scan service errors let the message through.
func (uc *ChatUsecase) allowed(ctx context.Context, direction entity.ScanDirection, text string) bool {
	if !uc.cfg.GuardEnabled {
		return true
	}

	verdict, err := uc.guard.Scan(ctx, direction, text)
	if err != nil {
		ctxzap.Warn(ctx, "safety scan unavailable, allowing message",
			zap.String("direction", string(direction)),
			zap.Error(err),
		)
		return true
	}

	if !verdict.Allowed {
		ctxzap.Warn(ctx, "unsafe content detected",
			zap.String("direction", string(direction)),
			zap.String("action", verdict.Action),
			zap.String("scan_id", verdict.ScanID),
		)
	}
	return verdict.Allowed
}
