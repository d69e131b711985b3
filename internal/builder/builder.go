package builder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/vitos-assistant/internal/agent"
	"github.com/futig/vitos-assistant/internal/api"
	chatapi "github.com/futig/vitos-assistant/internal/api/chat"
	conversationapi "github.com/futig/vitos-assistant/internal/api/conversation"
	"github.com/futig/vitos-assistant/internal/config"
	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/integration/guard"
	"github.com/futig/vitos-assistant/internal/integration/llm"
	"github.com/futig/vitos-assistant/internal/integration/rerank"
	"github.com/futig/vitos-assistant/internal/knowledge"
	"github.com/futig/vitos-assistant/internal/pkg/formatter"
	pkglogger "github.com/futig/vitos-assistant/internal/pkg/logger"
	"github.com/futig/vitos-assistant/internal/pkg/validator"
	"github.com/futig/vitos-assistant/internal/repository"
	"github.com/futig/vitos-assistant/internal/sqltoolkit"
	"github.com/futig/vitos-assistant/internal/telegram"
	"github.com/futig/vitos-assistant/internal/usecase/chat"
	"github.com/futig/vitos-assistant/internal/usecase/conversation"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/unidoc/unioffice/common/license"
	"go.uber.org/zap"
)

// requestTimeoutSlack lets a turn hit its own timeout before the HTTP layer gives up.
const requestTimeoutSlack = 10 * time.Second

// core holds what both front-ends share
type core struct {
	chatUC         *chat.ChatUsecase
	conversationUC *conversation.ConversationUsecase
	toolkit        *sqltoolkit.Toolkit
}

func Build() (*App, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	ctx := ctxzap.ToContext(context.Background(), logger)

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Setup API handlers
	chatHandler := chatapi.NewHandler(c.chatUC)
	conversationHandler := conversationapi.NewHandler(c.conversationUC)
	logger.Info("API handlers initialized")

	router := api.SetupRouter(chatHandler, conversationHandler, cfg.TurnTimeout+requestTimeoutSlack, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.TurnTimeout + 2*requestTimeoutSlack,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:  server,
		toolkit: c.toolkit,
		logger:  logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, func(), *zap.Logger, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := ctxzap.ToContext(context.Background(), logger)

	if err := config.ValidateTelegram(&cfg.TelegramCfg); err != nil {
		return nil, nil, nil, fmt.Errorf("validate telegram config: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := c.toolkit.Close(); err != nil {
			logger.Error("close relational store", zap.Error(err))
		}
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, c.chatUC, c.conversationUC, logger)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return bot, cleanup, logger, nil
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	return cfg, logger, nil
}

func buildCore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*core, error) {
	// Initialize external service connectors (with mock support)
	var (
		chatModel  llms.Model
		reranker   chat.RerankConnector
		guardConn  chat.GuardConnector
		embed      chromem.EmbeddingFunc
		embedModel = cfg.EmbeddingModel
	)

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		chatModel = llm.Wrap(llm.NewMockModel(logger), cfg.LLMCfg, logger)
		reranker = rerank.NewMockConnector(logger)
		guardConn = guard.NewMockConnector(logger)
		embed = knowledge.HashedEmbedding
		embedModel = knowledge.MockEmbeddingModel
	} else {
		logger.Info("Using real connectors for external services")
		model, err := llm.NewConnector(cfg.LLMCfg, cfg.DeepSeekAPIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("setup chat model: %w", err)
		}
		chatModel = model
		reranker = rerank.NewConnector(cfg.RerankConnectorCfg, logger)
		guardConn = guard.NewConnector(cfg.GuardConnectorCfg, logger)
		embed = knowledge.NewEmbeddingFunc(cfg.CohereAPIKey, cfg.EmbeddingModel)
	}

	// Knowledge store
	store, err := buildKnowledgeStore(ctx, cfg, embed, embedModel, logger)
	if err != nil {
		return nil, err
	}

	// Relational tool surface
	toolkit, err := sqltoolkit.Load(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("load relational dataset: %w", err)
	}

	sqlTools := toolkit.Tools()
	tools := make([]agent.Tool, 0, len(sqlTools))
	for _, t := range sqlTools {
		tools = append(tools, t)
	}
	reasoner := agent.New(chatModel, tools, cfg.AgentMaxIterations, logger)
	logger.Info("Reasoning loop initialized",
		zap.Int("tools", len(tools)),
		zap.Int("max_iterations", cfg.AgentMaxIterations),
	)

	conversations := repository.NewConversationMemoryRepository(cfg.HistoryMaxMessages, cfg.ConversationTTL, logger)
	v := validator.New()

	// Initialize use cases
	chatUC := chat.NewUsecase(
		conversations,
		store,
		reranker,
		guardConn,
		reasoner,
		v,
		chat.Config{
			SearchK:      cfg.SimilaritySearchK,
			RerankTopN:   cfg.RerankConnectorCfg.TopN,
			TurnTimeout:  cfg.TurnTimeout,
			GuardEnabled: cfg.EnableMocks || cfg.GuardConnectorCfg.Enabled(),
		},
		logger,
	)
	conversationUC := conversation.NewUsecase(conversations, newFormatterFactory(cfg, logger), v, logger)
	logger.Info("Use cases initialized",
		zap.Bool("guard_enabled", cfg.EnableMocks || cfg.GuardConnectorCfg.Enabled()),
	)

	return &core{
		chatUC:         chatUC,
		conversationUC: conversationUC,
		toolkit:        toolkit,
	}, nil
}

// buildKnowledgeStore opens the persisted index and rebuilds it when the knowledge
// base changed. An empty knowledge base is allowed: every turn then runs without context.
func buildKnowledgeStore(
	ctx context.Context,
	cfg *config.Config,
	embed chromem.EmbeddingFunc,
	embedModel string,
	logger *zap.Logger,
) (*knowledge.Store, error) {
	sources, err := knowledge.LoadSources(cfg.KnowledgeBasePath)
	switch {
	case errors.Is(err, entity.ErrKnowledgeBaseEmpty):
		logger.Warn("knowledge base has no markdown files, answers will have no context",
			zap.String("path", cfg.KnowledgeBasePath),
		)
		return knowledge.NewMemoryStore(embed, logger), nil
	case err != nil:
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	store, err := knowledge.NewStore(cfg.KnowledgeBasePath, embed, logger)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}

	err = store.Ensure(ctx, sources, knowledge.IndexOptions{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		EmbeddingModel: embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("build knowledge index: %w", err)
	}

	logger.Info("Knowledge store ready",
		zap.Int("sources", len(sources)),
		zap.Int("chunks", store.Count()),
	)
	return store, nil
}

// newFormatterFactory enables DOCX export only when a unioffice metered key is configured and accepted.
func newFormatterFactory(cfg *config.Config, logger *zap.Logger) *formatter.Factory {
	if cfg.UnidocLicenseAPIKey == "" {
		logger.Info("DOCX export disabled: UNIDOC_LICENSE_API_KEY is not set")
		return formatter.NewFactory()
	}
	if err := license.SetMeteredKey(cfg.UnidocLicenseAPIKey); err != nil {
		logger.Warn("DOCX export disabled: unioffice license rejected", zap.Error(err))
		return formatter.NewFactory()
	}

	logger.Info("DOCX export enabled")
	return formatter.NewFactory(formatter.WithDOCX())
}
