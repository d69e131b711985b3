package rerank

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/futig/vitos-assistant/internal/config"
	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/integration/common"
	pkghttp "github.com/futig/vitos-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector scores candidate documents against a query with the Cohere rerank API.
type Connector struct {
	config    config.RerankConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

const clientName = "vitos-assistant"

func NewConnector(
	cfg config.RerankConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithAuthToken(cfg.Token)),
		config:    cfg,
		logger:    logger,
	}
}

// Rerank returns documents ordered by descending relevance to query.
// POST {endpoint} {"model", "query", "documents", "top_n"}
// When fewer than topN documents are given, all of them come back reordered.
func (c *Connector) Rerank(ctx context.Context, query string, documents []string, topN int) ([]entity.RankedDocument, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	req := &entity.RerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	ctxzap.Debug(ctx, "reranking documents", zap.Int("candidates", len(documents)), zap.Int("top_n", topN))

	var resp entity.RerankResponse
	err := c.config.Retry.Do(ctx, func() error {
		resp = entity.RerankResponse{}
		err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp,
			pkghttp.WithHeader("X-Client-Name", clientName))
		if err != nil && !pkghttp.IsRetryable(err) {
			return retry.Unrecoverable(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rerank failed: %w", err)
	}

	ranked := make([]entity.RankedDocument, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			ctxzap.Warn(ctx, "rerank returned out of range index", zap.Int("index", r.Index))
			continue
		}
		ranked = append(ranked, entity.RankedDocument{
			Index:   r.Index,
			Content: documents[r.Index],
			Score:   r.RelevanceScore,
		})
	}

	ctxzap.Debug(ctx, "documents reranked", zap.Int("kept", len(ranked)))

	return ranked, nil
}
