package rerank

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector keeps the incoming order and truncates to topN.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Rerank(ctx context.Context, query string, documents []string, topN int) ([]entity.RankedDocument, error) {
	ctxzap.Info(ctx, "[MOCK] reranking documents",
		zap.Int("candidates", len(documents)),
		zap.Int("top_n", topN),
	)

	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	ranked := make([]entity.RankedDocument, 0, topN)
	for i := 0; i < topN; i++ {
		ranked = append(ranked, entity.RankedDocument{
			Index:   i,
			Content: documents[i],
			Score:   1 - float64(i)/float64(len(documents)),
		})
	}

	return ranked, nil
}
