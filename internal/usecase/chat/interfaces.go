package chat

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
)

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error)
}

type RerankConnector interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]entity.RankedDocument, error)
}

type GuardConnector interface {
	Scan(ctx context.Context, direction entity.ScanDirection, text string) (entity.Verdict, error)
}

type Reasoner interface {
	Run(ctx context.Context, req entity.AgentRequest) (*entity.AgentResult, error)
}
