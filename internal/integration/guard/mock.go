package guard

import (
	"context"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector allows every message. It is also used when no scan token is configured.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Scan(ctx context.Context, direction entity.ScanDirection, text string) (entity.Verdict, error) {
	ctxzap.Debug(ctx, "[MOCK] safety scan",
		zap.String("direction", string(direction)),
		zap.Int("length", len(text)),
	)

	return entity.Verdict{Allowed: true, Action: entity.ScanActionAllow}, nil
}
