package guard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/futig/vitos-assistant/internal/config"
	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/integration/common"
	pkghttp "github.com/futig/vitos-assistant/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector runs prompt and response scans against the AI runtime security service.
type Connector struct {
	config    config.GuardConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GuardConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger,
			pkghttp.WithHeaderToken("x-pan-token", cfg.Token, cfg.Token != "")),
		config: cfg,
		logger: logger,
	}
}

// Scan checks one message. INPUT scans use the input profile and send the text
// as a prompt, OUTPUT scans use the output profile and send it as a response.
// Anything other than an "allow" action is a block.
func (c *Connector) Scan(ctx context.Context, direction entity.ScanDirection, text string) (entity.Verdict, error) {
	req := &entity.ScanRequest{
		TrID: uuid.NewString(),
		Metadata: entity.ScanMetadata{
			AIModel: c.config.AIModel,
			AppName: c.config.AppName,
			AppUser: c.config.AppUser,
		},
	}

	switch direction {
	case entity.ScanDirectionInput:
		req.AIProfile.ProfileName = c.config.InputProfileName
		req.Contents = []entity.ScanContent{{Prompt: text}}
	case entity.ScanDirectionOutput:
		req.AIProfile.ProfileName = c.config.OutputProfileName
		req.Contents = []entity.ScanContent{{Response: text}}
	default:
		return entity.Verdict{}, fmt.Errorf("%w: scan direction %q", entity.ErrInvalidParameter, direction)
	}

	var resp entity.ScanResponse
	err := c.config.Retry.Do(ctx, func() error {
		resp = entity.ScanResponse{}
		err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ScanEndpoint, req, &resp)
		if err != nil && !pkghttp.IsRetryable(err) {
			return retry.Unrecoverable(err)
		}
		return err
	})
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("safety scan failed: %w", err)
	}

	verdict := entity.Verdict{
		Allowed: resp.Action == entity.ScanActionAllow,
		Action:  resp.Action,
		ScanID:  resp.ScanID,
	}

	ctxzap.Info(ctx, "safety scan completed",
		zap.String("direction", string(direction)),
		zap.String("action", resp.Action),
		zap.String("category", resp.Category),
		zap.String("scan_id", resp.ScanID),
	)

	return verdict, nil
}
