package ssot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/pkg/config"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

// Compliance states reported by the HR service.
const (
	ComplianceCompliant = "compliant"
	CompliancePending   = "pending"
	ComplianceExpired   = "expired"
)

// ComplianceClient queries the HR compliance service for a reader's
// clearance state. Failures surface as upstream errors, never a silent pass.
type ComplianceClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewComplianceClient constructs an HR compliance client.
func NewComplianceClient(cfg config.HRConfig, logger *zap.Logger) *ComplianceClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ComplianceClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type complianceResponse struct {
	Status string `json:"status"`
}

// Status returns the compliance state for a reader pin.
func (c *ComplianceClient) Status(ctx context.Context, pin string) (string, error) {
	endpoint := fmt.Sprintf("%s/compliance/status?pin=%s", c.baseURL, url.QueryEscape(pin))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", appErrors.Wrap(ctx.Err(), appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "compliance request cancelled")
			case <-time.After(retryJitter()):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("build compliance request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("compliance request failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close() //nolint:errcheck
			lastErr = fmt.Errorf("compliance service responded %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close() //nolint:errcheck
			return CompliancePending, nil
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close() //nolint:errcheck
			return "", appErrors.New(appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("compliance service rejected request: %d", resp.StatusCode))
		}

		var out complianceResponse
		decErr := json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close() //nolint:errcheck
		if decErr != nil {
			return "", fmt.Errorf("decode compliance response: %w", decErr)
		}
		return out.Status, nil
	}

	return "", appErrors.Wrap(lastErr, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "compliance service unreachable")
}
