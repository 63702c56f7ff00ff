package ssot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/pkg/config"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

// Client talks to the single-sign-on microservice. Every call carries an
// explicit timeout and retries exactly once with jitter before surfacing
// an upstream-unavailable error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs an SSOT client.
func NewClient(cfg config.SSOTConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type verifyPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyPasswordResponse struct {
	Valid bool `json:"valid"`
}

// VerifyPassword checks reader credentials against the SSOT service.
func (c *Client) VerifyPassword(ctx context.Context, email, password string) (bool, error) {
	var out verifyPasswordResponse
	if err := c.postJSON(ctx, "/auth/verify-password", verifyPasswordRequest{Email: email, Password: password}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

type issueCodeRequest struct {
	Pin string `json:"pin"`
}

type issueCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueTwoFactorCode asks the SSOT service for a fresh verification code.
func (c *Client) IssueTwoFactorCode(ctx context.Context, pin string) (string, error) {
	var out issueCodeResponse
	if err := c.postJSON(ctx, "/auth/2fa/issue", issueCodeRequest{Pin: pin}, &out); err != nil {
		return "", err
	}
	if out.Code == "" {
		return "", appErrors.Clone(appErrors.ErrUpstreamUnavailable, "ssot returned empty verification code")
	}
	return out.Code, nil
}

type verifyCodeRequest struct {
	Pin  string `json:"pin"`
	Code string `json:"code"`
}

type verifyCodeResponse struct {
	Valid bool `json:"valid"`
}

// VerifyTwoFactorCode validates a submitted verification code.
func (c *Client) VerifyTwoFactorCode(ctx context.Context, pin, code string) (bool, error) {
	var out verifyCodeResponse
	if err := c.postJSON(ctx, "/auth/2fa/verify", verifyCodeRequest{Pin: pin, Code: code}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal ssot request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return appErrors.Wrap(ctx.Err(), appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "ssot request cancelled")
			case <-time.After(retryJitter()):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build ssot request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("ssot request failed", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close() //nolint:errcheck
			lastErr = fmt.Errorf("ssot responded %d", resp.StatusCode)
			c.logger.Warn("ssot request failed", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(lastErr))
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close() //nolint:errcheck
			return appErrors.New(appErrors.ErrUnauthorized.Code, resp.StatusCode, fmt.Sprintf("ssot rejected request: %d", resp.StatusCode))
		}

		decErr := json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close() //nolint:errcheck
		if decErr != nil {
			return fmt.Errorf("decode ssot response: %w", decErr)
		}
		return nil
	}

	return appErrors.Wrap(lastErr, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "ssot unreachable")
}

// retryJitter spreads the single retry between 100 and 400ms.
func retryJitter() time.Duration {
	return time.Duration(100+rand.Intn(300)) * time.Millisecond
}
