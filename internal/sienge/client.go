package sienge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrMissingCredentials indicates the integration credentials are not
// configured. This is a deployment precondition failure, distinct from the
// ERP rejecting a request.
var ErrMissingCredentials = errors.New("sienge credentials not configured: set SIENGE_USERNAME and SIENGE_PASSWORD")

// APIError is a non-2xx answer from the Sienge API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return fmt.Sprintf("sienge rejected the payload (400): %s", e.Body)
	case http.StatusUnauthorized:
		return "sienge authentication failed (401): invalid or expired credentials"
	case http.StatusConflict:
		return "creditor already exists in sienge (409)"
	case http.StatusInternalServerError:
		return "sienge internal server error (500)"
	default:
		return fmt.Sprintf("sienge request failed with status %d: %s", e.StatusCode, e.Body)
	}
}

// Config carries the ERP endpoint, credentials and fallback constants.
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	DefaultCityID  int
	DefaultAgentID int
	Timeout        time.Duration
}

// Client is a thin HTTP client for the Sienge creditor API. One attempt per
// call — retry is a manual user action (resend integration).
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// DefaultCityID returns the configured fallback city id for the mapper.
func (c *Client) DefaultCityID() int { return c.cfg.DefaultCityID }

// DefaultAgentID returns the configured fallback agent id for the mapper.
func (c *Client) DefaultAgentID() int { return c.cfg.DefaultAgentID }

// CreateCreditor posts the mapped creditor to the Sienge API. The created
// id may come back under different field names across deployments; absence
// of all of them is a soft warning, not a failure.
func (c *Client) CreateCreditor(ctx context.Context, req *CreditorRequest) (*CreditorResult, error) {
	username := strings.TrimSpace(c.cfg.Username)
	password := strings.TrimSpace(c.cfg.Password)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode creditor request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/creditors"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build creditor request: %w", err)
	}
	httpReq.SetBasicAuth(username, password)
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Info("calling sienge creditor API",
		zap.String("url", url),
		zap.String("name", req.Name),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sienge request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sienge response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var payload map[string]interface{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &payload); err != nil {
			c.log.Warn("sienge returned a non-JSON success body", zap.Int("status", resp.StatusCode))
		}
	}

	creditorID := extractCreditorID(payload)
	if creditorID == "" {
		c.log.Warn("creditor id not found in sienge response", zap.Any("response", payload))
	} else {
		c.log.Info("creditor created in sienge",
			zap.Int("status", resp.StatusCode),
			zap.String("creditor_id", creditorID),
		)
	}

	return &CreditorResult{CreditorID: creditorID, Response: payload}, nil
}

// extractCreditorID tries the id field names seen across Sienge deployments.
func extractCreditorID(payload map[string]interface{}) string {
	for _, key := range []string{"id", "creditorId", "entityId"} {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}
