package backend

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

	"github.com/mtafreight/dispatch-gateway/internal/credentials"
	"github.com/mtafreight/dispatch-gateway/pkg/config"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

var (
	errBaseURLRequired     = errors.New("backend base url is required")
	errCredentialsRequired = errors.New("backend credential store is required")
	errLoggerRequired      = errors.New("backend logger is required")
)

// Client talks to the brokerage backend REST API with centralized auth,
// logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiPath    string
	creds      credentials.Store
	logger     *logger.Logger
	metrics    *metrics.GatewayMetrics
}

// NewClient validates the configuration and returns a backend client.
func NewClient(cfg config.BackendConfig, creds credentials.Store, logg *logger.Logger, m *metrics.GatewayMetrics) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if creds == nil {
		return nil, errCredentialsRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiPath := strings.TrimSpace(cfg.APIPath)
	if apiPath == "" {
		apiPath = "/api"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiPath:    "/" + strings.Trim(apiPath, "/"),
		creds:      creds,
		logger:     logg,
		metrics:    m,
	}, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Ping checks that the backend origin answers at all. Any HTTP status
// counts as reachable; only transport failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "building request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "backend unreachable")
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

type callOptions struct {
	operation string
	anonymous bool
}

// do performs one JSON round trip. Unless anonymous, the stored bearer
// token is attached and a missing token fails before any bytes are sent.
func (c *Client) do(ctx context.Context, method, path string, body any, out any, opts callOptions) error {
	var token string
	if !opts.anonymous {
		var err error
		token, err = c.creds.Token(ctx)
		if err != nil {
			return err
		}
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "encoding request body")
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.apiPath+path, payload)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveBackendLatency(opts.operation, time.Since(started))
	if err != nil {
		c.logError(ctx, opts.operation, err)
		return apperrors.Wrap(apperrors.CodeDependency, err, fmt.Sprintf("backend %s unreachable", opts.operation))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		mapped := c.mapStatus(resp, opts.operation)
		c.logError(ctx, opts.operation, mapped)
		return mapped
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logError(ctx, opts.operation, err)
		return apperrors.Wrap(apperrors.CodeUpstream, err, fmt.Sprintf("decoding %s response", opts.operation))
	}
	return nil
}

func (c *Client) mapStatus(resp *http.Response, operation string) error {
	message := c.upstreamMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("backend %s failed with status %d", operation, resp.StatusCode)
	}

	var code apperrors.Code
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = apperrors.CodeUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		code = apperrors.CodeNotFound
	case resp.StatusCode == http.StatusConflict:
		code = apperrors.CodeConflict
	case resp.StatusCode == http.StatusTooManyRequests:
		code = apperrors.CodeRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = apperrors.CodeValidation
	default:
		code = apperrors.CodeUpstream
	}
	return apperrors.New(code, message)
}

// upstreamMessage pulls a human message out of the backend's error body.
func (c *Client) upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

func (c *Client) logError(ctx context.Context, operation string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, map[string]any{"operation": operation})
	c.logger.Error(ctx, "backend request failed", err)
}
