package plantid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plantcare-backend/configs"
	"plantcare-backend/pkg/logger"
)

// Client 上游植物识别服务的 HTTP 客户端。
// 所有重试共用同一个带连接池的 http.Client，不会按次重建。
// 重试策略：瞬时故障（传输错误、5xx）按指数退避重试，
// 客户端错误（4xx）立即失败，不消耗剩余重试预算。
type Client struct {
	httpClient *http.Client
	config     *configs.PlantIDConfig
	logger     logger.Logger
}

// NewClient 创建上游识别客户端
func NewClient(config *configs.PlantIDConfig, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
		logger: log,
	}
}

// Identify 向上游识别服务发起 POST 请求并返回解析前的 JSON 响应。
// payload 为请求体；按配置注入 API 密钥（请求头或请求体）。
// 失败时返回 *UpstreamError。
func (c *Client) Identify(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	// 按配置把密钥注入请求体
	if c.config.AuthMode == "body" && c.config.APIKey != "" {
		payload["api_key"] = c.config.APIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal identification payload: %w", err)
	}

	endpoint, err := c.buildURL()
	if err != nil {
		return nil, fmt.Errorf("build identification url: %w", err)
	}

	attempts := c.config.MaxRetries + 1
	delay := c.config.RetryDelay

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= attempts; attempt++ {
		raw, retryable, err := c.post(ctx, endpoint, body)
		if err == nil {
			return raw, nil
		}

		if !retryable {
			return nil, err
		}

		lastErr = err
		if ue, ok := err.(*UpstreamError); ok {
			lastStatus = ue.StatusCode
		}

		c.logger.WarnContext(ctx, "上游识别请求失败，准备重试",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err.Error())

		if attempt == attempts {
			break
		}

		// 退避等待，上下文取消时立即返回
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	c.logger.ErrorContext(ctx, "上游识别请求重试预算耗尽",
		"attempts", attempts,
		"error", lastErr.Error())

	return nil, &UpstreamError{
		StatusCode: lastStatus,
		Attempts:   attempts,
		Err:        lastErr,
	}
}

// post 发起单次请求。
// 返回值 retryable 标记该次失败是否可以重试。
func (c *Client) post(ctx context.Context, endpoint string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.AuthMode == "header" && c.config.APIKey != "" {
		req.Header.Set("Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 传输层失败（超时、连接拒绝、DNS 失败）可重试
		return nil, true, &UpstreamError{Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &UpstreamError{StatusCode: resp.StatusCode, Attempts: 1, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		// 服务端错误可重试
		return nil, true, &UpstreamError{
			StatusCode: resp.StatusCode,
			Attempts:   1,
			Err:        fmt.Errorf("server error: %s", strings.TrimSpace(string(data))),
		}

	case resp.StatusCode >= 400:
		// 客户端错误直接失败，不再重试
		return nil, false, &UpstreamError{
			StatusCode: resp.StatusCode,
			Attempts:   1,
			Permanent:  true,
			Err:        fmt.Errorf("client error: %s", strings.TrimSpace(string(data))),
		}
	}

	if !json.Valid(data) {
		return nil, false, &UpstreamError{
			StatusCode: resp.StatusCode,
			Attempts:   1,
			Permanent:  true,
			Err:        fmt.Errorf("response body is not valid JSON"),
		}
	}

	return json.RawMessage(data), false, nil
}

// buildURL 组装带查询参数的请求地址
func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}

	query := u.Query()
	if c.config.Details != "" {
		query.Set("details", c.config.Details)
	}
	if c.config.Language != "" {
		query.Set("language", c.config.Language)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
