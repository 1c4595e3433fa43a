package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"plantcare-backend/configs"
	"plantcare-backend/pkg/logger"
)

// StoreError 存储服务返回的非预期响应
type StoreError struct {
	StatusCode int
	Body       string
}

// Error 实现 error 接口
func (e *StoreError) Error() string {
	return fmt.Sprintf("store request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client 基于 PostgREST 风格接口的存储客户端。
// 所有表级操作都经由 /rest/v1/<table> 发出，过滤条件编码在查询参数里。
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient 创建存储客户端
func NewClient(cfg *configs.SupabaseConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		anonKey: cfg.AnonKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

// request 存储请求的参数集合
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	prefer string
}

// response 存储响应，body 已整体读出
type response struct {
	statusCode   int
	body         []byte
	contentRange string
}

// do 发出一次存储请求。
// 2xx 之外的状态码统一映射为 *StoreError，由调用方按需细分。
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("存储请求发送失败", "method", req.method, "path", req.path, "error", err.Error())
		return nil, &StoreError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("存储请求返回异常状态",
			"method", req.method,
			"path", req.path,
			"status", resp.StatusCode,
		)
		return nil, &StoreError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	return &response{
		statusCode:   resp.StatusCode,
		body:         body,
		contentRange: resp.Header.Get("Content-Range"),
	}, nil
}

// totalFromContentRange 解析 Content-Range 头中的总数，如 "0-9/42" -> 42。
// 解析失败返回 -1。
func totalFromContentRange(header string) int {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return -1
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return -1
	}
	return total
}

// decodeRows 把 PostgREST 的数组响应解码到目标切片
func decodeRows(body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode store response: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
