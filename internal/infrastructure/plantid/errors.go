package plantid

import "fmt"

// UpstreamError 上游识别服务调用失败。
// Permanent 为 true 表示上游返回了客户端错误（4xx），不经过重试直接失败；
// 否则表示重试预算耗尽后的"上游不可用"。
// 两种情况都应映射为网关类错误（HTTP 502），不能伪装成一般内部错误。
type UpstreamError struct {
	// StatusCode 上游返回的 HTTP 状态码，传输层失败时为 0
	StatusCode int

	// Attempts 实际发起的请求次数
	Attempts int

	// Permanent 是否为不可重试的客户端错误
	Permanent bool

	// Err 最后一次观测到的底层错误
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("plant identification provider rejected request: status %d", e.StatusCode)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("plant identification provider unavailable after %d attempts: status %d", e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("plant identification provider unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
