package status

// StatusCode 统一的业务状态码类型
// 说明：尽量保持简单以满足当前项目使用场景
// 0 表示成功，其余为错误状态

type StatusCode int

const (
	// CodeOK 成功
	CodeOK StatusCode = 0

	// ErrCodeInvalidParam 参数错误
	ErrCodeInvalidParam StatusCode = 1001
	// ErrCodeInternal 内部错误
	ErrCodeInternal StatusCode = 1002
	// ErrCodeUpstream 上游识别服务不可用
	ErrCodeUpstream StatusCode = 1003
	// ErrCodeNotFound 资源不存在
	ErrCodeNotFound StatusCode = 1004
	// ErrCodeUnauthorized 未认证
	ErrCodeUnauthorized StatusCode = 1005
	// ErrCodeStoreUnavailable 数据存储服务不可用
	ErrCodeStoreUnavailable StatusCode = 1006
)

// String 将状态码转换为字符串标识
func (c StatusCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case ErrCodeInvalidParam:
		return "INVALID_PARAM"
	case ErrCodeInternal:
		return "INTERNAL_ERROR"
	case ErrCodeUpstream:
		return "UPSTREAM_UNAVAILABLE"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeUnauthorized:
		return "UNAUTHORIZED"
	case ErrCodeStoreUnavailable:
		return "STORE_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}
