package models

import (
	"encoding/json"
	"fmt"
)

// ProviderName 上游识别服务的固定标识
const ProviderName = "plant.id"

// IdentifyRequest 定义了一次植物识别请求的输入。
// ImageData 与 ImageURL 必须恰好提供其中一个，否则请求被拒绝。
// 请求为临时对象，不做持久化。
type IdentifyRequest struct {
	// ImageData 原始图片字节
	ImageData []byte `json:"-"`

	// ImageURL 图片 URL
	ImageURL string `json:"image_url,omitempty"`

	// CheckHealth 是否请求健康评估
	CheckHealth bool `json:"check_health,omitempty"`

	// Latitude 拍摄地纬度（可选）
	Latitude *float64 `json:"latitude,omitempty"`

	// Longitude 拍摄地经度（可选）
	Longitude *float64 `json:"longitude,omitempty"`
}

// Validate 检查请求的有效性。
// ImageData 与 ImageURL 必须恰好出现一个。
func (r *IdentifyRequest) Validate() error {
	hasData := len(r.ImageData) > 0
	hasURL := r.ImageURL != ""

	if hasData && hasURL {
		return &ValidationError{Field: "image", Message: "provide either an image file or an image_url, not both"}
	}

	if !hasData && !hasURL {
		return &ValidationError{Field: "image", Message: "either an image file or an image_url is required"}
	}

	return nil
}

// NormalizedResult 定义了识别结果的稳定输出结构。
// 无论上游返回何种形态，该结构始终完整返回；
// 解析失败时各派生字段降级为 null/空，RawResponse 始终保留原始载荷。
type NormalizedResult struct {
	// Provider 上游服务标识
	Provider string `json:"provider"`

	// RawResponse 上游原始响应，原样保留用于调试
	RawResponse json.RawMessage `json:"raw_response"`

	// ID 植物条目ID
	ID *string `json:"id"`

	// CommonName 俗名
	CommonName *string `json:"common_name"`

	// ScientificName 学名
	ScientificName *string `json:"scientific_name"`

	// Confidence 置信度 (0.0-1.0)
	Confidence *float64 `json:"confidence"`

	// Care 养护说明
	Care CareInstructions `json:"care"`

	// Description 植物描述
	Description *string `json:"description"`

	// HealthAssessment 健康评估，未请求健康检查时为 null
	HealthAssessment *HealthAssessment `json:"health_assessment"`
}

// CareInstructions 养护说明，按类别分组
type CareInstructions struct {
	// Watering 浇水说明
	Watering *CareDetail `json:"watering,omitempty"`

	// Light 光照说明
	Light *CareDetail `json:"light,omitempty"`
}

// CareDetail 单条养护说明及其出处
type CareDetail struct {
	// Text 说明文本
	Text string `json:"text"`

	// Citation 出处（可选）
	Citation string `json:"citation,omitempty"`
}

// HealthAssessment 健康评估结果。
// 仅当上游响应包含健康检查结果时出现。
type HealthAssessment struct {
	// IsHealthy 是否健康（probability >= 0.5）
	IsHealthy bool `json:"is_healthy"`

	// Probability 健康概率 (0.0-1.0)
	Probability float64 `json:"probability"`

	// Diseases 疑似病害列表，保持上游顺序
	Diseases []Disease `json:"diseases"`
}

// Disease 单条疑似病害
type Disease struct {
	// Name 病害名称
	Name string `json:"name"`

	// Probability 病害概率
	Probability float64 `json:"probability"`

	// SimilarImages 相似病例图片
	SimilarImages []SimilarImage `json:"similar_images,omitempty"`
}

// SimilarImage 相似图片的 URL 对
type SimilarImage struct {
	URL      string `json:"url"`
	URLSmall string `json:"url_small,omitempty"`
}

// ValidationError 请求参数验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
