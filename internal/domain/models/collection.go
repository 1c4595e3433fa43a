package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 植物健康状态取值
const (
	HealthStatusHealthy        = "healthy"
	HealthStatusNeedsAttention = "needs_attention"
	HealthStatusSick           = "sick"
)

// ValidHealthStatus 检查健康状态取值是否合法
func ValidHealthStatus(s string) bool {
	switch s {
	case HealthStatusHealthy, HealthStatusNeedsAttention, HealthStatusSick:
		return true
	}
	return false
}

// PlantCollection 定义了用户植物收藏的完整记录（含存储生成的字段）。
type PlantCollection struct {
	// ID 收藏条目的唯一标识
	ID uuid.UUID `json:"id"`

	// UserID 收藏所属用户
	UserID uuid.UUID `json:"user_id"`

	// PlantID 植物种类标识
	PlantID string `json:"plant_id"`

	// CommonName 植物俗名
	CommonName string `json:"common_name"`

	// ScientificName 植物学名（可选）
	ScientificName *string `json:"scientific_name,omitempty"`

	// ImageURL 植物图片地址（可选）
	ImageURL *string `json:"image_url,omitempty"`

	// IdentifiedAt 识别/加入收藏的时间
	IdentifiedAt time.Time `json:"identified_at"`

	// LastCareDate 最近一次养护时间（可选）
	LastCareDate *time.Time `json:"last_care_date,omitempty"`

	// NextCareDate 下次计划养护时间（可选）
	NextCareDate *time.Time `json:"next_care_date,omitempty"`

	// CareFrequencyDays 养护提醒间隔天数 (1-365)
	CareFrequencyDays int `json:"care_frequency_days"`

	// HealthStatus 当前健康状态
	HealthStatus string `json:"health_status,omitempty"`

	// Notes 用户备注（可选）
	Notes *string `json:"notes,omitempty"`

	// IsSynced 是否已与服务器同步
	IsSynced bool `json:"is_synced"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionCreate 定义了新建收藏条目的请求参数。
type CollectionCreate struct {
	PlantID           string     `json:"plant_id" binding:"required"`
	CommonName        string     `json:"common_name" binding:"required"`
	ScientificName    *string    `json:"scientific_name,omitempty"`
	ImageURL          *string    `json:"image_url,omitempty"`
	IdentifiedAt      time.Time  `json:"identified_at" binding:"required"`
	LastCareDate      *time.Time `json:"last_care_date,omitempty"`
	NextCareDate      *time.Time `json:"next_care_date,omitempty"`
	CareFrequencyDays int        `json:"care_frequency_days,omitempty"`
	HealthStatus      string     `json:"health_status,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// Validate 检查创建请求的有效性，并填充默认值。
// 必填字符串不能为纯空白，养护间隔限制在 1-365 天。
func (c *CollectionCreate) Validate() error {
	c.PlantID = strings.TrimSpace(c.PlantID)
	c.CommonName = strings.TrimSpace(c.CommonName)

	if c.PlantID == "" {
		return &ValidationError{Field: "plant_id", Message: "must not be empty"}
	}

	if c.CommonName == "" {
		return &ValidationError{Field: "common_name", Message: "must not be empty"}
	}

	if c.CareFrequencyDays == 0 {
		c.CareFrequencyDays = 7
	}

	if c.CareFrequencyDays < 1 || c.CareFrequencyDays > 365 {
		return &ValidationError{Field: "care_frequency_days", Message: "must be between 1 and 365"}
	}

	if c.HealthStatus == "" {
		c.HealthStatus = HealthStatusHealthy
	}

	if !ValidHealthStatus(c.HealthStatus) {
		return &ValidationError{Field: "health_status", Message: fmt.Sprintf("invalid value: %s", c.HealthStatus)}
	}

	return nil
}

// CollectionUpdate 定义了收藏条目的部分更新参数。
// 仅更新显式提供的字段。
type CollectionUpdate struct {
	CommonName        *string    `json:"common_name,omitempty"`
	ScientificName    *string    `json:"scientific_name,omitempty"`
	ImageURL          *string    `json:"image_url,omitempty"`
	LastCareDate      *time.Time `json:"last_care_date,omitempty"`
	NextCareDate      *time.Time `json:"next_care_date,omitempty"`
	CareFrequencyDays *int       `json:"care_frequency_days,omitempty"`
	HealthStatus      *string    `json:"health_status,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// Validate 检查更新请求的有效性。
func (u *CollectionUpdate) Validate() error {
	if u.CommonName != nil && strings.TrimSpace(*u.CommonName) == "" {
		return &ValidationError{Field: "common_name", Message: "must not be empty"}
	}

	if u.CareFrequencyDays != nil && (*u.CareFrequencyDays < 1 || *u.CareFrequencyDays > 365) {
		return &ValidationError{Field: "care_frequency_days", Message: "must be between 1 and 365"}
	}

	if u.HealthStatus != nil && !ValidHealthStatus(*u.HealthStatus) {
		return &ValidationError{Field: "health_status", Message: fmt.Sprintf("invalid value: %s", *u.HealthStatus)}
	}

	return nil
}

// 养护动作类型取值
const (
	CareTypeWatering    = "watering"
	CareTypeFertilizing = "fertilizing"
	CareTypePruning     = "pruning"
	CareTypeRepotting   = "repotting"
	CareTypePestControl = "pest_control"
	CareTypeOther       = "other"
)

// ValidCareType 检查养护动作类型取值是否合法
func ValidCareType(s string) bool {
	switch s {
	case CareTypeWatering, CareTypeFertilizing, CareTypePruning,
		CareTypeRepotting, CareTypePestControl, CareTypeOther:
		return true
	}
	return false
}

// CareHistory 定义了一条养护历史记录。
type CareHistory struct {
	// ID 记录唯一标识
	ID uuid.UUID `json:"id"`

	// CollectionID 所属收藏条目
	CollectionID uuid.UUID `json:"collection_id"`

	// CareDate 养护时间
	CareDate time.Time `json:"care_date"`

	// CareType 养护动作类型
	CareType string `json:"care_type"`

	// Notes 备注（可选）
	Notes *string `json:"notes,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// CareActionRequest 记录养护动作的请求参数。
// CareDate 省略时默认为当前时间。
type CareActionRequest struct {
	CareType string     `json:"care_type" binding:"required"`
	Notes    *string    `json:"notes,omitempty"`
	CareDate *time.Time `json:"care_date,omitempty"`
}

// Validate 检查养护动作请求的有效性。
func (r *CareActionRequest) Validate() error {
	if !ValidCareType(r.CareType) {
		return &ValidationError{Field: "care_type", Message: fmt.Sprintf("invalid value: %s", r.CareType)}
	}
	return nil
}

// CareActionResponse 记录养护动作的响应。
// 包含新建的历史记录和更新后的收藏条目。
type CareActionResponse struct {
	CareHistory *CareHistory     `json:"care_history"`
	Collection  *PlantCollection `json:"collection"`
}

// CollectionSyncItem 客户端同步上传的单条收藏。
// ID 可选：有 ID 且服务器已存在时采用服务器版本（server-wins）。
type CollectionSyncItem struct {
	ID *uuid.UUID `json:"id,omitempty"`
	CollectionCreate
}

// CollectionSyncRequest 批量同步请求
type CollectionSyncRequest struct {
	Collections []CollectionSyncItem `json:"collections" binding:"required"`
}

// CollectionSyncResponse 批量同步响应
type CollectionSyncResponse struct {
	// SyncedCount 成功同步的数量
	SyncedCount int `json:"synced_count"`

	// FailedCount 同步失败的数量
	FailedCount int `json:"failed_count"`

	// Collections 所有已同步条目的服务器版本
	Collections []*PlantCollection `json:"collections"`
}

// CollectionPage 收藏列表的分页响应
type CollectionPage struct {
	Data    []*PlantCollection `json:"data"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"has_more"`
}
