package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// 治疗指南严重程度取值
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// 治疗指南类型取值
const (
	GuideTypeIdentification   = "identification"
	GuideTypeDiseaseTreatment = "disease_treatment"
)

// GuideStep 治疗指南中的单个步骤
type GuideStep struct {
	// StepNumber 步骤序号（从1开始）
	StepNumber int `json:"step_number"`

	// Title 步骤标题
	Title string `json:"title"`

	// Description 步骤详细说明
	Description string `json:"description"`

	// ImageURL 步骤配图地址（可选）
	ImageURL *string `json:"image_url,omitempty"`

	// Materials 该步骤所需材料
	Materials []string `json:"materials,omitempty"`

	// IsCritical 是否为关键步骤
	IsCritical bool `json:"is_critical"`

	// EstimatedTime 预计耗时描述
	EstimatedTime string `json:"estimated_time"`
}

// TreatmentGuide 定义了一条治疗指南（含存储生成的字段）。
type TreatmentGuide struct {
	// ID 指南唯一标识
	ID uuid.UUID `json:"id"`

	// PlantID 植物标识，如 "general"、"monstera_deliciosa"
	PlantID string `json:"plant_id"`

	// DiseaseName 病害名称（病害治疗类指南）
	DiseaseName *string `json:"disease_name,omitempty"`

	// Severity 严重程度：low、medium、high
	Severity string `json:"severity"`

	// GuideType 指南类型：identification、disease_treatment
	GuideType string `json:"guide_type"`

	// Steps 治疗步骤列表 (1-10)
	Steps []GuideStep `json:"steps"`

	// Materials 全部所需材料
	Materials []string `json:"materials"`

	// EstimatedDurationMinutes 预计总耗时（分钟），用于计算
	EstimatedDurationMinutes *int `json:"estimated_duration_minutes,omitempty"`

	// EstimatedDurationText 预计总耗时的人类可读描述
	EstimatedDurationText *string `json:"estimated_duration_text,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// GuideCreate 新建治疗指南的请求参数
type GuideCreate struct {
	PlantID                  string      `json:"plant_id" binding:"required"`
	DiseaseName              *string     `json:"disease_name,omitempty"`
	Severity                 string      `json:"severity" binding:"required"`
	GuideType                string      `json:"guide_type" binding:"required"`
	Steps                    []GuideStep `json:"steps" binding:"required"`
	Materials                []string    `json:"materials,omitempty"`
	EstimatedDurationMinutes *int        `json:"estimated_duration_minutes,omitempty"`
	EstimatedDurationText    *string     `json:"estimated_duration_text,omitempty"`
}

// Validate 检查创建请求的有效性。
// 步骤序号必须从1开始连续递增，数量限制在1-10。
func (g *GuideCreate) Validate() error {
	if g.PlantID == "" {
		return &ValidationError{Field: "plant_id", Message: "must not be empty"}
	}

	switch g.Severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
	default:
		return &ValidationError{Field: "severity", Message: fmt.Sprintf("invalid value: %s", g.Severity)}
	}

	switch g.GuideType {
	case GuideTypeIdentification, GuideTypeDiseaseTreatment:
	default:
		return &ValidationError{Field: "guide_type", Message: fmt.Sprintf("invalid value: %s", g.GuideType)}
	}

	return validateGuideSteps(g.Steps)
}

// GuideUpdate 治疗指南的部分更新参数
type GuideUpdate struct {
	PlantID                  *string     `json:"plant_id,omitempty"`
	DiseaseName              *string     `json:"disease_name,omitempty"`
	Severity                 *string     `json:"severity,omitempty"`
	GuideType                *string     `json:"guide_type,omitempty"`
	Steps                    []GuideStep `json:"steps,omitempty"`
	Materials                []string    `json:"materials,omitempty"`
	EstimatedDurationMinutes *int        `json:"estimated_duration_minutes,omitempty"`
	EstimatedDurationText    *string     `json:"estimated_duration_text,omitempty"`
}

// Validate 检查更新请求的有效性。
func (g *GuideUpdate) Validate() error {
	if g.Severity != nil {
		switch *g.Severity {
		case SeverityLow, SeverityMedium, SeverityHigh:
		default:
			return &ValidationError{Field: "severity", Message: fmt.Sprintf("invalid value: %s", *g.Severity)}
		}
	}

	if g.GuideType != nil {
		switch *g.GuideType {
		case GuideTypeIdentification, GuideTypeDiseaseTreatment:
		default:
			return &ValidationError{Field: "guide_type", Message: fmt.Sprintf("invalid value: %s", *g.GuideType)}
		}
	}

	if g.Steps != nil {
		return validateGuideSteps(g.Steps)
	}

	return nil
}

// validateGuideSteps 检查步骤序号是否从1开始连续递增
func validateGuideSteps(steps []GuideStep) error {
	if len(steps) < 1 || len(steps) > 10 {
		return &ValidationError{Field: "steps", Message: "must contain between 1 and 10 steps"}
	}

	numbers := make([]int, len(steps))
	for i, step := range steps {
		numbers[i] = step.StepNumber
	}
	sort.Ints(numbers)

	for i, n := range numbers {
		if n != i+1 {
			return &ValidationError{
				Field:   "steps",
				Message: fmt.Sprintf("step numbers must be sequential from 1 to %d, got: %v", len(steps), numbers),
			}
		}
	}

	return nil
}

// GuideListResponse 按植物查询指南的分页响应
type GuideListResponse struct {
	PlantID       string            `json:"plant_id"`
	DiseaseFilter *string           `json:"disease_filter"`
	TotalResults  int               `json:"total_results"`
	Limit         int               `json:"limit"`
	Offset        int               `json:"offset"`
	Guides        []*TreatmentGuide `json:"guides"`
}
