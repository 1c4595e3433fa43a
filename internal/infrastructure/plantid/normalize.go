package plantid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/pkg/logger"
)

// Normalizer 把上游识别服务形态不定的 JSON 响应转换为固定的输出结构。
// 上游在不同版本间使用过多种响应格式，这里把每个字段的已知形态
// 当作一个封闭的变体集合逐一分派，未知形态统一落到默认值分支。
// 转换过程永不向外抛出异常：任何解析问题都只记录日志并降级为默认值，
// RawResponse 始终原样保留。
type Normalizer struct {
	logger logger.Logger
}

// NewNormalizer 创建响应规整器
func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// Normalize 执行响应规整。
// 返回值总是非 nil；解析失败时派生字段全部为 null/空。
func (n *Normalizer) Normalize(raw json.RawMessage) (result *models.NormalizedResult) {
	result = &models.NormalizedResult{
		Provider:    models.ProviderName,
		RawResponse: raw,
	}

	// 兜底：任何未预料到的结构问题都降级为仅含原始载荷的默认结果
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("响应规整遇到未预期的结构，返回默认结果", "panic", fmt.Sprint(r))
			result = &models.NormalizedResult{
				Provider:    models.ProviderName,
				RawResponse: raw,
			}
		}
	}()

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		n.logger.Error("上游响应不是 JSON 对象，跳过规整", "error", err.Error())
		return result
	}

	resultObj, _ := asMap(root["result"])

	// 首选 result.classification.suggestions，为空时回退到顶层 suggestions（旧版格式）
	classification := suggestionsAt(resultObj, "classification")
	suggestions := classification
	if len(suggestions) == 0 {
		suggestions, _ = asSlice(root["suggestions"])
	}

	if len(suggestions) > 0 {
		if top, ok := asMap(suggestions[0]); ok {
			n.normalizeSuggestion(result, top, classification)
		} else {
			n.logger.Warn("上游建议列表首项不是对象，跳过建议字段")
		}
	}

	// 健康评估只在 result 对象携带 is_healthy 键时出现，
	// 以区分"未请求健康检查"和"健康检查未发现问题"
	if resultObj != nil {
		if healthy, ok := resultObj["is_healthy"]; ok {
			result.HealthAssessment = n.normalizeHealth(healthy, resultObj)
		}
	}

	return result
}

// normalizeSuggestion 从置信度最高的建议中提取植物身份与养护字段
func (n *Normalizer) normalizeSuggestion(result *models.NormalizedResult, top map[string]any, classification []any) {
	// ID：字符串或数字都接受
	if id, ok := scalarString(top["id"]); ok {
		result.ID = &id
	}

	// 学名：历史版本使用过三个不同的键名，按优先级取第一个出现的
	for _, key := range []string{"name", "scientific_name", "plant_name"} {
		if s, ok := asString(top[key]); ok && s != "" {
			result.ScientificName = &s
			break
		}
	}

	// 俗名：直接字段 -> 俗名列表/标量 -> details 内嵌列表/标量
	details, _ := asMap(top["details"])
	if name, ok := commonName(top["common_name"]); ok {
		result.CommonName = &name
	} else if name, ok := commonName(top["common_names"]); ok {
		result.CommonName = &name
	} else if details != nil {
		if name, ok := commonName(details["common_names"]); ok {
			result.CommonName = &name
		}
	}

	// 置信度：仅接受数值；当前建议缺失时回退到 classification 路径的首项
	result.Confidence = confidenceOf(top)
	if result.Confidence == nil && len(classification) > 0 {
		if first, ok := asMap(classification[0]); ok {
			result.Confidence = confidenceOf(first)
		}
	}

	if details == nil {
		return
	}

	// 描述
	if detail := n.extractDetail("description", details["description"]); detail != nil {
		result.Description = &detail.Text
	}

	// 浇水：优先渲染结构化数值区间，缺失时回退到通用文本提取
	if watering := n.normalizeWatering(details); watering != nil {
		result.Care.Watering = watering
	}

	// 光照
	result.Care.Light = n.extractDetail("best_light_condition", details["best_light_condition"])
}

// normalizeWatering 处理浇水字段的双层回退。
// 结构化区间对象 {min, max, citation} 渲染为可读的区间描述，
// 否则对 best_watering 做通用文本提取。
func (n *Normalizer) normalizeWatering(details map[string]any) *models.CareDetail {
	if rangeObj, ok := asMap(details["watering"]); ok {
		min := asNumber(rangeObj["min"])
		max := asNumber(rangeObj["max"])

		var text string
		switch {
		case min != nil && max != nil:
			text = fmt.Sprintf("Watering level between %g and %g", *min, *max)
		case min != nil:
			text = fmt.Sprintf("Watering level at least %g", *min)
		case max != nil:
			text = fmt.Sprintf("Watering level up to %g", *max)
		}

		if text != "" {
			citation, _ := asString(rangeObj["citation"])
			return &models.CareDetail{Text: text, Citation: citation}
		}
	}

	return n.extractDetail("best_watering", details["best_watering"])
}

// normalizeHealth 解析健康评估。
// probability 缺失时默认健康（1.0）；>= 0.5 判定为健康。
func (n *Normalizer) normalizeHealth(healthy any, resultObj map[string]any) *models.HealthAssessment {
	probability := 1.0
	if hm, ok := asMap(healthy); ok {
		if p := asNumber(hm["probability"]); p != nil {
			probability = *p
		}
	}

	assessment := &models.HealthAssessment{
		IsHealthy:   probability >= 0.5,
		Probability: probability,
		Diseases:    make([]models.Disease, 0),
	}

	disease, ok := asMap(resultObj["disease"])
	if !ok {
		return assessment
	}

	entries, _ := asSlice(disease["suggestions"])
	for _, entry := range entries {
		dm, ok := asMap(entry)
		if !ok {
			// 非对象条目跳过而不是报错
			n.logger.Warn("病害建议列表包含非对象条目，已跳过")
			continue
		}

		item := models.Disease{}
		if name, ok := asString(dm["name"]); ok {
			item.Name = name
		}
		if p := asNumber(dm["probability"]); p != nil {
			item.Probability = *p
		}

		if images, ok := asSlice(dm["similar_images"]); ok {
			for _, img := range images {
				im, ok := asMap(img)
				if !ok {
					continue
				}
				pair := models.SimilarImage{}
				pair.URL, _ = asString(im["url"])
				pair.URLSmall, _ = asString(im["url_small"])
				item.SimilarImages = append(item.SimilarImages, pair)
			}
		}

		assessment.Diseases = append(assessment.Diseases, item)
	}

	return assessment
}

// extractDetail 统一处理"详情"字段的四种已知形态：
// null、纯字符串、值列表（用 ", " 连接）、带 value/text/description 键的对象。
// 未知形态记录日志并返回 nil。
func (n *Normalizer) extractDetail(field string, value any) *models.CareDetail {
	switch v := value.(type) {
	case nil:
		return nil

	case string:
		if v == "" {
			return nil
		}
		return &models.CareDetail{Text: v}

	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := scalarString(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return &models.CareDetail{Text: strings.Join(parts, ", ")}

	case map[string]any:
		var text string
		for _, key := range []string{"value", "text", "description"} {
			if s, ok := scalarString(v[key]); ok && s != "" {
				text = s
				break
			}
		}
		if text == "" {
			return nil
		}
		citation, _ := asString(v["citation"])
		return &models.CareDetail{Text: text, Citation: citation}

	default:
		n.logger.Warn("详情字段为未知形态，按缺失处理", "field", field)
		return nil
	}
}

// suggestionsAt 读取 parent[key].suggestions 列表
func suggestionsAt(parent map[string]any, key string) []any {
	if parent == nil {
		return nil
	}
	inner, ok := asMap(parent[key])
	if !ok {
		return nil
	}
	list, _ := asSlice(inner["suggestions"])
	return list
}

// confidenceOf 从建议对象中读取置信度，历史键名依次为
// probability、confidence、score，仅接受数值。
func confidenceOf(suggestion map[string]any) *float64 {
	for _, key := range []string{"probability", "confidence", "score"} {
		if p := asNumber(suggestion[key]); p != nil {
			return p
		}
	}
	return nil
}

// commonName 解析俗名字段：列表取首个元素，标量原样转为字符串
func commonName(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case []any:
		if len(v) == 0 {
			return "", false
		}
		return scalarString(v[0])
	default:
		return scalarString(value)
	}
}

// asMap JSON 对象断言
func asMap(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

// asSlice JSON 数组断言
func asSlice(value any) ([]any, bool) {
	s, ok := value.([]any)
	return s, ok
}

// asString JSON 字符串断言
func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// asNumber JSON 数值断言，非数值返回 nil
func asNumber(value any) *float64 {
	f, ok := value.(float64)
	if !ok {
		return nil
	}
	return &f
}

// scalarString 把字符串或数值标量转为字符串表示
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
