/*
 * @module service/cleanse/date_normalizer
 * @description 日期标准化阶段：将 sale_date 的原始文本解析为纯日历日期写入 sale_date_converted
 * @architecture 分层架构 - 数据清洗阶段
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 逐条解析 -> 点更新派生日期列 -> 问题收集
 * @rules 任何可解析的日期/时间输入都必须得到无时间分量的日期；不可解析的记录收集 malformed_date 问题，绝不静默回退到默认日期
 * @dependencies housing-cleanse-service/service/models, github.com/spf13/cast
 * @refs pipeline.go
 */

package cleanse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// saleDateLayouts 房产数据集中常见的销售日期写法
var saleDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// DateNormalizer 日期标准化阶段
type DateNormalizer struct {
	store RecordStore
}

// NewDateNormalizer 创建日期标准化阶段实例
func NewDateNormalizer(store RecordStore) *DateNormalizer {
	return &DateNormalizer{store: store}
}

// Name 阶段名称
func (n *DateNormalizer) Name() string {
	return StageDateNormalize
}

// Run 执行日期标准化
func (n *DateNormalizer) Run(ctx context.Context) (*StageResult, error) {
	startTime := time.Now()
	result := &StageResult{Stage: n.Name()}

	records, err := n.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取记录快照失败: %w", err)
	}

	for _, record := range records {
		result.Processed++

		day, err := ParseSaleDate(record.SaleDate)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				UniqueID: record.UniqueID,
				Type:     IssueMalformedDate,
				Severity: SeverityError,
				Message:  err.Error(),
			})
			continue
		}

		if record.SaleDateConverted != nil && record.SaleDateConverted.Equal(day) {
			continue
		}

		updates := map[string]interface{}{"sale_date_converted": day}
		if err := n.store.Update(ctx, record.UniqueID, updates); err != nil {
			return nil, fmt.Errorf("更新记录 %d 的标准化日期失败: %w", record.UniqueID, err)
		}
		result.Modified++
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// ParseSaleDate 将任意常见日期/时间表示解析为纯日历日期（UTC 零点）
// 无法解析时返回错误，由调用方收集为 malformed_date 问题
func ParseSaleDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("销售日期为空")
	}

	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateToDay(t), nil
		}
	}

	// 兜底：交给 cast 处理其余的宽松写法
	if t, err := cast.ToTimeE(value); err == nil {
		return truncateToDay(t), nil
	}

	return time.Time{}, fmt.Errorf("无法将 %q 解析为日期", value)
}

// truncateToDay 丢弃时间分量，只保留年月日
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
