/*
 * @module service/cleanse/categorical_standardizer
 * @description 分类值标准化阶段：把 sold_as_vacant 的缩写码映射为规范展示值
 * @architecture 分层架构 - 数据清洗阶段
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 纯映射 -> 点更新变化记录
 * @rules Y→Yes、N→No，其余值（含已规范的 Yes/No）原样保留；映射幂等，无错误分支
 * @dependencies housing-cleanse-service/service/models, context
 * @refs pipeline.go
 */

package cleanse

import (
	"context"
	"fmt"
	"time"
)

// CategoricalStandardizer 分类值标准化阶段
type CategoricalStandardizer struct {
	store RecordStore
}

// NewCategoricalStandardizer 创建分类值标准化阶段实例
func NewCategoricalStandardizer(store RecordStore) *CategoricalStandardizer {
	return &CategoricalStandardizer{store: store}
}

// Name 阶段名称
func (s *CategoricalStandardizer) Name() string {
	return StageCategoricalStd
}

// Run 执行分类值标准化
func (s *CategoricalStandardizer) Run(ctx context.Context) (*StageResult, error) {
	startTime := time.Now()
	result := &StageResult{Stage: s.Name()}

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取记录快照失败: %w", err)
	}

	for _, record := range records {
		result.Processed++

		standardized := StandardizeSoldAsVacant(record.SoldAsVacant)
		if standardized == record.SoldAsVacant {
			continue
		}

		updates := map[string]interface{}{"sold_as_vacant": standardized}
		if err := s.store.Update(ctx, record.UniqueID, updates); err != nil {
			return nil, fmt.Errorf("更新记录 %d 的 sold_as_vacant 失败: %w", record.UniqueID, err)
		}
		result.Modified++
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// StandardizeSoldAsVacant 纯映射函数：Y→Yes、N→No，其他值原样返回
func StandardizeSoldAsVacant(value string) string {
	switch value {
	case "Y":
		return "Yes"
	case "N":
		return "No"
	default:
		return value
	}
}
