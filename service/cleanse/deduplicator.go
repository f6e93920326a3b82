/*
 * @module service/cleanse/deduplicator
 * @description 去重阶段：按身份键元组分组排名，每组只保留一条代表记录
 * @architecture 分层架构 - 数据清洗阶段
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 身份键分组 -> 组内按 unique_id 排名 -> 候选上报 -> apply 模式执行删除
 * @rules 身份键为 (parcel_id, property_address, sale_price, 标准化 sale_date, legal_reference)；组内 unique_id 最小者存活；单成员组绝不删除；未显式关闭演练模式时只上报候选
 * @dependencies housing-cleanse-service/service/models, sort
 * @refs pipeline.go
 */

package cleanse

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"housing-cleanse-service/service/models"
)

// Deduplicator 去重阶段
type Deduplicator struct {
	store RecordStore
	apply bool
}

// NewDeduplicator 创建去重阶段实例，apply 为 false 时只计算候选不执行删除
func NewDeduplicator(store RecordStore, apply bool) *Deduplicator {
	return &Deduplicator{store: store, apply: apply}
}

// Name 阶段名称
func (d *Deduplicator) Name() string {
	return StageDeduplicate
}

// Run 执行去重，返回阶段结果与删除候选列表
func (d *Deduplicator) Run(ctx context.Context) (*StageResult, []DeleteCandidate, error) {
	startTime := time.Now()
	result := &StageResult{Stage: d.Name()}

	records, err := d.store.ReadAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("读取记录快照失败: %w", err)
	}
	result.Processed = len(records)

	// 身份键 -> 组成员，快照单次构建
	groups := make(map[string][]*models.HousingRecord)
	for i := range records {
		record := &records[i]
		key := dedupKey(record)
		groups[key] = append(groups[key], record)
	}

	var candidates []DeleteCandidate
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}

		// 组内确定性全序：unique_id 升序，最小者为存活代表
		sort.Slice(members, func(i, j int) bool {
			return members[i].UniqueID < members[j].UniqueID
		})

		for rank, m := range members {
			if rank == 0 {
				continue
			}
			candidates = append(candidates, DeleteCandidate{
				UniqueID: m.UniqueID,
				GroupKey: key,
				Rank:     rank + 1,
			})
		}
	}

	// 候选列表整体按 unique_id 排序，报告输出稳定
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UniqueID < candidates[j].UniqueID
	})

	if d.apply {
		for _, c := range candidates {
			if err := d.store.Delete(ctx, c.UniqueID); err != nil {
				return nil, nil, fmt.Errorf("删除重复记录 %d 失败: %w", c.UniqueID, err)
			}
			result.Modified++
		}
	}

	result.Duration = time.Since(startTime)
	return result, candidates, nil
}

// dedupKey 构造身份键元组的字符串形式
// sale_date 使用第一阶段的标准化结果；缺失地址以哨兵值参与分组，避免与空串混淆
func dedupKey(record *models.HousingRecord) string {
	address := "<null>"
	if record.PropertyAddress != nil {
		address = *record.PropertyAddress
	}

	saleDate := record.SaleDate
	if record.SaleDateConverted != nil {
		saleDate = record.SaleDateConverted.Format("2006-01-02")
	}

	return strings.Join([]string{
		record.ParcelID,
		address,
		strconv.FormatFloat(record.SalePrice, 'f', -1, 64),
		saleDate,
		record.LegalReference,
	}, "|")
}
