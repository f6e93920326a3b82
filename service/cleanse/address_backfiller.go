/*
 * @module service/cleanse/address_backfiller
 * @description 地址回填阶段：按 parcel_id 分组，用同组内已知的 property_address 补齐缺失值
 * @architecture 分层架构 - 数据清洗阶段
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> parcel_id 分组索引 -> 缺失成员回填 -> 问题收集
 * @rules 分组索引从单次快照一次性构建（O(n)），不逐条重扫；候选取组内 unique_id 最小的非缺失记录；无候选时保持缺失，交由下游容忍
 * @dependencies housing-cleanse-service/service/models, context
 * @refs pipeline.go, address_decomposer.go
 */

package cleanse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"housing-cleanse-service/service/models"
)

// AddressBackfiller 地址回填阶段
type AddressBackfiller struct {
	store RecordStore
}

// NewAddressBackfiller 创建地址回填阶段实例
func NewAddressBackfiller(store RecordStore) *AddressBackfiller {
	return &AddressBackfiller{store: store}
}

// Name 阶段名称
func (b *AddressBackfiller) Name() string {
	return StageAddressBackfill
}

// Run 执行地址回填
func (b *AddressBackfiller) Run(ctx context.Context) (*StageResult, error) {
	startTime := time.Now()
	result := &StageResult{Stage: b.Name()}

	records, err := b.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取记录快照失败: %w", err)
	}
	result.Processed = len(records)

	// 一次性构建 parcel_id 分组索引，ReadAll 按 unique_id 升序返回，组内顺序随之稳定
	groups := make(map[string][]*models.HousingRecord)
	for i := range records {
		record := &records[i]
		groups[record.ParcelID] = append(groups[record.ParcelID], record)
	}

	for _, members := range groups {
		var donors []*models.HousingRecord
		distinctAddresses := make(map[string]struct{})
		for _, m := range members {
			if hasAddress(m.PropertyAddress) {
				donors = append(donors, m)
				distinctAddresses[strings.TrimSpace(*m.PropertyAddress)] = struct{}{}
			}
		}
		if len(donors) == 0 {
			continue
		}

		// 候选按 unique_id 升序取第一个
		donor := donors[0]

		for _, m := range members {
			if hasAddress(m.PropertyAddress) {
				continue
			}

			if len(distinctAddresses) > 1 {
				result.Issues = append(result.Issues, Issue{
					UniqueID: m.UniqueID,
					Type:     IssueBackfillAmbiguity,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("parcel %s 存在 %d 个不同的候选地址，取 unique_id 最小的记录 %d",
						m.ParcelID, len(distinctAddresses), donor.UniqueID),
				})
			}

			updates := map[string]interface{}{"property_address": *donor.PropertyAddress}
			if err := b.store.Update(ctx, m.UniqueID, updates); err != nil {
				return nil, fmt.Errorf("回填记录 %d 的地址失败: %w", m.UniqueID, err)
			}
			result.Modified++
		}
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// hasAddress 判断地址值是否为有效非缺失值
func hasAddress(addr *string) bool {
	return addr != nil && strings.TrimSpace(*addr) != ""
}
