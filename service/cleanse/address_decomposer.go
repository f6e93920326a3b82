/*
 * @module service/cleanse/address_decomposer
 * @description 地址拆分阶段：把两种复合地址字符串拆成结构化子字段
 * @architecture 分层架构 - 数据清洗阶段
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 不可见空白清理 -> 按规则拆分 -> 点更新派生列 -> 问题收集
 * @rules 房产地址按第一个逗号拆分；业主地址按 ", " 拆成三段并从右往左取值；缺失输入直接跳过，不算错误；分隔符不足必须上报 address_format 问题
 * @dependencies housing-cleanse-service/service/models, golang.org/x/text
 * @refs pipeline.go
 */

package cleanse

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// AddressDecomposer 地址拆分阶段
type AddressDecomposer struct {
	store RecordStore
}

// NewAddressDecomposer 创建地址拆分阶段实例
func NewAddressDecomposer(store RecordStore) *AddressDecomposer {
	return &AddressDecomposer{store: store}
}

// Name 阶段名称
func (d *AddressDecomposer) Name() string {
	return StageAddressDecompose
}

// Run 执行地址拆分
func (d *AddressDecomposer) Run(ctx context.Context) (*StageResult, error) {
	startTime := time.Now()
	result := &StageResult{Stage: d.Name()}

	records, err := d.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取记录快照失败: %w", err)
	}

	for _, record := range records {
		result.Processed++
		updates := make(map[string]interface{})

		// 房产地址：回填后仍可能缺失（无候选的 parcel），缺失则派生字段保持缺失
		if hasAddress(record.PropertyAddress) {
			street, city, splitErr := DecomposePropertyAddress(ScrubAddressText(*record.PropertyAddress))
			if splitErr != nil {
				result.Issues = append(result.Issues, Issue{
					UniqueID: record.UniqueID,
					Type:     IssueAddressFormat,
					Severity: SeverityError,
					Message:  fmt.Sprintf("property_address: %v", splitErr),
				})
			}
			// 无逗号时整串作为街道、城市留空，问题已上报
			if needsUpdate(record.PropertySplitStreet, street) {
				updates["property_split_street"] = street
			}
			if needsUpdate(record.PropertySplitCity, city) {
				updates["property_split_city"] = city
			}
		}

		// 业主地址：可选字段，缺失直接跳过
		if hasAddress(record.OwnerAddress) {
			street, city, state, splitErr := DecomposeOwnerAddress(ScrubAddressText(*record.OwnerAddress))
			if splitErr != nil {
				result.Issues = append(result.Issues, Issue{
					UniqueID: record.UniqueID,
					Type:     IssueAddressFormat,
					Severity: SeverityError,
					Message:  fmt.Sprintf("owner_address: %v", splitErr),
				})
			} else {
				if needsUpdate(record.OwnerSplitStreet, street) {
					updates["owner_split_street"] = street
				}
				if needsUpdate(record.OwnerSplitCity, city) {
					updates["owner_split_city"] = city
				}
				if needsUpdate(record.OwnerSplitState, state) {
					updates["owner_split_state"] = state
				}
			}
		}

		if len(updates) == 0 {
			continue
		}
		if err := d.store.Update(ctx, record.UniqueID, updates); err != nil {
			return nil, fmt.Errorf("更新记录 %d 的拆分地址失败: %w", record.UniqueID, err)
		}
		result.Modified++
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// DecomposePropertyAddress 按第一个逗号拆分 "<street>, <city>"
// 逗号前为街道（去首尾空白）；逗号后跳过恰好一个前导空格、去尾部空白后为城市
// 不含逗号时整串作为街道返回，并返回格式错误供调用方上报
func DecomposePropertyAddress(raw string) (street, city string, err error) {
	idx := strings.Index(raw, ",")
	if idx < 0 {
		return strings.TrimSpace(raw), "", fmt.Errorf("缺少逗号分隔符: %q", raw)
	}

	street = strings.TrimSpace(raw[:idx])
	rest := raw[idx+1:]
	rest = strings.TrimPrefix(rest, " ")
	city = strings.TrimRight(rest, " \t")
	return street, city, nil
}

// DecomposeOwnerAddress 按 ", " 把 "<street>, <city>, <state>" 拆成三段
// 采用从右往左的取值方式：最后一段为州、倒数第二段为城市、其余拼回街道
// 不足三段时返回格式错误，不以空串默认值静默通过
func DecomposeOwnerAddress(raw string) (street, city, state string, err error) {
	parts := strings.Split(raw, ", ")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("预期 3 段逗号分隔内容，实际 %d 段: %q", len(parts), raw)
	}

	state = strings.TrimSpace(parts[len(parts)-1])
	city = strings.TrimSpace(parts[len(parts)-2])
	street = strings.TrimSpace(strings.Join(parts[:len(parts)-2], ", "))
	return street, city, state, nil
}

// addressScrubber 去掉格式控制字符，并把各类 Unicode 空白归一为普通空格
var addressScrubber = transform.Chain(
	runes.Remove(runes.In(unicode.Cf)),
	runes.Map(func(r rune) rune {
		if unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}),
)

// ScrubAddressText 拆分前清理地址文本中的不可见字符（NBSP、零宽字符等）
func ScrubAddressText(s string) string {
	cleaned, _, err := transform.String(addressScrubber, s)
	if err != nil {
		return s
	}
	return cleaned
}

// needsUpdate 派生字段与目标值不一致时才下发更新
func needsUpdate(current *string, target string) bool {
	return current == nil || *current != target
}
