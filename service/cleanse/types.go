/*
 * @module service/cleanse/types
 * @description 流水线阶段结果与运行报告类型定义
 * @architecture 分层架构 - 数据清洗服务层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 阶段执行 -> 阶段结果汇总 -> 运行报告生成
 * @rules 报告完整记录每个阶段的处理量、修改量与逐行问题
 * @dependencies time
 * @refs pipeline.go, service.go
 */

package cleanse

import "time"

// 阶段名称，与执行顺序一一对应
const (
	StageSchemaPrepare    = "schema_prepare"
	StageDateNormalize    = "date_normalize"
	StageAddressBackfill  = "address_backfill"
	StageAddressDecompose = "address_decompose"
	StageCategoricalStd   = "categorical_standardize"
	StageDeduplicate      = "deduplicate"
	StageSchemaCleanup    = "schema_cleanup"
)

// StageResult 单个阶段的执行结果
type StageResult struct {
	Stage     string        `json:"stage"`
	Processed int           `json:"processed"` // 快照中被该阶段检视的记录数
	Modified  int           `json:"modified"`  // 实际下发点更新的记录数
	Issues    []Issue       `json:"issues,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// DeleteCandidate 去重阶段识别出的待删除记录
type DeleteCandidate struct {
	UniqueID int64  `json:"unique_id"`
	GroupKey string `json:"group_key"`
	Rank     int    `json:"rank"` // 组内排名，1 为保留记录，>1 为删除对象
}

// RunReport 一次流水线运行的完整报告
type RunReport struct {
	RunID            string            `json:"run_id"`
	Mode             string            `json:"mode"`
	TotalRecords     int               `json:"total_records"`
	Stages           []StageResult     `json:"stages"`
	DeleteCandidates []DeleteCandidate `json:"delete_candidates,omitempty"`
	DeletesApplied   bool              `json:"deletes_applied"`
	SchemaCleanedUp  bool              `json:"schema_cleaned_up"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         time.Duration     `json:"duration"`
}

// UpdatedRecords 汇总所有阶段下发的点更新数
func (r *RunReport) UpdatedRecords() int {
	total := 0
	for _, s := range r.Stages {
		total += s.Modified
	}
	return total
}

// AllIssues 汇总所有阶段的逐行问题
func (r *RunReport) AllIssues() []Issue {
	var issues []Issue
	for _, s := range r.Stages {
		issues = append(issues, s.Issues...)
	}
	return issues
}

// StageStats 以阶段名为键的统计摘要，便于落库展示
func (r *RunReport) StageStats() map[string]interface{} {
	stats := make(map[string]interface{}, len(r.Stages))
	for _, s := range r.Stages {
		stats[s.Stage] = map[string]interface{}{
			"processed":   s.Processed,
			"modified":    s.Modified,
			"issue_count": len(s.Issues),
			"duration_ms": s.Duration.Milliseconds(),
		}
	}
	return stats
}
