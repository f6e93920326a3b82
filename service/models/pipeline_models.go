/*
 * @module service/models/pipeline_models
 * @description 清洗流水线运行记录与逐行问题模型，以及流水线相关的请求结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 运行创建 -> 阶段执行 -> 问题落库 -> 运行状态更新
 * @rules 格式类问题逐行收集，不中断批处理；删除候选仅在 apply 模式下真正执行
 * @dependencies gorm.io/gorm, time
 * @refs service/cleanse
 */

package models

import "time"

// 流水线运行模式
const (
	RunModeDryRun = "dry_run" // 只读演练：汇报待删除记录，不执行删除和列裁剪
	RunModeApply  = "apply"   // 正式执行：删除重复记录并裁剪复合列
)

// 流水线运行状态
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun 一次清洗流水线运行
type PipelineRun struct {
	ID             string     `json:"id" gorm:"primaryKey;size:64"`
	Mode           string     `json:"mode" gorm:"not null;size:16"`
	Status         string     `json:"status" gorm:"not null;size:16;index"`
	TriggeredBy    string     `json:"triggered_by" gorm:"size:32"` // manual, schedule, once
	TotalRecords   int        `json:"total_records"`
	UpdatedRecords int        `json:"updated_records"`
	DeleteCount    int        `json:"delete_count"` // apply 模式为已删除数，dry_run 模式为候选数
	IssueCount     int        `json:"issue_count"`
	FailedStage    string     `json:"failed_stage,omitempty" gorm:"size:64"`
	ErrorMessage   string     `json:"error_message,omitempty" gorm:"size:2000"`
	StageStats     JSONB      `json:"stage_stats" gorm:"type:jsonb"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (PipelineRun) TableName() string {
	return "cleanse_pipeline_runs"
}

// RecordIssue 单条记录在某个阶段产生的质量问题
type RecordIssue struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID     string    `json:"run_id" gorm:"size:64;index"`
	UniqueID  int64     `json:"unique_id"`
	Stage     string    `json:"stage" gorm:"size:64"`
	IssueType string    `json:"issue_type" gorm:"size:64"` // malformed_date, address_format, backfill_ambiguity
	Severity  string    `json:"severity" gorm:"size:16"`   // error, warning
	Message   string    `json:"message" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (RecordIssue) TableName() string {
	return "cleanse_record_issues"
}

// PipelineRunRequest 触发流水线运行的请求
type PipelineRunRequest struct {
	Apply bool `json:"apply" example:"false"` // true 时关闭演练模式，执行删除与列裁剪
}
