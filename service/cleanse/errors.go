/*
 * @module service/cleanse/errors
 * @description 清洗流水线的错误分类：逐行格式问题按记录收集，前置条件破坏则整体中止
 * @architecture 分层架构 - 错误处理
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 错误产生 -> 分类 -> 逐行收集或整体中止
 * @rules 格式类问题（日期、地址）不中断批处理；SchemaStateError 在任何写操作前中止
 * @dependencies fmt, strings
 * @refs pipeline.go
 */

package cleanse

import (
	"fmt"
	"strings"
)

// IssueType 逐行问题类型
type IssueType string

const (
	IssueMalformedDate     IssueType = "malformed_date"     // 日期无法解析
	IssueAddressFormat     IssueType = "address_format"     // 复合地址缺少预期分隔符
	IssueBackfillAmbiguity IssueType = "backfill_ambiguity" // 地址回填存在多个不同候选值
)

// 问题严重级别
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue 单条记录的质量问题
type Issue struct {
	UniqueID int64     `json:"unique_id"`
	Type     IssueType `json:"type"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
}

// SchemaStateError 表结构前置条件被破坏
// 典型场景：流水线是一次性、非幂等的任务，收尾阶段删除复合列之后再次运行，
// 源字段已不存在，必须在任何写操作前整体中止
type SchemaStateError struct {
	MissingColumns []string
}

func (e *SchemaStateError) Error() string {
	return fmt.Sprintf("表结构前置条件不满足，缺少源列: %s", strings.Join(e.MissingColumns, ", "))
}

// StageError 某个阶段整体失败
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("阶段 %s 执行失败: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
