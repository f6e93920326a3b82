/*
 * @module service/cleanse/pipeline
 * @description 清洗流水线编排器：严格顺序执行五个清洗阶段与一次性表结构演进
 * @architecture 分层架构 - 数据清洗服务层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 前置条件检查 -> 派生列准备 -> 日期标准化 -> 地址回填 -> 地址拆分 -> 分类值标准化 -> 去重 -> 收尾列裁剪
 * @rules 阶段顺序固定且后一阶段依赖前一阶段留下的表状态；SchemaStateError 在任何写操作前中止；删除与列裁剪仅在显式关闭演练模式后执行
 * @dependencies housing-cleanse-service/service/models, github.com/google/uuid
 * @refs service.go, store.go
 */

package cleanse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// sourceColumns 流水线的源列，收尾阶段被裁剪；再次运行时缺失即为前置条件破坏
var sourceColumns = []string{"sale_date", "property_address", "owner_address"}

// derivedColumns 流水线写入的派生列，按固定顺序一次性添加
var derivedColumns = []struct {
	name    string
	sqlType string
}{
	{"sale_date_converted", "date"},
	{"property_split_street", "varchar(255)"},
	{"property_split_city", "varchar(128)"},
	{"owner_split_street", "varchar(255)"},
	{"owner_split_city", "varchar(128)"},
	{"owner_split_state", "varchar(32)"},
}

// Options 流水线执行选项
type Options struct {
	// RunID 为空时自动生成
	RunID string
	// Apply 为 true 时执行去重删除与收尾列裁剪；默认演练模式只上报
	Apply bool
}

// Pipeline 清洗流水线编排器
type Pipeline struct {
	store RecordStore
}

// NewPipeline 创建流水线实例
func NewPipeline(store RecordStore) *Pipeline {
	return &Pipeline{store: store}
}

// Execute 执行完整流水线并返回运行报告
func (p *Pipeline) Execute(ctx context.Context, opts Options) (*RunReport, error) {
	startTime := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	mode := "dry_run"
	if opts.Apply {
		mode = "apply"
	}

	report := &RunReport{
		RunID:     runID,
		Mode:      mode,
		StartedAt: startTime,
	}

	// 前置条件：源列必须齐全，否则说明一次性流水线已经运行过，在任何写操作前中止
	if err := p.checkSchemaPrecondition(ctx); err != nil {
		return nil, err
	}

	if err := p.ensureDerivedColumns(ctx); err != nil {
		return nil, &StageError{Stage: StageSchemaPrepare, Err: err}
	}

	// 阶段 1-4：就地点更新，可重复执行
	stages := []interface {
		Name() string
		Run(ctx context.Context) (*StageResult, error)
	}{
		NewDateNormalizer(p.store),
		NewAddressBackfiller(p.store),
		NewAddressDecomposer(p.store),
		NewCategoricalStandardizer(p.store),
	}

	for _, stage := range stages {
		result, err := stage.Run(ctx)
		if err != nil {
			return nil, &StageError{Stage: stage.Name(), Err: err}
		}
		p.observeStage(result)
		report.Stages = append(report.Stages, *result)
		slog.Info("清洗阶段完成",
			"run_id", runID,
			"stage", result.Stage,
			"processed", result.Processed,
			"modified", result.Modified,
			"issues", len(result.Issues))
	}
	if len(report.Stages) > 0 {
		report.TotalRecords = report.Stages[0].Processed
	}

	// 阶段 5：去重，删除只在 apply 模式执行
	dedup := NewDeduplicator(p.store, opts.Apply)
	dedupResult, candidates, err := dedup.Run(ctx)
	if err != nil {
		return nil, &StageError{Stage: dedup.Name(), Err: err}
	}
	p.observeStage(dedupResult)
	report.Stages = append(report.Stages, *dedupResult)
	report.DeleteCandidates = candidates
	report.DeletesApplied = opts.Apply
	slog.Info("去重阶段完成",
		"run_id", runID,
		"candidates", len(candidates),
		"applied", opts.Apply)

	// 收尾：裁剪复合源列并把派生日期列转正，不可逆，仅 apply 模式执行
	if opts.Apply {
		cleanupStart := time.Now()
		if err := p.cleanupSchema(ctx); err != nil {
			return nil, &StageError{Stage: StageSchemaCleanup, Err: err}
		}
		report.SchemaCleanedUp = true
		report.Stages = append(report.Stages, StageResult{
			Stage:    StageSchemaCleanup,
			Duration: time.Since(cleanupStart),
		})
	}

	report.Duration = time.Since(startTime)
	observeRun(report)
	return report, nil
}

// checkSchemaPrecondition 检查源列是否齐全
func (p *Pipeline) checkSchemaPrecondition(ctx context.Context) error {
	var missing []string
	for _, column := range sourceColumns {
		exists, err := p.store.HasField(ctx, column)
		if err != nil {
			return fmt.Errorf("检查列 %s 失败: %w", column, err)
		}
		if !exists {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &SchemaStateError{MissingColumns: missing}
	}
	return nil
}

// ensureDerivedColumns 按固定顺序准备派生列，已存在的列跳过
func (p *Pipeline) ensureDerivedColumns(ctx context.Context) error {
	for _, column := range derivedColumns {
		if err := p.store.AddField(ctx, column.name, column.sqlType); err != nil {
			return fmt.Errorf("添加派生列 %s 失败: %w", column.name, err)
		}
	}
	return nil
}

// cleanupSchema 删除三个复合/未定型源列，并把 sale_date_converted 重命名为 sale_date
func (p *Pipeline) cleanupSchema(ctx context.Context) error {
	for _, column := range sourceColumns {
		if err := p.store.DropField(ctx, column); err != nil {
			return fmt.Errorf("删除源列 %s 失败: %w", column, err)
		}
	}
	if err := p.store.RenameField(ctx, "sale_date_converted", "sale_date"); err != nil {
		return fmt.Errorf("重命名 sale_date_converted 失败: %w", err)
	}
	return nil
}

// observeStage 上报阶段级指标
func (p *Pipeline) observeStage(result *StageResult) {
	stageRecordsProcessed.WithLabelValues(result.Stage).Add(float64(result.Processed))
	stageRecordsModified.WithLabelValues(result.Stage).Add(float64(result.Modified))
	for _, issue := range result.Issues {
		stageIssues.WithLabelValues(result.Stage, string(issue.Type)).Inc()
	}
}
