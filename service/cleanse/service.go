/*
 * @module service/cleanse/service
 * @description 清洗服务：编排流水线执行，负责运行记录与逐行问题的落库、运行锁与完成事件
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 运行锁获取 -> 运行记录创建 -> 流水线执行 -> 问题落库 -> 状态更新 -> 事件发布
 * @rules 同一时刻至多一个流水线在执行；运行失败时记录失败阶段与原因，退出码由调用方决定
 * @dependencies housing-cleanse-service/service/models, gorm.io/gorm, github.com/google/uuid
 * @refs pipeline.go, service/init.go
 */

package cleanse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"housing-cleanse-service/service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runLockKey 流水线运行锁的键，防止多实例并发写同一张表
const runLockKey = "housing_cleanse:pipeline_run"

// runLockTTL 运行锁的过期时间，覆盖最长预期批处理时长
const runLockTTL = 30 * time.Minute

// RunLock 运行锁能力接口
type RunLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RunPublisher 运行完成事件发布接口
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run *models.PipelineRun) error
}

// Service 清洗服务
type Service struct {
	db        *gorm.DB
	store     RecordStore
	lock      RunLock      // 可为空，单实例部署时不需要
	publisher RunPublisher // 可为空，未配置消息代理时不发布
}

// NewService 创建清洗服务实例
func NewService(db *gorm.DB, store RecordStore) *Service {
	return &Service{db: db, store: store}
}

// SetRunLock 配置运行锁
func (s *Service) SetRunLock(lock RunLock) {
	s.lock = lock
}

// SetPublisher 配置运行完成事件发布器
func (s *Service) SetPublisher(publisher RunPublisher) {
	s.publisher = publisher
}

// ExecuteRun 执行一次流水线运行并持久化运行记录
func (s *Service) ExecuteRun(ctx context.Context, apply bool, triggeredBy string) (*models.PipelineRun, *RunReport, error) {
	if s.lock != nil {
		acquired, err := s.lock.TryLock(ctx, runLockKey, runLockTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("获取运行锁失败: %w", err)
		}
		if !acquired {
			return nil, nil, fmt.Errorf("已有清洗流水线在运行，拒绝并发执行")
		}
		defer func() {
			if err := s.lock.Unlock(ctx, runLockKey); err != nil {
				slog.Warn("释放运行锁失败", "error", err)
			}
		}()
	}

	mode := models.RunModeDryRun
	if apply {
		mode = models.RunModeApply
	}

	run := &models.PipelineRun{
		ID:          uuid.NewString(),
		Mode:        mode,
		Status:      models.RunStatusRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, nil, fmt.Errorf("创建运行记录失败: %w", err)
	}

	report, err := NewPipeline(s.store).Execute(ctx, Options{RunID: run.ID, Apply: apply})
	if err != nil {
		s.markRunFailed(run, err)
		return run, nil, err
	}

	s.persistReport(run, report)
	s.publishCompleted(ctx, run)
	return run, report, nil
}

// markRunFailed 记录失败阶段与原因
func (s *Service) markRunFailed(run *models.PipelineRun, err error) {
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = err.Error()
	run.FinishedAt = &now

	var stageErr *StageError
	var schemaErr *SchemaStateError
	switch {
	case errors.As(err, &schemaErr):
		run.FailedStage = StageSchemaPrepare
	case errors.As(err, &stageErr):
		run.FailedStage = stageErr.Stage
	}

	if dbErr := s.db.Save(run).Error; dbErr != nil {
		slog.Error("更新失败运行记录失败", "run_id", run.ID, "error", dbErr)
	}
}

// persistReport 把运行报告写回运行记录并落库逐行问题
func (s *Service) persistReport(run *models.PipelineRun, report *RunReport) {
	issues := report.AllIssues()
	rows := make([]models.RecordIssue, 0, len(issues))
	for _, stage := range report.Stages {
		for _, issue := range stage.Issues {
			rows = append(rows, models.RecordIssue{
				RunID:     run.ID,
				UniqueID:  issue.UniqueID,
				Stage:     stage.Stage,
				IssueType: string(issue.Type),
				Severity:  issue.Severity,
				Message:   issue.Message,
			})
		}
	}
	if len(rows) > 0 {
		if err := s.db.CreateInBatches(rows, 200).Error; err != nil {
			slog.Error("落库逐行问题失败", "run_id", run.ID, "error", err)
		}
	}

	now := time.Now()
	run.Status = models.RunStatusSucceeded
	run.TotalRecords = report.TotalRecords
	run.UpdatedRecords = report.UpdatedRecords()
	run.DeleteCount = len(report.DeleteCandidates)
	run.IssueCount = len(issues)
	run.StageStats = report.StageStats()
	run.FinishedAt = &now

	if err := s.db.Save(run).Error; err != nil {
		slog.Error("更新运行记录失败", "run_id", run.ID, "error", err)
	}
}

// publishCompleted 发布运行完成事件，失败只记日志不影响运行结果
func (s *Service) publishCompleted(ctx context.Context, run *models.PipelineRun) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRunCompleted(ctx, run); err != nil {
		slog.Warn("发布运行完成事件失败", "run_id", run.ID, "error", err)
	}
}

// GetRun 查询单次运行
func (s *Service) GetRun(runID string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns 分页查询运行记录，按开始时间倒序
func (s *Service) ListRuns(page, size int) ([]models.PipelineRun, int64, error) {
	var runs []models.PipelineRun
	var total int64

	if err := s.db.Model(&models.PipelineRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.db.Order("started_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&runs).Error
	return runs, total, err
}

// ListIssues 分页查询某次运行的逐行问题
func (s *Service) ListIssues(runID string, page, size int) ([]models.RecordIssue, int64, error) {
	var issues []models.RecordIssue
	var total int64

	query := s.db.Model(&models.RecordIssue{}).Where("run_id = ?", runID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id").
		Offset((page - 1) * size).
		Limit(size).
		Find(&issues).Error
	return issues, total, err
}
