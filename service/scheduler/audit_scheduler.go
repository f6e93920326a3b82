/*
 * @module service/scheduler/audit_scheduler
 * @description 审计调度器：按cron表达式定期执行演练模式的清洗流水线，产出质量报告
 * @architecture 分层架构 - 调度层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow cron触发 -> 演练模式运行 -> 报告落库
 * @rules 调度只触发演练模式（可安全重复）；apply模式必须人工显式触发
 * @dependencies github.com/robfig/cron/v3, housing-cleanse-service/service/cleanse
 * @refs service/init.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"housing-cleanse-service/service/cleanse"

	"github.com/robfig/cron/v3"
)

// AuditScheduler 演练审计调度器
type AuditScheduler struct {
	cleanseService *cleanse.Service
	cron           *cron.Cron
	spec           string
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewAuditScheduler 创建审计调度器，spec 为cron表达式（含秒字段）
func NewAuditScheduler(cleanseService *cleanse.Service, spec string) *AuditScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditScheduler{
		cleanseService: cleanseService,
		cron:           cron.New(cron.WithSeconds()),
		spec:           spec,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动调度器
func (s *AuditScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runAudit); err != nil {
		return fmt.Errorf("注册审计任务失败: %w", err)
	}

	s.cron.Start()
	log.Printf("审计调度器启动完成, cron=%s", s.spec)
	return nil
}

// Stop 停止调度器
func (s *AuditScheduler) Stop() {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("审计调度器已停止")
}

// runAudit 执行一次演练模式运行
func (s *AuditScheduler) runAudit() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	run, _, err := s.cleanseService.ExecuteRun(ctx, false, "schedule")
	if err != nil {
		log.Printf("定时审计运行失败: %v", err)
		return
	}
	log.Printf("定时审计运行完成: run_id=%s, 待删除候选=%d, 问题=%d",
		run.ID, run.DeleteCount, run.IssueCount)
}
