/*
 * @module service/cleanse/metrics
 * @description 流水线 Prometheus 指标：阶段处理量、修改量、逐行问题数与运行耗时
 * @architecture 监控层 - 指标采集
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 阶段执行 -> 指标上报 -> /metrics 暴露
 * @rules 指标只增不减，按阶段与问题类型打标签
 * @dependencies github.com/prometheus/client_golang
 * @refs pipeline.go, main.go
 */

package cleanse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageRecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "housing_cleanse_stage_records_processed_total",
		Help: "各清洗阶段检视的记录总数",
	}, []string{"stage"})

	stageRecordsModified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "housing_cleanse_stage_records_modified_total",
		Help: "各清洗阶段下发点更新/删除的记录总数",
	}, []string{"stage"})

	stageIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "housing_cleanse_stage_issues_total",
		Help: "各清洗阶段收集的逐行质量问题总数",
	}, []string{"stage", "type"})

	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "housing_cleanse_pipeline_runs_total",
		Help: "流水线运行总数",
	}, []string{"mode"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "housing_cleanse_pipeline_duration_seconds",
		Help:    "流水线单次运行耗时",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// observeRun 上报运行级指标
func observeRun(report *RunReport) {
	pipelineRuns.WithLabelValues(report.Mode).Inc()
	pipelineDuration.Observe(report.Duration.Seconds())
}
