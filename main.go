package main

import (
	"context"
	"housing-cleanse-service/api"
	_ "housing-cleanse-service/docs"
	"housing-cleanse-service/logger"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"housing-cleanse-service/service"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	PORT         = 80
	BASE_CONTEXT = ""
)

func init() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		PORT, _ = strconv.Atoi(val)
	}

	if val := os.Getenv("BASE_CONTEXT"); val != "" {
		BASE_CONTEXT = val
	}
}

// @title 房产数据清洗服务 API
// @version 1.0
// @description 房产销售记录批量清洗服务，提供日期标准化、地址回填与拆分、分类值规范化和去重能力
// @BasePath /swagger/housing-cleanse-service
func main() {
	logger.InitLogger()

	// 一次性批处理模式：执行流水线后按结果退出，不启动HTTP服务
	if os.Getenv("RUN_ONCE") == "true" {
		runOnce()
		return
	}

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if BASE_CONTEXT != "" {
		mux.Route(BASE_CONTEXT, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(PORT), mux)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}

// runOnce 以批处理方式执行一次流水线
// PIPELINE_APPLY=true 时关闭演练模式；退出码 0 表示全部阶段成功
func runOnce() {
	apply := os.Getenv("PIPELINE_APPLY") == "true"

	run, report, err := service.GlobalCleanseService.ExecuteRun(context.Background(), apply, "once")
	if err != nil {
		failedStage := ""
		if run != nil {
			failedStage = run.FailedStage
		}
		slog.Error("流水线运行失败", "stage", failedStage, "error", err)
		os.Exit(1)
	}

	slog.Info("流水线运行成功",
		"run_id", run.ID,
		"mode", run.Mode,
		"total_records", report.TotalRecords,
		"updated_records", report.UpdatedRecords(),
		"delete_candidates", len(report.DeleteCandidates),
		"deletes_applied", report.DeletesApplied,
		"issues", run.IssueCount)
}
