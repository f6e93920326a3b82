/*
 * @module api/controllers/pipeline_controller
 * @description 清洗流水线控制器，提供运行触发、运行报告与逐行问题查询
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 请求接收 -> 业务逻辑处理 -> 响应返回
 * @rules 默认演练模式；apply模式需要请求显式声明，删除与列裁剪不可逆
 * @dependencies net/http, housing-cleanse-service/service
 * @refs service/cleanse/
 */

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"housing-cleanse-service/service"
	"housing-cleanse-service/service/cleanse"
	"housing-cleanse-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// PipelineController 清洗流水线控制器
type PipelineController struct {
	cleanseService *cleanse.Service
}

// NewPipelineController 创建清洗流水线控制器实例
func NewPipelineController() *PipelineController {
	return &PipelineController{
		cleanseService: service.GlobalCleanseService,
	}
}

// CreateRun 触发一次流水线运行
// @Summary 触发清洗流水线运行
// @Description 执行完整的五阶段清洗流水线；apply为false时为演练模式，只上报待删除候选
// @Tags 流水线
// @Accept json
// @Produce json
// @Param request body models.PipelineRunRequest true "运行参数"
// @Success 200 {object} APIResponse{data=models.PipelineRun}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /pipeline/runs [post]
func (c *PipelineController) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req models.PipelineRunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{
			Status: 1,
			Msg:    "请求体解析失败: " + err.Error(),
		})
		return
	}

	run, report, err := c.cleanseService.ExecuteRun(r.Context(), req.Apply, "manual")
	if err != nil {
		var schemaErr *cleanse.SchemaStateError
		if errors.As(err, &schemaErr) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, APIResponse{
				Status: 1,
				Msg:    "流水线前置条件不满足: " + err.Error(),
				Data:   run,
			})
			return
		}

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{
			Status: 1,
			Msg:    "流水线执行失败: " + err.Error(),
			Data:   run,
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: 0,
		Msg:    "流水线执行成功",
		Data: map[string]interface{}{
			"run":    run,
			"report": report,
		},
	})
}

// ListRuns 获取运行记录列表
// @Summary 获取流水线运行记录列表
// @Description 分页获取历史运行记录，按开始时间倒序
// @Tags 流水线
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页大小" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.PipelineRun}
// @Failure 500 {object} APIResponse
// @Router /pipeline/runs [get]
func (c *PipelineController) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)

	runs, total, err := c.cleanseService.ListRuns(page, size)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{
			Status: 1,
			Msg:    "查询运行记录失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "查询成功",
		Data:   runs,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRun 获取单次运行详情
// @Summary 获取单次流水线运行详情
// @Description 按运行ID查询运行记录，含各阶段统计
// @Tags 流水线
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.PipelineRun}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /pipeline/runs/{id} [get]
func (c *PipelineController) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	run, err := c.cleanseService.GetRun(runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, APIResponse{
				Status: 1,
				Msg:    "运行记录不存在",
			})
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{
			Status: 1,
			Msg:    "查询运行记录失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: 0,
		Msg:    "查询成功",
		Data:   run,
	})
}

// ListIssues 获取某次运行的逐行问题
// @Summary 获取某次运行的逐行质量问题
// @Description 分页获取指定运行收集的逐行问题（日期解析失败、地址格式违规、回填歧义）
// @Tags 流水线
// @Produce json
// @Param id path string true "运行ID"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页大小" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.RecordIssue}
// @Failure 500 {object} APIResponse
// @Router /pipeline/runs/{id}/issues [get]
func (c *PipelineController) ListIssues(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	page, size := parsePagination(r)

	issues, total, err := c.cleanseService.ListIssues(runID, page, size)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{
			Status: 1,
			Msg:    "查询逐行问题失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "查询成功",
		Data:   issues,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// parsePagination 解析分页参数
func parsePagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	return page, size
}
