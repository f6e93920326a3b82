/*
 * @module service/event/run_publisher
 * @description 运行完成事件发布器，把流水线运行结果投递到Kafka供下游订阅
 * @architecture 适配器模式 - 封装第三方Kafka客户端
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 运行完成 -> 事件序列化 -> Kafka投递
 * @rules 事件发布失败不影响流水线结果；未配置Kafka时该组件不创建
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/cleanse/service.go, service/init.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"housing-cleanse-service/service/models"

	"github.com/segmentio/kafka-go"
)

// defaultTopic 运行完成事件默认主题
const defaultTopic = "housing-cleanse-runs"

// RunPublisher Kafka运行事件发布器
type RunPublisher struct {
	writer *kafka.Writer
}

// NewRunPublisher 创建运行事件发布器
// brokers 为逗号分隔的Kafka地址列表，topic 为空时使用默认主题
func NewRunPublisher(brokers, topic string) *RunPublisher {
	if topic == "" {
		topic = defaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}

	return &RunPublisher{writer: writer}
}

// runCompletedEvent 运行完成事件负载
type runCompletedEvent struct {
	EventType      string    `json:"event_type"`
	RunID          string    `json:"run_id"`
	Mode           string    `json:"mode"`
	Status         string    `json:"status"`
	TotalRecords   int       `json:"total_records"`
	UpdatedRecords int       `json:"updated_records"`
	DeleteCount    int       `json:"delete_count"`
	IssueCount     int       `json:"issue_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PublishRunCompleted 发布运行完成事件
func (p *RunPublisher) PublishRunCompleted(ctx context.Context, run *models.PipelineRun) error {
	payload, err := json.Marshal(runCompletedEvent{
		EventType:      "pipeline_run_completed",
		RunID:          run.ID,
		Mode:           run.Mode,
		Status:         run.Status,
		TotalRecords:   run.TotalRecords,
		UpdatedRecords: run.UpdatedRecords,
		DeleteCount:    run.DeleteCount,
		IssueCount:     run.IssueCount,
		OccurredAt:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("序列化运行事件失败: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(run.ID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("投递运行事件失败: %w", err)
	}
	return nil
}

// Close 关闭底层写入器
func (p *RunPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
