/*
 * @module service/cleanse/store
 * @description 记录存储能力接口，流水线对数据存储协作方的最小操作面
 * @architecture 端口适配器 - 流水线只依赖该接口，不感知具体存储引擎
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 按主键点更新/点删除 -> 一次性表结构演进
 * @rules 存储引擎本身不在流水线范围内；表结构操作在每次运行中至多执行一次
 * @dependencies housing-cleanse-service/service/models, context
 * @refs service/database/housing_store.go
 */

package cleanse

import (
	"context"

	"housing-cleanse-service/service/models"
)

// RecordStore 流水线使用的表存储能力接口
type RecordStore interface {
	// ReadAll 全量快照读取，按 unique_id 升序返回
	ReadAll(ctx context.Context) ([]models.HousingRecord, error)
	// Update 按主键点更新指定字段
	Update(ctx context.Context, uniqueID int64, updates map[string]interface{}) error
	// Delete 按主键点删除
	Delete(ctx context.Context, uniqueID int64) error

	// HasField 检查列是否存在
	HasField(ctx context.Context, name string) (bool, error)
	// AddField 添加列，列已存在时为幂等空操作
	AddField(ctx context.Context, name, sqlType string) error
	// DropField 删除列
	DropField(ctx context.Context, name string) error
	// RenameField 重命名列
	RenameField(ctx context.Context, oldName, newName string) error
}
