/*
 * @module service/database/housing_store
 * @description housing_records 表的 gorm 存储适配器，实现流水线的最小存储能力接口
 * @architecture 端口适配器 - 存储适配层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 快照读取 -> 点更新/点删除 -> 表结构演进
 * @rules 表结构操作通过 gorm Migrator 执行，添加列对已存在列幂等；存储引擎差异由 gorm 方言屏蔽
 * @dependencies housing-cleanse-service/service/models, gorm.io/gorm
 * @refs service/cleanse/store.go
 */

package database

import (
	"context"
	"fmt"

	"housing-cleanse-service/service/models"

	"gorm.io/gorm"
)

// HousingStore housing_records 表的 gorm 存储适配器
type HousingStore struct {
	db *gorm.DB
}

// NewHousingStore 创建存储适配器实例
func NewHousingStore(db *gorm.DB) *HousingStore {
	return &HousingStore{db: db}
}

// ReadAll 全量快照读取，按 unique_id 升序
func (s *HousingStore) ReadAll(ctx context.Context) ([]models.HousingRecord, error) {
	var records []models.HousingRecord
	if err := s.db.WithContext(ctx).Order("unique_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("读取 housing_records 失败: %w", err)
	}
	return records, nil
}

// Update 按主键点更新指定字段
func (s *HousingStore) Update(ctx context.Context, uniqueID int64, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&models.HousingRecord{}).
		Where("unique_id = ?", uniqueID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新记录 %d 失败: %w", uniqueID, result.Error)
	}
	return nil
}

// Delete 按主键点删除
func (s *HousingStore) Delete(ctx context.Context, uniqueID int64) error {
	result := s.db.WithContext(ctx).
		Where("unique_id = ?", uniqueID).
		Delete(&models.HousingRecord{})
	if result.Error != nil {
		return fmt.Errorf("删除记录 %d 失败: %w", uniqueID, result.Error)
	}
	return nil
}

// HasField 检查列是否存在
func (s *HousingStore) HasField(ctx context.Context, name string) (bool, error) {
	return s.db.WithContext(ctx).Migrator().HasColumn(&models.HousingRecord{}, name), nil
}

// AddField 添加列，已存在时为幂等空操作
func (s *HousingStore) AddField(ctx context.Context, name, sqlType string) error {
	db := s.db.WithContext(ctx)
	if db.Migrator().HasColumn(&models.HousingRecord{}, name) {
		return nil
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		models.HousingRecord{}.TableName(), name, sqlType)
	if err := db.Exec(sql).Error; err != nil {
		return fmt.Errorf("添加列 %s 失败: %w", name, err)
	}
	return nil
}

// DropField 删除列
func (s *HousingStore) DropField(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Migrator().DropColumn(&models.HousingRecord{}, name); err != nil {
		return fmt.Errorf("删除列 %s 失败: %w", name, err)
	}
	return nil
}

// RenameField 重命名列
func (s *HousingStore) RenameField(ctx context.Context, oldName, newName string) error {
	if err := s.db.WithContext(ctx).Migrator().RenameColumn(&models.HousingRecord{}, oldName, newName); err != nil {
		return fmt.Errorf("重命名列 %s -> %s 失败: %w", oldName, newName, err)
	}
	return nil
}
