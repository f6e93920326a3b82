/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建流水线自身的记录表
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 只迁移流水线的运行记录与问题表；housing_records 暂存表由外部导入流程负责，不在此创建
 * @dependencies housing-cleanse-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"housing-cleanse-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移流水线记录表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	err := db.AutoMigrate(
		&models.PipelineRun{},
		&models.RecordIssue{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}
