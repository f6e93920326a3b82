/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, time
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"housing-cleanse-service/service/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.HousingRecord{},
		&models.PipelineRun{},
		&models.RecordIssue{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"housing_records",
		"cleanse_pipeline_runs",
		"cleanse_record_issues",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// HousingRecordOption 房产记录选项函数类型
type HousingRecordOption func(*models.HousingRecord)

var nextUniqueID int64 = 1000

// CreateHousingRecord 创建测试房产记录
func (f *TestDataFactory) CreateHousingRecord(opts ...HousingRecordOption) *models.HousingRecord {
	record := &models.HousingRecord{
		UniqueID:        atomic.AddInt64(&nextUniqueID, 1),
		ParcelID:        "007 00 0 125.00",
		LandUse:         "SINGLE FAMILY",
		PropertyAddress: StringPtr("1808 FOX CHASE DR, GOODLETTSVILLE"),
		SaleDate:        "April 9, 2013",
		SalePrice:       240000,
		LegalReference:  "20130412-0036474",
		SoldAsVacant:    "N",
		OwnerAddress:    StringPtr("1808 FOX CHASE DR, GOODLETTSVILLE, TN"),
	}

	// 应用选项
	for _, opt := range opts {
		opt(record)
	}

	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create housing record: %v", err))
	}
	return record
}

// WithUniqueID 指定主键
func WithUniqueID(id int64) HousingRecordOption {
	return func(r *models.HousingRecord) { r.UniqueID = id }
}

// WithParcelID 指定宗地号
func WithParcelID(parcelID string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.ParcelID = parcelID }
}

// WithPropertyAddress 指定房产地址，传nil表示缺失
func WithPropertyAddress(addr *string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.PropertyAddress = addr }
}

// WithOwnerAddress 指定业主地址，传nil表示缺失
func WithOwnerAddress(addr *string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.OwnerAddress = addr }
}

// WithSaleDate 指定原始销售日期文本
func WithSaleDate(raw string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.SaleDate = raw }
}

// WithSalePrice 指定成交价
func WithSalePrice(price float64) HousingRecordOption {
	return func(r *models.HousingRecord) { r.SalePrice = price }
}

// WithLegalReference 指定法律文书号
func WithLegalReference(ref string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.LegalReference = ref }
}

// WithSoldAsVacant 指定空置出售标记
func WithSoldAsVacant(value string) HousingRecordOption {
	return func(r *models.HousingRecord) { r.SoldAsVacant = value }
}

// CreatePipelineRun 创建测试运行记录
func (f *TestDataFactory) CreatePipelineRun(mode string) *models.PipelineRun {
	run := &models.PipelineRun{
		ID:        fmt.Sprintf("run_%d", time.Now().UnixNano()),
		Mode:      mode,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := f.DB.Create(run).Error; err != nil {
		panic(fmt.Sprintf("failed to create pipeline run: %v", err))
	}
	return run
}

// StringPtr 字符串指针辅助函数
func StringPtr(s string) *string {
	return &s
}
