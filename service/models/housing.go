/*
 * @module service/models/housing
 * @description 房产销售记录模型，对应清洗流水线操作的 housing_records 暂存表
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 原始导入 -> 流水线逐阶段就地修改 -> 去重删除 -> 列裁剪
 * @rules unique_id 为不可变主键；复合地址字段在流水线结束后从表结构中移除
 * @dependencies gorm.io/gorm, time
 * @refs service/cleanse
 */

package models

import "time"

// HousingRecord 房产销售记录
// sale_date 保留 CSV 导入时的原始文本，流水线第一阶段将其解析写入 sale_date_converted；
// property_address / owner_address 为复合字段，第三阶段拆分后在收尾阶段被删除
type HousingRecord struct {
	UniqueID        int64    `json:"unique_id" gorm:"column:unique_id;primaryKey"`
	ParcelID        string   `json:"parcel_id" gorm:"column:parcel_id;size:64;index"`
	LandUse         string   `json:"land_use" gorm:"column:land_use;size:128"`
	PropertyAddress *string  `json:"property_address" gorm:"column:property_address;size:255"`
	SaleDate        string   `json:"sale_date" gorm:"column:sale_date;size:64"`
	SalePrice       float64  `json:"sale_price" gorm:"column:sale_price"`
	LegalReference  string   `json:"legal_reference" gorm:"column:legal_reference;size:128"`
	SoldAsVacant    string   `json:"sold_as_vacant" gorm:"column:sold_as_vacant;size:16"`
	OwnerName       *string  `json:"owner_name" gorm:"column:owner_name;size:255"`
	OwnerAddress    *string  `json:"owner_address" gorm:"column:owner_address;size:255"`
	Acreage         *float64 `json:"acreage" gorm:"column:acreage"`
	TaxDistrict     *string  `json:"tax_district" gorm:"column:tax_district;size:128"`
	LandValue       *float64 `json:"land_value" gorm:"column:land_value"`
	BuildingValue   *float64 `json:"building_value" gorm:"column:building_value"`
	TotalValue      *float64 `json:"total_value" gorm:"column:total_value"`
	YearBuilt       *int     `json:"year_built" gorm:"column:year_built"`
	Bedrooms        *int     `json:"bedrooms" gorm:"column:bedrooms"`
	FullBath        *int     `json:"full_bath" gorm:"column:full_bath"`
	HalfBath        *int     `json:"half_bath" gorm:"column:half_bath"`

	// 流水线派生列
	SaleDateConverted   *time.Time `json:"sale_date_converted" gorm:"column:sale_date_converted;type:date"`
	PropertySplitStreet *string    `json:"property_split_street" gorm:"column:property_split_street;size:255"`
	PropertySplitCity   *string    `json:"property_split_city" gorm:"column:property_split_city;size:128"`
	OwnerSplitStreet    *string    `json:"owner_split_street" gorm:"column:owner_split_street;size:255"`
	OwnerSplitCity      *string    `json:"owner_split_city" gorm:"column:owner_split_city;size:128"`
	OwnerSplitState     *string    `json:"owner_split_state" gorm:"column:owner_split_state;size:32"`
}

// TableName 指定表名
func (HousingRecord) TableName() string {
	return "housing_records"
}
