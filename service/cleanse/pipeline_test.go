/*
 * @module service/cleanse/pipeline_test
 * @description 清洗流水线端到端测试
 * @architecture 测试层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试数据输入 -> 流水线执行 -> 表状态与报告验证
 * @rules 演练模式不删行不裁列；apply 模式执行删除与列裁剪；二次 apply 触发前置条件错误
 * @dependencies testing, housing-cleanse-service/testutil
 * @refs pipeline.go
 */

package cleanse

import (
	"context"
	"errors"
	"testing"

	"housing-cleanse-service/service/database"
	"housing-cleanse-service/service/models"
	"housing-cleanse-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCleanseScenario 造一组覆盖全部五个阶段的记录：
// 1 和 2 是同一宗交易的重复行，2 缺地址由回填补齐；3 是独立交易
func seedCleanseScenario(factory *testutil.TestDataFactory) {
	factory.CreateHousingRecord(
		testutil.WithUniqueID(1),
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("10 Oak Ave, Nashville")),
		testutil.WithOwnerAddress(testutil.StringPtr("10 Oak Ave, Nashville, TN")),
		testutil.WithSaleDate("April 9, 2013"),
		testutil.WithSalePrice(240000),
		testutil.WithLegalReference("20130412-0036474"),
		testutil.WithSoldAsVacant("N"),
	)
	factory.CreateHousingRecord(
		testutil.WithUniqueID(2),
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(nil),
		testutil.WithOwnerAddress(testutil.StringPtr("10 Oak Ave, Nashville, TN")),
		testutil.WithSaleDate("2013-04-09"),
		testutil.WithSalePrice(240000),
		testutil.WithLegalReference("20130412-0036474"),
		testutil.WithSoldAsVacant("Y"),
	)
	factory.CreateHousingRecord(
		testutil.WithUniqueID(3),
		testutil.WithParcelID("P2"),
		testutil.WithPropertyAddress(testutil.StringPtr("55 Pine Rd, Madison")),
		testutil.WithOwnerAddress(testutil.StringPtr("55 Pine Rd, Madison, TN")),
		testutil.WithSaleDate("Jun 10, 2014"),
		testutil.WithSalePrice(132000),
		testutil.WithLegalReference("20140611-0050021"),
		testutil.WithSoldAsVacant("Yes"),
	)
}

func TestPipelineDryRun(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	seedCleanseScenario(factory)

	report, err := NewPipeline(store).Execute(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "dry_run", report.Mode)
	assert.Equal(t, 3, report.TotalRecords)
	assert.False(t, report.DeletesApplied)
	assert.False(t, report.SchemaCleanedUp)
	require.Len(t, report.Stages, 5)

	// 回填后 1 和 2 身份键一致，2 成为删除候选
	require.Len(t, report.DeleteCandidates, 1)
	assert.Equal(t, int64(2), report.DeleteCandidates[0].UniqueID)

	// 演练模式：点更新已落库，行和源列原样保留
	var count int64
	require.NoError(t, tdb.DB.Model(&models.HousingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	hasAddr, err := store.HasField(context.Background(), "property_address")
	require.NoError(t, err)
	assert.True(t, hasAddr)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", int64(2)).Error)
	require.NotNil(t, reloaded.PropertyAddress)
	assert.Equal(t, "10 Oak Ave, Nashville", *reloaded.PropertyAddress)
	require.NotNil(t, reloaded.SaleDateConverted)
	assert.Equal(t, "2013-04-09", reloaded.SaleDateConverted.Format("2006-01-02"))
	require.NotNil(t, reloaded.PropertySplitStreet)
	assert.Equal(t, "10 Oak Ave", *reloaded.PropertySplitStreet)
	assert.Equal(t, "Nashville", *reloaded.PropertySplitCity)
	assert.Equal(t, "TN", *reloaded.OwnerSplitState)
	assert.Equal(t, "Yes", reloaded.SoldAsVacant)
}

func TestPipelineDryRunRepeatable(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	seedCleanseScenario(factory)

	pipeline := NewPipeline(store)
	_, err := pipeline.Execute(context.Background(), Options{})
	require.NoError(t, err)

	// 演练模式可重复执行，第二次不再产生更新
	second, err := pipeline.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.UpdatedRecords())
	require.Len(t, second.DeleteCandidates, 1)
}

func TestPipelineApply(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	seedCleanseScenario(factory)

	report, err := NewPipeline(store).Execute(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, "apply", report.Mode)
	assert.True(t, report.DeletesApplied)
	assert.True(t, report.SchemaCleanedUp)
	require.Len(t, report.Stages, 6)

	// 重复行已删除
	var count int64
	require.NoError(t, tdb.DB.Table("housing_records").Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// 复合源列已裁剪，标准化日期列顶替 sale_date
	ctx := context.Background()
	for _, column := range []string{"property_address", "owner_address", "sale_date_converted"} {
		exists, err := store.HasField(ctx, column)
		require.NoError(t, err)
		assert.False(t, exists, column)
	}
	exists, err := store.HasField(ctx, "sale_date")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipelineRerunAfterApplyFails(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	seedCleanseScenario(factory)

	pipeline := NewPipeline(store)
	_, err := pipeline.Execute(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	// 一次性流水线：列裁剪后再执行必须在任何写操作前失败
	_, err = pipeline.Execute(context.Background(), Options{Apply: true})
	require.Error(t, err)

	var schemaErr *SchemaStateError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.MissingColumns, "property_address")
	assert.Contains(t, schemaErr.MissingColumns, "owner_address")
	assert.NotContains(t, schemaErr.MissingColumns, "sale_date")
}
