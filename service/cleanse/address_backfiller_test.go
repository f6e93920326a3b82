/*
 * @module service/cleanse/address_backfiller_test
 * @description 地址回填阶段测试
 * @architecture 测试层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试数据输入 -> 阶段执行 -> 结果验证
 * @rules 同组非缺失地址传播到所有缺失成员；无候选时保持缺失；多候选产生告警
 * @dependencies testing, housing-cleanse-service/testutil
 * @refs address_backfiller.go
 */

package cleanse

import (
	"context"
	"testing"

	"housing-cleanse-service/service/database"
	"housing-cleanse-service/service/models"
	"housing-cleanse-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressBackfillerFillsMissing(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	donor := factory.CreateHousingRecord(
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("10 Oak Ave, Nashville")),
	)
	missing := factory.CreateHousingRecord(
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(nil),
	)
	otherParcel := factory.CreateHousingRecord(
		testutil.WithParcelID("P2"),
		testutil.WithPropertyAddress(nil),
	)

	result, err := NewAddressBackfiller(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Modified)
	assert.Empty(t, result.Issues)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", missing.UniqueID).Error)
	require.NotNil(t, reloaded.PropertyAddress)
	assert.Equal(t, *donor.PropertyAddress, *reloaded.PropertyAddress)

	// 无候选的组保持缺失，交由下游容忍
	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", otherParcel.UniqueID).Error)
	assert.Nil(t, reloaded.PropertyAddress)
}

func TestAddressBackfillerTieBreak(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	// 候选取 unique_id 最小的非缺失记录
	factory.CreateHousingRecord(
		testutil.WithUniqueID(20),
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("20 Elm St, Nashville")),
	)
	factory.CreateHousingRecord(
		testutil.WithUniqueID(10),
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("10 Oak Ave, Nashville")),
	)
	missing := factory.CreateHousingRecord(
		testutil.WithUniqueID(30),
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(nil),
	)

	result, err := NewAddressBackfiller(store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Modified)

	// 不同候选地址并存时产生非致命告警
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IssueBackfillAmbiguity, result.Issues[0].Type)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Equal(t, missing.UniqueID, result.Issues[0].UniqueID)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", missing.UniqueID).Error)
	require.NotNil(t, reloaded.PropertyAddress)
	assert.Equal(t, "10 Oak Ave, Nashville", *reloaded.PropertyAddress)
}

func TestAddressBackfillerTreatsBlankAsMissing(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	factory.CreateHousingRecord(
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("10 Oak Ave, Nashville")),
	)
	blank := factory.CreateHousingRecord(
		testutil.WithParcelID("P1"),
		testutil.WithPropertyAddress(testutil.StringPtr("   ")),
	)

	result, err := NewAddressBackfiller(store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Modified)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", blank.UniqueID).Error)
	assert.Equal(t, "10 Oak Ave, Nashville", *reloaded.PropertyAddress)
}
