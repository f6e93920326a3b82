/*
 * @module service/cleanse/categorical_standardizer_test
 * @description 分类值标准化阶段测试
 * @architecture 测试层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试数据输入 -> 阶段执行 -> 结果验证
 * @rules 仅 Y/N 被改写为 Yes/No，其余值原样保留
 * @dependencies testing, housing-cleanse-service/testutil
 * @refs categorical_standardizer.go
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

func TestStandardizeSoldAsVacant(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Y", "Yes"},
		{"N", "No"},
		{"Yes", "Yes"},
		{"No", "No"},
		{"Maybe", "Maybe"},
		{"", ""},
		{"y", "y"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StandardizeSoldAsVacant(tt.input))
	}
}

func TestCategoricalStandardizerRun(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	abbrevYes := factory.CreateHousingRecord(testutil.WithSoldAsVacant("Y"))
	abbrevNo := factory.CreateHousingRecord(testutil.WithSoldAsVacant("N"))
	already := factory.CreateHousingRecord(testutil.WithSoldAsVacant("Yes"))
	unknown := factory.CreateHousingRecord(testutil.WithSoldAsVacant("Maybe"))

	result, err := NewCategoricalStandardizer(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Processed)
	assert.Equal(t, 2, result.Modified)
	assert.Empty(t, result.Issues)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", abbrevYes.UniqueID).Error)
	assert.Equal(t, "Yes", reloaded.SoldAsVacant)
	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", abbrevNo.UniqueID).Error)
	assert.Equal(t, "No", reloaded.SoldAsVacant)
	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", already.UniqueID).Error)
	assert.Equal(t, "Yes", reloaded.SoldAsVacant)
	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", unknown.UniqueID).Error)
	assert.Equal(t, "Maybe", reloaded.SoldAsVacant)
}

func TestCategoricalStandardizerIdempotent(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	factory.CreateHousingRecord(testutil.WithSoldAsVacant("Y"))

	standardizer := NewCategoricalStandardizer(store)
	first, err := standardizer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Modified)

	second, err := standardizer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Modified)
}
