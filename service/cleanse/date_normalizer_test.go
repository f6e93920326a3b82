/*
 * @module service/cleanse/date_normalizer_test
 * @description 日期标准化阶段测试
 * @architecture 测试层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试数据输入 -> 阶段执行 -> 结果验证
 * @rules 任何可解析输入都得到无时间分量的日期；不可解析输入逐行收集问题
 * @dependencies testing, housing-cleanse-service/testutil
 * @refs date_normalizer.go
 */

package cleanse

import (
	"context"
	"testing"
	"time"

	"housing-cleanse-service/service/database"
	"housing-cleanse-service/service/models"
	"housing-cleanse-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSaleDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"长月份写法", "April 9, 2013", "2013-04-09", false},
		{"短月份写法", "Jun 10, 2014", "2014-06-10", false},
		{"带时间分量", "2013-04-09 14:30:45", "2013-04-09", false},
		{"RFC3339", "2013-04-09T14:30:45Z", "2013-04-09", false},
		{"纯日期", "2013-04-09", "2013-04-09", false},
		{"斜杠写法", "04/09/2013", "2013-04-09", false},
		{"首尾空白", "  2013-04-09  ", "2013-04-09", false},
		{"空值", "", "", true},
		{"乱码", "not a date", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSaleDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			// 时间分量必须被丢弃
			assert.Equal(t, 0, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.Equal(t, 0, got.Second())
		})
	}
}

func TestDateNormalizerRun(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	good := factory.CreateHousingRecord(testutil.WithSaleDate("April 9, 2013"))
	withTime := factory.CreateHousingRecord(testutil.WithSaleDate("2015-08-20 09:15:00"))
	bad := factory.CreateHousingRecord(testutil.WithSaleDate("not-a-date"))

	result, err := NewDateNormalizer(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Modified)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, bad.UniqueID, result.Issues[0].UniqueID)
	assert.Equal(t, IssueMalformedDate, result.Issues[0].Type)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)

	var reloaded models.HousingRecord
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", good.UniqueID).Error)
	require.NotNil(t, reloaded.SaleDateConverted)
	assert.Equal(t, "2013-04-09", reloaded.SaleDateConverted.Format("2006-01-02"))

	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", withTime.UniqueID).Error)
	require.NotNil(t, reloaded.SaleDateConverted)
	assert.Equal(t, "2015-08-20", reloaded.SaleDateConverted.Format("2006-01-02"))

	// 解析失败的记录绝不静默回退到默认日期
	reloaded = models.HousingRecord{}
	require.NoError(t, tdb.DB.First(&reloaded, "unique_id = ?", bad.UniqueID).Error)
	assert.Nil(t, reloaded.SaleDateConverted)
}

func TestDateNormalizerIdempotent(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	store := database.NewHousingStore(tdb.DB)

	factory.CreateHousingRecord(testutil.WithSaleDate("April 9, 2013"))

	normalizer := NewDateNormalizer(store)
	first, err := normalizer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Modified)

	// 第二次运行不再产生更新
	second, err := normalizer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Modified)
}

func TestTruncateToDay(t *testing.T) {
	input := time.Date(2013, 4, 9, 23, 59, 59, 999, time.UTC)
	got := truncateToDay(input)
	assert.Equal(t, time.Date(2013, 4, 9, 0, 0, 0, 0, time.UTC), got)
}
