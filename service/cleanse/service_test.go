/*
 * @module service/cleanse/service_test
 * @description 清洗服务测试
 * @architecture 测试层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 测试数据输入 -> 服务执行 -> 运行记录与问题落库验证
 * @rules 运行记录与逐行问题必须落库可查；运行锁占用时拒绝执行；失败运行记录失败阶段
 * @dependencies testing, housing-cleanse-service/testutil
 * @refs service.go
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

func newTestService(tdb *testutil.TestDB) *Service {
	return NewService(tdb.DB, database.NewHousingStore(tdb.DB))
}

func TestServiceExecuteRunPersistsRunAndIssues(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)

	factory.CreateHousingRecord(testutil.WithSaleDate("not-a-date"))
	factory.CreateHousingRecord(testutil.WithSaleDate("April 9, 2013"))

	svc := newTestService(tdb)
	run, report, err := svc.ExecuteRun(context.Background(), false, "api")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, models.RunModeDryRun, run.Mode)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
	assert.Equal(t, "api", run.TriggeredBy)
	assert.Equal(t, 2, run.TotalRecords)
	assert.Equal(t, 1, run.IssueCount)
	require.NotNil(t, run.FinishedAt)

	// 运行记录可按 ID 回查
	stored, err := svc.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, stored.Status)
	assert.NotEmpty(t, stored.StageStats)

	// 逐行问题落库且关联运行 ID
	issues, total, err := svc.ListIssues(run.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, issues, 1)
	assert.Equal(t, run.ID, issues[0].RunID)
	assert.Equal(t, StageDateNormalize, issues[0].Stage)
	assert.Equal(t, "malformed_date", issues[0].IssueType)
}

func TestServiceListRuns(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)

	factory.CreateHousingRecord()

	svc := newTestService(tdb)
	_, _, err := svc.ExecuteRun(context.Background(), false, "api")
	require.NoError(t, err)
	_, _, err = svc.ExecuteRun(context.Background(), false, "schedule")
	require.NoError(t, err)

	runs, total, err := svc.ListRuns(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, runs, 2)

	runs, total, err = svc.ListRuns(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, runs, 1)
}

func TestServiceExecuteRunMarksFailure(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	svc := newTestService(tdb)
	store := database.NewHousingStore(tdb.DB)

	// 先裁剪源列，模拟一次性流水线已经运行过
	require.NoError(t, store.DropField(context.Background(), "property_address"))

	run, _, err := svc.ExecuteRun(context.Background(), true, "api")
	require.Error(t, err)
	require.NotNil(t, run)

	stored, gerr := svc.GetRun(run.ID)
	require.NoError(t, gerr)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.Equal(t, StageSchemaPrepare, stored.FailedStage)
	assert.NotEmpty(t, stored.ErrorMessage)
	require.NotNil(t, stored.FinishedAt)
}

// stubLock 始终返回指定占用状态的运行锁
type stubLock struct {
	acquired bool
	unlocked bool
}

func (l *stubLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.acquired, nil
}

func (l *stubLock) Unlock(ctx context.Context, key string) error {
	l.unlocked = true
	return nil
}

func TestServiceExecuteRunRejectsWhenLocked(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	svc := newTestService(tdb)
	svc.SetRunLock(&stubLock{acquired: false})

	_, _, err := svc.ExecuteRun(context.Background(), false, "api")
	require.Error(t, err)

	// 未获得锁时不产生运行记录
	runs, total, lerr := svc.ListRuns(1, 10)
	require.NoError(t, lerr)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, runs)
}

func TestServiceExecuteRunReleasesLock(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	factory.CreateHousingRecord()

	lock := &stubLock{acquired: true}
	svc := newTestService(tdb)
	svc.SetRunLock(lock)

	_, _, err := svc.ExecuteRun(context.Background(), false, "api")
	require.NoError(t, err)
	assert.True(t, lock.unlocked)
}
