package tracker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/pkg/config"
	"github.com/wonny/aegis-insight/pkg/database"
)

func setupRepository(t *testing.T) (*Repository, context.Context) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	return NewRepository(db.Pool), ctx
}

func TestRepository_SaveProgressKeepsFilledSlots(t *testing.T) {
	repo, ctx := setupRepository(t)

	analyzed := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	id, err := repo.Insert(ctx, contracts.TrackerRecord{
		Ticker:        "005930",
		CompanyName:   "삼성전자",
		TriggerType:   "volume_surge",
		AnalyzedDate:  analyzed,
		AnalyzedPrice: 10000,
		Decision:      "watch",
	})
	require.NoError(t, err)

	recs, err := repo.ListByIDs(ctx, []int64{id})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, contracts.StatusPending, rec.Status)

	day7 := analyzed.AddDate(0, 0, 7)
	rec.Tracked7D = contracts.HorizonSlot{Date: &day7, Price: ptr(10300.0), Return: ptr(0.03)}
	rec.Status = contracts.StatusInProgress
	require.NoError(t, repo.SaveProgress(ctx, rec))

	// 같은 슬롯에 다른 값을 저장해도 기존 값 유지
	overwrite := rec
	overwrite.Tracked7D = contracts.HorizonSlot{Date: &day7, Price: ptr(99999.0), Return: ptr(8.9999)}
	require.NoError(t, repo.SaveProgress(ctx, overwrite))

	recs, err = repo.ListByIDs(ctx, []int64{id})
	require.NoError(t, err)
	require.NotNil(t, recs[0].Tracked7D.Return)
	assert.InDelta(t, 0.03, *recs[0].Tracked7D.Return, 1e-9)
	assert.Equal(t, contracts.StatusInProgress, recs[0].Status)
}

func TestRepository_SaveProgressMissingRow(t *testing.T) {
	repo, ctx := setupRepository(t)

	err := repo.SaveProgress(ctx, contracts.TrackerRecord{ID: -1, Status: contracts.StatusPending})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestRepository_ResetAndSave(t *testing.T) {
	repo, ctx := setupRepository(t)

	analyzed := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	id, err := repo.Insert(ctx, contracts.TrackerRecord{
		Ticker:        "000660",
		AnalyzedDate:  analyzed,
		AnalyzedPrice: 100,
	})
	require.NoError(t, err)

	d := analyzed.AddDate(0, 0, 30)
	same := contracts.HorizonSlot{Date: &d, Price: ptr(110.0), Return: ptr(0.1)}
	require.NoError(t, repo.SaveProgress(ctx, contracts.TrackerRecord{
		ID: id, Tracked7D: same, Tracked14D: same, Tracked30D: same, Status: contracts.StatusCompleted,
	}))

	suspicious, err := repo.ListSuspicious(ctx)
	require.NoError(t, err)
	assert.True(t, containsRecord(suspicious, id))

	d7 := analyzed.AddDate(0, 0, 7)
	require.NoError(t, repo.ResetAndSave(ctx, contracts.TrackerRecord{
		ID:        id,
		Tracked7D: contracts.HorizonSlot{Date: &d7, Price: ptr(103.0), Return: ptr(0.03)},
		Status:    contracts.StatusInProgress,
	}))

	recs, err := repo.ListByIDs(ctx, []int64{id})
	require.NoError(t, err)
	assert.InDelta(t, 0.03, *recs[0].Tracked7D.Return, 1e-9)
	assert.Nil(t, recs[0].Tracked14D.Return)
	assert.Nil(t, recs[0].Tracked30D.Return)
	assert.Equal(t, contracts.StatusInProgress, recs[0].Status)
}

func containsRecord(recs []contracts.TrackerRecord, id int64) bool {
	for _, r := range recs {
		if r.ID == id {
			return true
		}
	}
	return false
}
