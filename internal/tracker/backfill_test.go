package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-insight/internal/contracts"
)

func ptr(v float64) *float64 { return &v }

func datePtr(t time.Time) *time.Time { return &t }

// suspicious 세 슬롯이 같은 값(0.05)으로 기록된 레코드
func suspicious(id int64, ticker string) contracts.TrackerRecord {
	rec := record(id, ticker, 10000)
	filled := analyzedDay.AddDate(0, 0, 30)
	for _, h := range contracts.Horizons {
		*rec.Slot(h) = contracts.HorizonSlot{Date: datePtr(filled), Price: ptr(10500), Return: ptr(0.05)}
	}
	rec.Status = contracts.StatusCompleted
	return rec
}

func newTestBackfiller(prices contracts.PriceLookup, store Store, cfg BackfillConfig, today time.Time) *Backfiller {
	b := NewBackfiller(prices, store, cfg, zerolog.Nop())
	b.now = func() time.Time { return today }
	return b
}

func TestBackfill_ResetsIdenticalReturns(t *testing.T) {
	prices := newFakePrices()
	// 7일째(2/9 월) 종가, 14일째(2/16)는 휴장이라 직전 2/13 종가, 30일째는 데이터 없음
	prices.set("005930", analyzedDay.AddDate(0, 0, 7), 10300)
	prices.set("005930", analyzedDay.AddDate(0, 0, 11), 10900)
	prices.set("005930", analyzedDay.AddDate(0, 0, 20), 99999) // 창 밖

	store := newMemStore(suspicious(1, "005930"), record(2, "000660", 100))
	cfg := BackfillConfig{WindowDays: 5}

	result, err := newTestBackfiller(prices, store, cfg, analyzedDay.AddDate(0, 0, 40)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, contracts.BatchSummary{Processed: 1, Updated: 1}, result.Summary)

	rec := store.get(1)
	require.True(t, rec.Tracked7D.Filled())
	require.True(t, rec.Tracked14D.Filled())
	assert.InDelta(t, 0.03, *rec.Tracked7D.Return, 1e-9)
	assert.InDelta(t, 0.09, *rec.Tracked14D.Return, 1e-9)
	assert.Equal(t, analyzedDay.AddDate(0, 0, 11), *rec.Tracked14D.Date)

	assert.False(t, rec.Tracked30D.Filled(), "missing history leaves the slot empty")
	assert.Nil(t, rec.Tracked30D.Return)
	assert.Equal(t, contracts.StatusInProgress, rec.Status)
	assert.False(t, IsSuspicious(rec))
}

func TestBackfill_ExplicitIDs(t *testing.T) {
	prices := newFakePrices()
	prices.set("A", analyzedDay.AddDate(0, 0, 7), 120)

	rec := record(5, "A", 100)
	store := newMemStore(rec, suspicious(6, "B"))

	result, err := newTestBackfiller(prices, store, BackfillConfig{WindowDays: 5}, analyzedDay.AddDate(0, 0, 10)).
		Run(context.Background(), []int64{5})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, int64(5), result.Records[0].ID)
	assert.Equal(t, []contracts.Horizon{contracts.Horizon7D}, result.Records[0].Found)
	assert.InDelta(t, 0.2, *store.get(5).Tracked7D.Return, 1e-9)
	assert.True(t, IsSuspicious(store.get(6)), "untargeted record untouched")
}

func TestBackfill_FutureHorizonsNotQueried(t *testing.T) {
	prices := newFakePrices()
	store := newMemStore(suspicious(1, "X"))

	_, err := newTestBackfiller(prices, store, BackfillConfig{WindowDays: 5}, analyzedDay.AddDate(0, 0, 10)).
		Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, prices.callCount(), "only the 7d target is in the past")
	rec := store.get(1)
	assert.False(t, rec.Tracked7D.Filled())
	assert.Equal(t, contracts.StatusInProgress, rec.Status)
}

func TestBackfill_LookupErrorKeepsRecord(t *testing.T) {
	prices := newFakePrices()
	prices.fail["X"] = errors.New("503")
	store := newMemStore(suspicious(1, "X"))

	result, err := newTestBackfiller(prices, store, BackfillConfig{WindowDays: 5}, analyzedDay.AddDate(0, 0, 40)).
		Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Errors)
	assert.True(t, IsSuspicious(store.get(1)))
}

func TestBackfill_DryRun(t *testing.T) {
	prices := newFakePrices()
	prices.set("X", analyzedDay.AddDate(0, 0, 7), 1)
	store := newMemStore(suspicious(1, "X"))

	result, err := newTestBackfiller(prices, store, BackfillConfig{WindowDays: 5, DryRun: true}, analyzedDay.AddDate(0, 0, 40)).
		Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Updated)
	assert.True(t, IsSuspicious(store.get(1)))
}

func TestBackfill_LookupsAreSpaced(t *testing.T) {
	prices := newFakePrices()
	store := newMemStore(suspicious(1, "X"))
	delay := 20 * time.Millisecond

	start := time.Now()
	_, err := newTestBackfiller(prices, store, BackfillConfig{WindowDays: 5, Delay: delay}, analyzedDay.AddDate(0, 0, 40)).
		Run(context.Background(), nil)
	require.NoError(t, err)

	// 3회 조회 → 최소 2번의 간격
	assert.Equal(t, 3, prices.callCount())
	assert.GreaterOrEqual(t, time.Since(start), 2*delay-5*time.Millisecond)
}

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		name string
		r7   *float64
		r14  *float64
		r30  *float64
		want bool
	}{
		{"all equal", ptr(0.05), ptr(0.05), ptr(0.05), true},
		{"distinct", ptr(0.05), ptr(0.06), ptr(0.05), false},
		{"missing 30d", ptr(0.05), ptr(0.05), nil, false},
		{"empty", nil, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec contracts.TrackerRecord
			rec.Tracked7D.Return, rec.Tracked14D.Return, rec.Tracked30D.Return = tt.r7, tt.r14, tt.r30
			assert.Equal(t, tt.want, IsSuspicious(rec))
		})
	}
}
