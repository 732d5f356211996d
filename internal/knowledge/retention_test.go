package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-insight/internal/contracts"
)

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func principle(id int64, conf float64, trades int, validated *time.Time) contracts.Principle {
	return contracts.Principle{
		ID:               id,
		Condition:        "cond",
		Action:           "act",
		Confidence:       conf,
		SupportingTrades: trades,
		LastValidatedAt:  validated,
		IsActive:         true,
	}
}

func intuition(id int64, conf float64, support int, validated *time.Time) contracts.Intuition {
	return contracts.Intuition{
		ID:              id,
		Category:        "tag",
		Confidence:      conf,
		SupportingCount: support,
		LastValidatedAt: validated,
		IsActive:        true,
	}
}

func newTestRetention(store RetentionStore, cfg RetentionConfig) *RetentionPolicy {
	r := NewRetentionPolicy(store, cfg, zerolog.Nop())
	r.now = func() time.Time { return testNow }
	return r
}

func TestBuildRetentionPlan_Categories(t *testing.T) {
	principles := []contracts.Principle{
		principle(1, 0.2, 9, daysAgo(1)),   // 저신뢰
		principle(2, 0.8, 1, nil),          // 검증 이력 없음
		principle(3, 0.8, 1, daysAgo(120)), // 오래됨
		principle(4, 0.9, 5, daysAgo(10)),  // 유지
		principle(5, 0.1, 1, nil),          // 저신뢰가 우선
	}

	plan := BuildRetentionPlan(principles, nil, DefaultRetentionConfig(), testNow)

	assert.Equal(t, []int64{1, 5}, plan.LowConfidencePrinciples)
	assert.Equal(t, []int64{2, 3}, plan.StalePrinciples)
	assert.Empty(t, plan.OverflowPrinciples)
	assert.ElementsMatch(t, []int64{1, 5, 2, 3}, plan.PrincipleIDs())
}

func TestBuildRetentionPlan_CapOrdering(t *testing.T) {
	fresh := daysAgo(1)
	principles := []contracts.Principle{
		principle(1, 0.50, 10, fresh),
		principle(2, 0.50, 2, fresh),
		principle(3, 0.90, 1, fresh),
		principle(4, 0.40, 50, fresh),
		principle(5, 0.50, 2, fresh),
		principle(6, 0.20, 1, fresh), // 저신뢰로 먼저 제거, 상한 계산에서 제외
	}
	cfg := DefaultRetentionConfig()
	cfg.MaxPrinciples = 2

	plan := BuildRetentionPlan(principles, nil, cfg, testNow)

	assert.Equal(t, []int64{6}, plan.LowConfidencePrinciples)
	// (신뢰도, 지지 수, id) 오름차순: 4(0.4) → 2(0.5,2) → 5(0.5,2) → 1(0.5,10) → 3
	assert.Equal(t, []int64{4, 2, 5}, plan.OverflowPrinciples)
}

func TestBuildRetentionPlan_IntuitionCap(t *testing.T) {
	fresh := daysAgo(3)
	intuitions := []contracts.Intuition{
		intuition(10, 0.7, 3, fresh),
		intuition(11, 0.7, 2, fresh),
		intuition(12, 0.8, 1, fresh),
	}
	cfg := DefaultRetentionConfig()
	cfg.MaxIntuitions = 1

	plan := BuildRetentionPlan(nil, intuitions, cfg, testNow)
	assert.Equal(t, []int64{11, 10}, plan.OverflowIntuitions)
}

func TestRetentionPolicy_RunEnforcesCap(t *testing.T) {
	store := newMemStore(
		entry(100, contracts.MarketKR, 400, contracts.LayerCompressed, 0.01),
		entry(101, contracts.MarketKR, 400, contracts.LayerSummarized, 0.01),
		entry(102, contracts.MarketKR, 30, contracts.LayerCompressed, 0.01),
	)
	for i := int64(1); i <= 6; i++ {
		store.principles = append(store.principles, principle(i, 0.3+0.1*float64(i), int(i), daysAgo(1)))
	}
	cfg := DefaultRetentionConfig()
	cfg.MaxPrinciples = 4

	result, err := newTestRetention(store, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Applied)
	active, _ := store.ListActivePrinciples(context.Background())
	assert.Len(t, active, 4)
	assert.Equal(t, []int64{1, 2}, result.Plan.OverflowPrinciples)
	assert.Equal(t, []int64{100}, result.Plan.ArchiveJournalIDs)

	_, stillThere := store.journal[100]
	assert.False(t, stillThere)
	_, kept := store.journal[101]
	assert.True(t, kept, "layer-2 entries are never archived")
	assert.Equal(t, 3, result.Summary.Updated)
}

func TestRetentionPolicy_DryRun(t *testing.T) {
	store := newMemStore(entry(100, contracts.MarketKR, 400, contracts.LayerCompressed, 0.01))
	store.principles = append(store.principles, principle(1, 0.1, 1, daysAgo(1)))
	cfg := DefaultRetentionConfig()
	cfg.DryRun = true

	result, err := newTestRetention(store, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, []int64{1}, result.Plan.LowConfidencePrinciples)
	assert.Equal(t, 2, result.Summary.Updated)
	assert.Empty(t, store.applied)

	active, _ := store.ListActivePrinciples(context.Background())
	assert.Len(t, active, 1)
	_, exists := store.journal[100]
	assert.True(t, exists)
}

func TestRetentionPolicy_ApplyFailureAborts(t *testing.T) {
	store := newMemStore()
	store.principles = append(store.principles, principle(1, 0.1, 1, daysAgo(1)))
	store.failApply = true

	result, err := newTestRetention(store, DefaultRetentionConfig()).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Applied)
	assert.Equal(t, 1, result.Summary.Errors)

	active, _ := store.ListActivePrinciples(context.Background())
	assert.Len(t, active, 1)
}

func TestRetentionPolicy_EmptyPlanSkipsApply(t *testing.T) {
	store := newMemStore()
	result, err := newTestRetention(store, DefaultRetentionConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Plan.Empty())
	assert.Empty(t, store.applied)
}
