package knowledge

import (
	"context"
	"fmt"
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

func TestRepository_UpsertIntuitionSingleActiveRow(t *testing.T) {
	repo, ctx := setupRepository(t)

	now := time.Now()
	category := fmt.Sprintf("it_%d", now.UnixNano())
	base := contracts.Intuition{
		Category:        category,
		Condition:       category + " 패턴 발생",
		Confidence:      0.6,
		SuccessRate:     0.4,
		SupportingCount: 2,
		Market:          contracts.MarketKR,
		LastValidatedAt: &now,
	}

	first, err := repo.UpsertIntuition(ctx, base)
	require.NoError(t, err)

	next := base
	next.Confidence = 0.9
	next.SuccessRate = 1.0
	next.SupportingCount = 2
	second, err := repo.UpsertIntuition(ctx, next)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.SupportingCount)
	assert.InDelta(t, 0.75, second.Confidence, 1e-9)
	assert.InDelta(t, 0.7, second.SuccessRate, 1e-9)
}

func TestRepository_UpsertPrincipleReinforces(t *testing.T) {
	repo, ctx := setupRepository(t)

	now := time.Now()
	p := contracts.Principle{
		Scope:            contracts.ScopeUniversal,
		Condition:        fmt.Sprintf("cond_%d", now.UnixNano()),
		Action:           "관망",
		Priority:         "high",
		Confidence:       0.95,
		SupportingTrades: 1,
		SourceJournalIDs: []int64{1},
		Market:           contracts.MarketKR,
		LastValidatedAt:  &now,
	}

	first, err := repo.UpsertPrinciple(ctx, p)
	require.NoError(t, err)

	p.SourceJournalIDs = []int64{1, 2}
	second, err := repo.UpsertPrinciple(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 1.0, second.Confidence, 1e-9)
	assert.Equal(t, 2, second.SupportingTrades)
	assert.Equal(t, []int64{1, 2}, second.SourceJournalIDs)
}

func TestRepository_RecordAndPromote(t *testing.T) {
	repo, ctx := setupRepository(t)

	id, err := repo.Record(ctx, contracts.JournalEntry{
		Ticker:      "005930",
		Market:      contracts.MarketKR,
		TradeDate:   time.Now().AddDate(-5, 0, 0),
		ProfitRate:  0.03,
		Lessons:     []contracts.Lesson{{Condition: "c", Action: "a", Priority: "low"}},
		PatternTags: []string{"breakout"},
	})
	require.NoError(t, err)

	n, err := repo.PromoteJournal(ctx, []int64{id}, contracts.LayerCompressed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 낮은 계층으로는 되돌아가지 않음
	n, err = repo.PromoteJournal(ctx, []int64{id}, contracts.LayerSummarized)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ids, err := repo.ListArchivableJournal(ctx, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	require.NoError(t, repo.ApplyRetention(ctx, RetentionPlan{ArchiveJournalIDs: []int64{id}}))
}

func TestDecodeJournalFields(t *testing.T) {
	var ok contracts.JournalEntry
	decodeJournalFields(&ok, `[{"condition":"c","action":"a","priority":"high"}]`, `["breakout"]`)
	require.NoError(t, ok.LessonsErr)
	require.NoError(t, ok.TagsErr)
	assert.Equal(t, []string{"breakout"}, ok.PatternTags)
	assert.Equal(t, "high", ok.Lessons[0].Priority)

	var badTags contracts.JournalEntry
	decodeJournalFields(&badTags, `[{"condition":"c","action":"a"}]`, `{not json`)
	require.Error(t, badTags.TagsErr)
	assert.Contains(t, badTags.TagsErr.Error(), "pattern_tags_json")
	assert.Nil(t, badTags.PatternTags)
	require.NoError(t, badTags.LessonsErr)
	assert.Len(t, badTags.Lessons, 1)

	var badLessons contracts.JournalEntry
	decodeJournalFields(&badLessons, `{not json`, `["breakout"]`)
	require.Error(t, badLessons.LessonsErr)
	assert.Contains(t, badLessons.LessonsErr.Error(), "lessons_json")
	assert.Nil(t, badLessons.Lessons)
	require.NoError(t, badLessons.TagsErr)
	assert.Equal(t, []string{"breakout"}, badLessons.PatternTags)
}
