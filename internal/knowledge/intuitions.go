package knowledge

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
)

const (
	// minGroupSize 직관 도출에 필요한 최소 동일 태그 항목 수
	minGroupSize = 2

	baseConfidence    = 0.4
	successWeight     = 0.5
	maxIntuitionScore = 0.9
)

// tagGroup 같은 패턴 태그를 공유하는 저널 항목 묶음
type tagGroup struct {
	Tag     string
	Entries []contracts.JournalEntry
}

// IntuitionConfidence 성공률 기반 신뢰도 = min(0.9, 0.4 + 성공률×0.5)
func IntuitionConfidence(successRate float64) float64 {
	return math.Min(maxIntuitionScore, baseConfidence+successRate*successWeight)
}

// groupByTag 패턴 태그별 그룹핑 (한 항목이 여러 그룹에 속할 수 있음)
// 태그 해석 실패 항목만 제외하고 건너뛴 수를 반환
func groupByTag(entries []contracts.JournalEntry, log zerolog.Logger) ([]tagGroup, int) {
	groups := make(map[string][]contracts.JournalEntry)
	skipped := 0

	for _, e := range entries {
		if e.TagsErr != nil {
			log.Warn().
				Err(e.TagsErr).
				Int64("journal_id", e.ID).
				Str("ticker", e.Ticker).
				Msg("malformed pattern tags, excluded from aggregation")
			skipped++
			continue
		}

		seen := make(map[string]bool, len(e.PatternTags))
		for _, raw := range e.PatternTags {
			tag := strings.TrimSpace(raw)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			groups[tag] = append(groups[tag], e)
		}
	}

	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	result := make([]tagGroup, 0, len(tags))
	for _, tag := range tags {
		result = append(result, tagGroup{Tag: tag, Entries: groups[tag]})
	}
	return result, skipped
}

// deriveIntuition 태그 그룹 통계로 직관 생성 (그룹이 작으면 nil)
func deriveIntuition(g tagGroup, market contracts.Market, now time.Time) *contracts.Intuition {
	n := len(g.Entries)
	if n < minGroupSize {
		return nil
	}

	var sumProfit float64
	var wins int
	for _, e := range g.Entries {
		sumProfit += e.ProfitRate
		if e.IsWin() {
			wins++
		}
	}

	avgProfit := sumProfit / float64(n)
	successRate := float64(wins) / float64(n)

	return &contracts.Intuition{
		Category:  g.Tag,
		Condition: fmt.Sprintf("%s 패턴 발생", g.Tag),
		Insight: fmt.Sprintf("%s 패턴 %d건: 평균 수익률 %+.1f%%, 성공률 %.0f%%",
			g.Tag, n, avgProfit*100, successRate*100),
		Confidence:      IntuitionConfidence(successRate),
		SuccessRate:     successRate,
		SupportingCount: n,
		Market:          market,
		CreatedAt:       now,
		LastValidatedAt: &now,
		IsActive:        true,
	}
}

// DeriveIntuitions 같은 시장의 layer-2 항목들에서 직관 목록 도출
// 반환: 직관 목록, 해석 실패로 집계에서 제외된 항목 수
func DeriveIntuitions(entries []contracts.JournalEntry, market contracts.Market, now time.Time, log zerolog.Logger) ([]contracts.Intuition, int) {
	groups, skipped := groupByTag(entries, log)

	var intuitions []contracts.Intuition
	for _, g := range groups {
		if in := deriveIntuition(g, market, now); in != nil {
			intuitions = append(intuitions, *in)
		}
	}
	return intuitions, skipped
}
