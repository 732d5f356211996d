package tracker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// HorizonStats 기간별 수익률 통계
type HorizonStats struct {
	SampleCount int     `json:"sample_count"`
	AvgReturn   float64 `json:"avg_return"`
	WinRate     float64 `json:"win_rate"`
	P10Return   float64 `json:"p10_return"` // 하위 10% 수익률
}

// GroupStats 그룹별 통계 (키 → 기간별 통계)
type GroupStats struct {
	Key      string                             `json:"key"`
	Records  int                                `json:"records"`
	Horizons map[contracts.Horizon]HorizonStats `json:"horizons"`
}

// Report 성과 추적 집계
type Report struct {
	StatusCounts map[contracts.TrackingStatus]int `json:"status_counts"`
	ByTrigger    []GroupStats                     `json:"by_trigger"` // completed 레코드 한정
	Traded       GroupStats                       `json:"traded"`     // 실제 매매
	Watched      GroupStats                       `json:"watched"`    // 관망
}

// Aggregator 성과 추적 통계 집계기
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator 새 집계기 생성
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("component", "tracker.aggregator").Logger(),
	}
}

// Load 저장소에서 전체 레코드를 읽어 집계
func (a *Aggregator) Load(ctx context.Context, store Store) (*Report, error) {
	records, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracker records: %w", err)
	}
	return a.Aggregate(records), nil
}

// Aggregate 상태별 건수, 트리거별 평균(완료 레코드), 매매/관망 비교
func (a *Aggregator) Aggregate(records []contracts.TrackerRecord) *Report {
	report := &Report{
		StatusCounts: map[contracts.TrackingStatus]int{
			contracts.StatusPending:    0,
			contracts.StatusInProgress: 0,
			contracts.StatusCompleted:  0,
		},
	}

	var completed []contracts.TrackerRecord
	for _, r := range records {
		report.StatusCounts[r.Status]++
		if r.Status == contracts.StatusCompleted {
			completed = append(completed, r)
		}
	}

	// 트리거 타입별 (완료 레코드만)
	groups := groupByKey(completed, func(r contracts.TrackerRecord) string { return r.TriggerType })
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.ByTrigger = append(report.ByTrigger, calculateStats(k, groups[k]))
	}

	// 매매 vs 관망 (기록된 슬롯 기준)
	var traded, watched []contracts.TrackerRecord
	for _, r := range records {
		if r.WasTraded {
			traded = append(traded, r)
		} else {
			watched = append(watched, r)
		}
	}
	report.Traded = calculateStats("traded", traded)
	report.Watched = calculateStats("watched", watched)

	a.log.Info().
		Int("records", len(records)).
		Int("completed", len(completed)).
		Int("triggers", len(report.ByTrigger)).
		Msg("tracker aggregation completed")

	return report
}

// calculateStats 기간마다 기록된 수익률만으로 통계 계산
func calculateStats(key string, records []contracts.TrackerRecord) GroupStats {
	stats := GroupStats{
		Key:      key,
		Records:  len(records),
		Horizons: make(map[contracts.Horizon]HorizonStats, len(contracts.Horizons)),
	}

	for _, h := range contracts.Horizons {
		var values []float64
		for i := range records {
			if ret := records[i].Slot(h).Return; ret != nil {
				values = append(values, *ret)
			}
		}
		if len(values) == 0 {
			continue
		}

		var sum float64
		var wins int
		for _, v := range values {
			sum += v
			if v > 0 {
				wins++
			}
		}

		n := float64(len(values))
		stats.Horizons[h] = HorizonStats{
			SampleCount: len(values),
			AvgReturn:   sum / n,
			WinRate:     float64(wins) / n,
			P10Return:   calculatePercentile(values, 10),
		}
	}

	return stats
}

// groupByKey 키로 그룹핑
func groupByKey(records []contracts.TrackerRecord, keyFn func(contracts.TrackerRecord) string) map[string][]contracts.TrackerRecord {
	groups := make(map[string][]contracts.TrackerRecord)
	for _, r := range records {
		key := keyFn(r)
		if key == "" {
			key = "unknown"
		}
		groups[key] = append(groups[key], r)
	}
	return groups
}

// calculatePercentile 백분위수 계산
func calculatePercentile(values []float64, percentile int) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)-1) * float64(percentile) / 100.0)
	return sorted[idx]
}

// Print 리포트를 표 형태로 출력
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Tracking Status ===")
	fmt.Fprintf(w, "  pending:     %d\n", r.StatusCounts[contracts.StatusPending])
	fmt.Fprintf(w, "  in_progress: %d\n", r.StatusCounts[contracts.StatusInProgress])
	fmt.Fprintf(w, "  completed:   %d\n", r.StatusCounts[contracts.StatusCompleted])

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Average Return by Trigger (completed) ===")
	if len(r.ByTrigger) == 0 {
		fmt.Fprintln(w, "  (no completed records)")
	}
	for _, g := range r.ByTrigger {
		printGroup(w, g)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Traded vs Watched ===")
	printGroup(w, r.Traded)
	printGroup(w, r.Watched)
}

func printGroup(w io.Writer, g GroupStats) {
	cols := make([]string, 0, len(contracts.Horizons))
	for _, h := range contracts.Horizons {
		s, ok := g.Horizons[h]
		if !ok {
			cols = append(cols, fmt.Sprintf("%2dd: -", h.Days()))
			continue
		}
		cols = append(cols, fmt.Sprintf("%2dd: %+6.2f%% (n=%d, win %.0f%%)", h.Days(), s.AvgReturn*100, s.SampleCount, s.WinRate*100))
	}
	fmt.Fprintf(w, "  %-16s [%d] %s\n", g.Key, g.Records, strings.Join(cols, " | "))
}
