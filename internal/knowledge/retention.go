package knowledge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// MinConfidence 이 값 미만의 지식은 비활성화
const MinConfidence = 0.3

// RetentionConfig 보존 정책 설정
type RetentionConfig struct {
	MaxPrinciples int
	MaxIntuitions int
	StaleDays     int
	ArchiveDays   int // layer-3 저널 영구 삭제 경과일
	DryRun        bool
}

// DefaultRetentionConfig 기본 설정 (50 / 50 / 90일 / 365일)
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MaxPrinciples: 50,
		MaxIntuitions: 50,
		StaleDays:     90,
		ArchiveDays:   365,
	}
}

// RetentionPlan 보존 정책 실행 계획
// 각 분류는 서로 겹치지 않음 (저신뢰 → 오래됨 → 상한 초과 순으로 판정)
type RetentionPlan struct {
	LowConfidencePrinciples []int64 `json:"low_confidence_principles"`
	LowConfidenceIntuitions []int64 `json:"low_confidence_intuitions"`
	StalePrinciples         []int64 `json:"stale_principles"`
	StaleIntuitions         []int64 `json:"stale_intuitions"`
	OverflowPrinciples      []int64 `json:"overflow_principles"`
	OverflowIntuitions      []int64 `json:"overflow_intuitions"`
	ArchiveJournalIDs       []int64 `json:"archive_journal_ids"`
}

// PrincipleIDs 비활성화 대상 원칙 전체
func (p RetentionPlan) PrincipleIDs() []int64 {
	return concatIDs(p.LowConfidencePrinciples, p.StalePrinciples, p.OverflowPrinciples)
}

// IntuitionIDs 비활성화 대상 직관 전체
func (p RetentionPlan) IntuitionIDs() []int64 {
	return concatIDs(p.LowConfidenceIntuitions, p.StaleIntuitions, p.OverflowIntuitions)
}

// Empty 변경 사항 없음
func (p RetentionPlan) Empty() bool {
	return len(p.PrincipleIDs()) == 0 && len(p.IntuitionIDs()) == 0 && len(p.ArchiveJournalIDs) == 0
}

// Summary 계획 크기 요약 (deactivate + archive = updated)
func (p RetentionPlan) Summary(processed int) contracts.BatchSummary {
	return contracts.BatchSummary{
		Processed: processed,
		Updated:   len(p.PrincipleIDs()) + len(p.IntuitionIDs()) + len(p.ArchiveJournalIDs),
	}
}

func (p RetentionPlan) String() string {
	return fmt.Sprintf(
		"principles[low=%d stale=%d overflow=%d] intuitions[low=%d stale=%d overflow=%d] archived=%d",
		len(p.LowConfidencePrinciples), len(p.StalePrinciples), len(p.OverflowPrinciples),
		len(p.LowConfidenceIntuitions), len(p.StaleIntuitions), len(p.OverflowIntuitions),
		len(p.ArchiveJournalIDs),
	)
}

// RetentionResult 보존 정책 실행 결과
type RetentionResult struct {
	Plan    RetentionPlan          `json:"plan"`
	Summary contracts.BatchSummary `json:"summary"`
	DryRun  bool                   `json:"dry_run"`
	Applied bool                   `json:"applied"`
}

// RetentionPolicy 지식 보존 정책
// ⭐ SSOT: 유일한 다중 문장 트랜잭션. 실패 시 전체 롤백 후 에러 반환
type RetentionPolicy struct {
	store RetentionStore
	cfg   RetentionConfig
	log   zerolog.Logger
	now   func() time.Time
}

// NewRetentionPolicy 새 보존 정책 생성
func NewRetentionPolicy(store RetentionStore, cfg RetentionConfig, log zerolog.Logger) *RetentionPolicy {
	return &RetentionPolicy{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "knowledge.retention").Logger(),
		now:   time.Now,
	}
}

// Plan 현재 스냅샷에서 실행 계획만 계산 (변경 없음)
func (r *RetentionPolicy) Plan(ctx context.Context) (RetentionPlan, int, error) {
	principles, err := r.store.ListActivePrinciples(ctx)
	if err != nil {
		return RetentionPlan{}, 0, fmt.Errorf("list principles: %w", err)
	}

	intuitions, err := r.store.ListActiveIntuitions(ctx)
	if err != nil {
		return RetentionPlan{}, 0, fmt.Errorf("list intuitions: %w", err)
	}

	now := r.now()
	archiveCutoff := now.AddDate(0, 0, -r.cfg.ArchiveDays)
	archive, err := r.store.ListArchivableJournal(ctx, archiveCutoff)
	if err != nil {
		return RetentionPlan{}, 0, fmt.Errorf("list archivable journal: %w", err)
	}

	plan := BuildRetentionPlan(principles, intuitions, r.cfg, now)
	plan.ArchiveJournalIDs = archive

	return plan, len(principles) + len(intuitions) + len(archive), nil
}

// Run 계획 계산 후 단일 트랜잭션으로 반영 (dry-run이면 계획만 반환)
func (r *RetentionPolicy) Run(ctx context.Context) (*RetentionResult, error) {
	plan, processed, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	result := &RetentionResult{
		Plan:    plan,
		Summary: plan.Summary(processed),
		DryRun:  r.cfg.DryRun,
	}

	r.log.Info().
		Bool("dry_run", r.cfg.DryRun).
		Str("plan", plan.String()).
		Msg("retention planned")

	if r.cfg.DryRun || plan.Empty() {
		return result, nil
	}

	if err := r.store.ApplyRetention(ctx, plan); err != nil {
		result.Summary.Updated = 0
		result.Summary.Errors = 1
		return result, fmt.Errorf("apply retention: %w", err)
	}
	result.Applied = true

	r.log.Info().Str("summary", result.Summary.String()).Msg("retention applied")
	return result, nil
}

// rankedItem 보존 판정용 공통 표현
type rankedItem struct {
	ID            int64
	Confidence    float64
	Support       int
	LastValidated *time.Time
}

// BuildRetentionPlan 스냅샷 기반 순수 계획 계산
func BuildRetentionPlan(principles []contracts.Principle, intuitions []contracts.Intuition, cfg RetentionConfig, now time.Time) RetentionPlan {
	staleCutoff := now.AddDate(0, 0, -cfg.StaleDays)

	pItems := make([]rankedItem, 0, len(principles))
	for _, p := range principles {
		pItems = append(pItems, rankedItem{ID: p.ID, Confidence: p.Confidence, Support: p.SupportingTrades, LastValidated: p.LastValidatedAt})
	}
	iItems := make([]rankedItem, 0, len(intuitions))
	for _, in := range intuitions {
		iItems = append(iItems, rankedItem{ID: in.ID, Confidence: in.Confidence, Support: in.SupportingCount, LastValidated: in.LastValidatedAt})
	}

	var plan RetentionPlan
	plan.LowConfidencePrinciples, plan.StalePrinciples, plan.OverflowPrinciples = classify(pItems, staleCutoff, cfg.MaxPrinciples)
	plan.LowConfidenceIntuitions, plan.StaleIntuitions, plan.OverflowIntuitions = classify(iItems, staleCutoff, cfg.MaxIntuitions)
	return plan
}

// classify 저신뢰 → 오래됨 → 상한 초과 순 분류
// 상한 초과는 (신뢰도 오름차순, 지지 수 오름차순, id 오름차순)으로 낮은 가치부터 제거
func classify(items []rankedItem, staleCutoff time.Time, maxActive int) (low, stale, overflow []int64) {
	survivors := make([]rankedItem, 0, len(items))
	for _, it := range items {
		switch {
		case it.Confidence < MinConfidence:
			low = append(low, it.ID)
		case it.LastValidated == nil || it.LastValidated.Before(staleCutoff):
			stale = append(stale, it.ID)
		default:
			survivors = append(survivors, it)
		}
	}

	excess := len(survivors) - maxActive
	if maxActive < 0 || excess <= 0 {
		return low, stale, overflow
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.Confidence != b.Confidence {
			return a.Confidence < b.Confidence
		}
		if a.Support != b.Support {
			return a.Support < b.Support
		}
		return a.ID < b.ID
	})

	for _, it := range survivors[:excess] {
		overflow = append(overflow, it.ID)
	}
	return low, stale, overflow
}

func concatIDs(lists ...[]int64) []int64 {
	var out []int64
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
