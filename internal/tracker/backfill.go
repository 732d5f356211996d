package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// BackfillConfig 백필 설정
type BackfillConfig struct {
	Delay      time.Duration // 연속 가격 조회 간 최소 간격
	WindowDays int           // 휴장일 대비 역방향 탐색 일수
	DryRun     bool
}

// DefaultBackfillConfig 기본 설정 (300ms / 5일)
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		Delay:      300 * time.Millisecond,
		WindowDays: 5,
	}
}

// BackfillResult 백필 결과
type BackfillResult struct {
	Summary contracts.BatchSummary `json:"summary"`
	Records []BackfillOutcome      `json:"records"`
	DryRun  bool                   `json:"dry_run"`
}

// BackfillOutcome 레코드별 재계산 결과
type BackfillOutcome struct {
	ID     int64                    `json:"id"`
	Ticker string                   `json:"ticker"`
	Found  []contracts.Horizon      `json:"found"`
	Status contracts.TrackingStatus `json:"status"`
}

// Backfiller 실제 과거 종가로 추적 슬롯 재계산
// ⭐ SSOT: 슬롯을 지우고 다시 쓰는 유일한 경로
type Backfiller struct {
	prices  contracts.PriceLookup
	store   Store
	cfg     BackfillConfig
	limiter *rate.Limiter
	log     zerolog.Logger
	now     func() time.Time
}

// NewBackfiller 새 백필러 생성
func NewBackfiller(prices contracts.PriceLookup, store Store, cfg BackfillConfig, log zerolog.Logger) *Backfiller {
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	if cfg.WindowDays < 0 {
		cfg.WindowDays = 0
	}
	return &Backfiller{
		prices:  prices,
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log.With().Str("component", "tracker.backfill").Logger(),
		now:     time.Now,
	}
}

// Run 대상 레코드 재계산 (ids가 비어 있으면 의심 레코드 자동 선정)
// 레코드는 순차 처리하며 조회 사이에 고정 간격을 둠
func (b *Backfiller) Run(ctx context.Context, ids []int64) (*BackfillResult, error) {
	var (
		targets []contracts.TrackerRecord
		err     error
	)
	if len(ids) > 0 {
		targets, err = b.store.ListByIDs(ctx, ids)
	} else {
		targets, err = b.store.ListSuspicious(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list backfill targets: %w", err)
	}

	today := contracts.DateOnly(b.now())
	result := &BackfillResult{DryRun: b.cfg.DryRun}

	b.log.Info().
		Int("targets", len(targets)).
		Bool("explicit_ids", len(ids) > 0).
		Bool("dry_run", b.cfg.DryRun).
		Msg("backfill started")

	for _, rec := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Summary.Processed++
		next, out, err := b.recompute(ctx, rec, today)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Summary.Errors++
			b.log.Error().Err(err).Int64("record_id", rec.ID).Str("ticker", rec.Ticker).Msg("backfill lookup failed, record left unchanged")
			continue
		}

		if !b.cfg.DryRun {
			if err := b.store.ResetAndSave(ctx, next); err != nil {
				result.Summary.Errors++
				b.log.Error().Err(err).Int64("record_id", rec.ID).Msg("backfill save failed")
				continue
			}
		}

		result.Summary.Updated++
		result.Records = append(result.Records, out)
	}

	b.log.Info().Str("summary", result.Summary.String()).Msg("backfill completed")
	return result, nil
}

// recompute 9개 필드를 비운 뒤 도래한 기간마다 목표일 직전 종가로 채움
// 가격을 못 찾은 슬롯은 비워 두어 다음 실행에서 다시 시도
func (b *Backfiller) recompute(ctx context.Context, rec contracts.TrackerRecord, today time.Time) (contracts.TrackerRecord, BackfillOutcome, error) {
	next := rec
	next.ResetSlots()
	out := BackfillOutcome{ID: rec.ID, Ticker: rec.Ticker}

	base := contracts.DateOnly(rec.AnalyzedDate)
	for _, h := range contracts.Horizons {
		target := base.AddDate(0, 0, h.Days())
		if target.After(today) {
			continue
		}

		if err := b.limiter.Wait(ctx); err != nil {
			return rec, out, err
		}

		bars, err := b.prices.GetRange(ctx, rec.Ticker, target.AddDate(0, 0, -b.cfg.WindowDays), target)
		if err != nil && !errors.Is(err, contracts.ErrNoPriceData) {
			return rec, out, fmt.Errorf("%dd lookup: %w", h.Days(), err)
		}

		bar, ok := contracts.LastBarOnOrBefore(bars, target)
		if !ok {
			b.log.Debug().Int64("record_id", rec.ID).Int("horizon", h.Days()).Msg("no historical close in window")
			continue
		}

		date := contracts.DateOnly(bar.Date)
		price := bar.Close
		ret := contracts.ReturnRate(price, rec.AnalyzedPrice)
		*next.Slot(h) = contracts.HorizonSlot{Date: &date, Price: &price, Return: &ret}
		out.Found = append(out.Found, h)
	}

	next.Status = next.DeriveStatus(contracts.DaysBetween(base, today))
	out.Status = next.Status
	return next, out, nil
}

// IsSuspicious 세 수익률이 모두 기록되어 있고 서로 같은 레코드
func IsSuspicious(rec contracts.TrackerRecord) bool {
	r7, r14, r30 := rec.Tracked7D.Return, rec.Tracked14D.Return, rec.Tracked30D.Return
	if r7 == nil || r14 == nil || r30 == nil {
		return false
	}
	return *r7 == *r14 && *r14 == *r30
}
