package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// AdvanceConfig 추적 진행 설정
type AdvanceConfig struct {
	Workers int  // 동시 처리 레코드 수
	DryRun  bool // 저장 없이 계산만
}

// Change 한 레코드의 이번 실행 변경 내용
type Change struct {
	ID      int64                    `json:"id"`
	Ticker  string                   `json:"ticker"`
	Filled  []contracts.Horizon      `json:"filled"`
	Price   float64                  `json:"price,omitempty"`
	Status  contracts.TrackingStatus `json:"status"`
	Elapsed int                      `json:"days_elapsed"`
}

// AdvanceResult 추적 진행 결과
type AdvanceResult struct {
	Summary contracts.BatchSummary `json:"summary"`
	Changes []Change               `json:"changes"`
	DryRun  bool                   `json:"dry_run"`
}

// Advancer 성과 추적 진행기
// 레코드마다 현재가를 한 번만 조회하고, 이번 실행에 새로 도래한 슬롯 모두에 같은 가격을 기록
// (7일/14일 경계를 같은 실행에서 넘으면 두 슬롯 값이 동일함, 의도된 동작)
type Advancer struct {
	prices contracts.PriceLookup
	store  Store
	cfg    AdvanceConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewAdvancer 새 진행기 생성
func NewAdvancer(prices contracts.PriceLookup, store Store, cfg AdvanceConfig, log zerolog.Logger) *Advancer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Advancer{
		prices: prices,
		store:  store,
		cfg:    cfg,
		log:    log.With().Str("component", "tracker.advancer").Logger(),
		now:    time.Now,
	}
}

// Run 추적 대상 전체 진행
// 레코드 단위 실패는 집계만 하고 계속, 대상 조회 실패만 에러 반환
func (a *Advancer) Run(ctx context.Context) (*AdvanceResult, error) {
	records, err := a.store.ListTrackable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trackable: %w", err)
	}

	today := contracts.DateOnly(a.now())
	result := &AdvanceResult{DryRun: a.cfg.DryRun}

	a.log.Info().
		Int("records", len(records)).
		Int("workers", a.cfg.Workers).
		Bool("dry_run", a.cfg.DryRun).
		Msg("tracker advance started")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			change, outcome := a.advanceOne(gctx, rec, today)

			mu.Lock()
			defer mu.Unlock()
			result.Summary.Processed++
			switch outcome {
			case outcomeUpdated:
				result.Summary.Updated++
				result.Changes = append(result.Changes, change)
			case outcomeSkipped:
				result.Summary.Skipped++
			case outcomeError:
				result.Summary.Errors++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("tracker advance interrupted: %w", err)
	}

	a.log.Info().Str("summary", result.Summary.String()).Msg("tracker advance completed")
	return result, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeUpdated
	outcomeError
)

// advanceOne 레코드 하나 진행 후 저장
func (a *Advancer) advanceOne(ctx context.Context, rec contracts.TrackerRecord, today time.Time) (Change, outcome) {
	log := a.log.With().Int64("record_id", rec.ID).Str("ticker", rec.Ticker).Logger()

	next, change, err := Advance(ctx, a.prices, rec, today)
	if err != nil {
		if errors.Is(err, contracts.ErrNoPriceData) {
			log.Warn().Msg("no price data, retry next cycle")
		} else {
			log.Error().Err(err).Msg("price lookup failed")
		}
		return change, outcomeError
	}
	if next == nil {
		return change, outcomeSkipped
	}

	if a.cfg.DryRun {
		return change, outcomeUpdated
	}

	if err := a.store.SaveProgress(ctx, *next); err != nil {
		log.Error().Err(err).Msg("save progress failed")
		return change, outcomeError
	}

	log.Debug().
		Interface("filled", change.Filled).
		Str("status", string(change.Status)).
		Msg("record advanced")
	return change, outcomeUpdated
}

// Advance 레코드 진행 계산 (저장 없음)
// 변경이 없으면 nil 레코드를 반환하고, 가격 조회 실패 시 레코드는 그대로 둠
func Advance(ctx context.Context, prices contracts.PriceLookup, rec contracts.TrackerRecord, today time.Time) (*contracts.TrackerRecord, Change, error) {
	elapsed := contracts.DaysBetween(rec.AnalyzedDate, today)
	change := Change{ID: rec.ID, Ticker: rec.Ticker, Status: rec.Status, Elapsed: elapsed}

	var due []contracts.Horizon
	for _, h := range contracts.Horizons {
		if elapsed >= h.Days() && !rec.Slot(h).Filled() {
			due = append(due, h)
		}
	}

	next := rec
	if len(due) > 0 {
		price, err := prices.GetClose(ctx, rec.Ticker, today)
		if err != nil {
			return nil, change, err
		}

		ret := contracts.ReturnRate(price, rec.AnalyzedPrice)
		for _, h := range due {
			date, p, r := today, price, ret
			*next.Slot(h) = contracts.HorizonSlot{Date: &date, Price: &p, Return: &r}
		}
		change.Filled = due
		change.Price = price
	}

	next.Status = monotonicStatus(rec.Status, next.DeriveStatus(elapsed))
	change.Status = next.Status

	if len(due) == 0 && next.Status == rec.Status {
		return nil, change, nil
	}
	return &next, change, nil
}

// monotonicStatus 일반 진행 경로에서 상태는 역행하지 않음
func monotonicStatus(current, derived contracts.TrackingStatus) contracts.TrackingStatus {
	if derived.Rank() < current.Rank() {
		return current
	}
	return derived
}
