package pricedata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// GuardConfig 차단기/속도 제한 설정
type GuardConfig struct {
	Name             string
	FailureThreshold int           // 연속 실패 시 차단
	OpenTimeout      time.Duration // 차단 유지 시간
	RatePerSecond    float64       // 0이면 제한 없음
}

// GuardedSource 연속 장애 시 upstream 호출을 차단하는 데코레이터
// 데이터 없음(ErrNoPriceData)은 정상 응답으로 취급하여 차단 카운트에 포함하지 않음
type GuardedSource struct {
	inner   contracts.PriceLookup
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewGuardedSource wraps inner with a circuit breaker and optional limiter
func NewGuardedSource(inner contracts.PriceLookup, cfg GuardConfig, log zerolog.Logger) *GuardedSource {
	log = log.With().Str("component", "pricedata.guard").Str("source", cfg.Name).Logger()

	threshold := uint32(cfg.FailureThreshold)
	if threshold == 0 {
		threshold = 3
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, contracts.ErrNoPriceData) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("price source breaker state changed")
		},
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &GuardedSource{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: limiter,
		log:     log,
	}
}

var _ contracts.PriceLookup = (*GuardedSource)(nil)

// State 현재 차단기 상태
func (s *GuardedSource) State() gobreaker.State {
	return s.breaker.State()
}

// GetClose 차단기를 거쳐 종가 조회
func (s *GuardedSource) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.GetClose(ctx, ticker, date)
	})
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

// GetRange 차단기를 거쳐 일봉 조회
func (s *GuardedSource) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.GetRange(ctx, ticker, start, end)
	})
	if err != nil {
		return nil, err
	}
	bars, _ := out.([]contracts.Bar)
	return bars, nil
}

func (s *GuardedSource) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
