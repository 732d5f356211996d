package pricedata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// NamedSource 이름 붙은 가격 소스 (로그/메트릭용)
type NamedSource struct {
	Name   string
	Source contracts.PriceLookup
}

// Chain 앞선 소스부터 조회하여 데이터가 있는 첫 결과 사용
// 모든 소스가 데이터 없음이면 ErrNoPriceData, 하나라도 장애면 마지막 장애를 반환
type Chain struct {
	sources []NamedSource
	log     zerolog.Logger
}

// NewChain creates a fallback chain
func NewChain(log zerolog.Logger, sources ...NamedSource) *Chain {
	return &Chain{
		sources: sources,
		log:     log.With().Str("component", "pricedata.chain").Logger(),
	}
}

var _ contracts.PriceLookup = (*Chain)(nil)

// GetClose 첫 번째로 성공한 소스의 종가
func (c *Chain) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	var lastErr error
	for _, s := range c.sources {
		price, err := s.Source.GetClose(ctx, ticker, date)
		if err == nil {
			return price, nil
		}
		lastErr = c.note(s.Name, ticker, err, lastErr)
	}
	return 0, c.final(lastErr)
}

// GetRange 첫 번째로 데이터를 반환한 소스의 일봉
func (c *Chain) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	var lastErr error
	for _, s := range c.sources {
		bars, err := s.Source.GetRange(ctx, ticker, start, end)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = contracts.ErrNoPriceData
		}
		lastErr = c.note(s.Name, ticker, err, lastErr)
	}
	return nil, c.final(lastErr)
}

// note 소스 실패 기록, 장애 에러가 데이터 없음보다 우선
func (c *Chain) note(name, ticker string, err, prev error) error {
	if errors.Is(err, contracts.ErrNoPriceData) {
		c.log.Debug().Str("source", name).Str("ticker", ticker).Msg("no data, trying next source")
		if prev != nil {
			return prev
		}
		return err
	}

	c.log.Warn().Err(err).Str("source", name).Str("ticker", ticker).Msg("price source failed, trying next source")
	return fmt.Errorf("%s: %w", name, err)
}

func (c *Chain) final(err error) error {
	if err == nil {
		return contracts.ErrNoPriceData
	}
	return err
}
