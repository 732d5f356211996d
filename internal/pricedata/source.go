package pricedata

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/internal/external/naver"
	"github.com/wonny/aegis-insight/pkg/config"
)

// Deps 가격 소스 구성 요소
type Deps struct {
	Pool  *pgxpool.Pool
	Naver *naver.Client
	Cache Cache // nil이면 캐시 없음
}

// naverRatePerSecond 배치 내 Naver 호출 상한 (redis 전역 제한과 별개)
const naverRatePerSecond = 5

// New 설정에 따라 가격 조회 포트 구성
// ⭐ SSOT: PRICE_SOURCE 해석은 여기서만
func New(cfg config.PriceConfig, deps Deps, log zerolog.Logger) (contracts.PriceLookup, error) {
	var source contracts.PriceLookup

	guardedNaver := func() (contracts.PriceLookup, error) {
		if deps.Naver == nil {
			return nil, fmt.Errorf("price source %q requires naver client", cfg.Source)
		}
		return NewGuardedSource(deps.Naver, GuardConfig{
			Name:             "naver",
			FailureThreshold: cfg.BreakerFailures,
			OpenTimeout:      cfg.BreakerTimeout,
			RatePerSecond:    naverRatePerSecond,
		}, log), nil
	}

	switch cfg.Source {
	case "db":
		if deps.Pool == nil {
			return nil, fmt.Errorf("price source %q requires database", cfg.Source)
		}
		source = NewDBSource(deps.Pool)

	case "naver":
		s, err := guardedNaver()
		if err != nil {
			return nil, err
		}
		source = s

	case "chain":
		if deps.Pool == nil {
			return nil, fmt.Errorf("price source %q requires database", cfg.Source)
		}
		s, err := guardedNaver()
		if err != nil {
			return nil, err
		}
		source = NewChain(log,
			NamedSource{Name: "db", Source: NewDBSource(deps.Pool)},
			NamedSource{Name: "naver", Source: s},
		)

	default:
		return nil, fmt.Errorf("unknown price source %q", cfg.Source)
	}

	if deps.Cache != nil {
		source = NewCachedSource(source, deps.Cache, cfg.CacheTTL, log)
	}
	return source, nil
}
