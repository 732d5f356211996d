package pricedata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// DBSource data.daily_prices 기반 가격 조회 (읽기 전용)
type DBSource struct {
	pool *pgxpool.Pool
}

// NewDBSource creates a new database price source
func NewDBSource(pool *pgxpool.Pool) *DBSource {
	return &DBSource{pool: pool}
}

var _ contracts.PriceLookup = (*DBSource)(nil)

// GetClose date 당일 또는 직전 거래일 종가 (최대 10일 역방향 탐색, 그보다 오래되면 ErrNoPriceData)
func (s *DBSource) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	return contracts.CloseFromRange(ctx, s, ticker, date)
}

// GetRange [start, end] 일봉 (날짜 오름차순)
func (s *DBSource) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	query := `
		SELECT trade_date, open_price::float8, high_price::float8, low_price::float8, close_price::float8, volume
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker, contracts.DateOnly(start), contracts.DateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("query range %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan range %s: %w", ticker, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, contracts.ErrNoPriceData
	}
	return bars, nil
}
