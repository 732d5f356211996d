package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNoPriceData 가격 소스에 해당 데이터 없음 (다음 실행에서 재시도 대상)
var ErrNoPriceData = errors.New("no price data")

// ErrNotFound 저장소에 대상 행 없음
var ErrNotFound = errors.New("not found")

// Bar 일봉 데이터
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceLookup 가격 조회 포트 (외부 시세 소스)
// ⭐ SSOT: 추적기/백필은 이 인터페이스로만 가격을 조회
type PriceLookup interface {
	// GetClose date 당일 또는 직전 거래일 종가, 없으면 ErrNoPriceData
	GetClose(ctx context.Context, ticker string, date time.Time) (float64, error)
	// GetRange [start, end] 구간 일봉 (날짜 오름차순)
	GetRange(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)
}

// CloseLookbackDays GetClose가 휴장일을 건너 역방향으로 탐색하는 최대 일수
// ⭐ SSOT: 모든 가격 소스가 같은 창을 사용 (창보다 오래된 종가는 ErrNoPriceData)
const CloseLookbackDays = 10

// RangeLookup 구간 일봉 조회
type RangeLookup interface {
	GetRange(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)
}

// CloseWindowStart date 기준 종가 탐색 하한
func CloseWindowStart(date time.Time) time.Time {
	return DateOnly(date).AddDate(0, 0, -CloseLookbackDays)
}

// CloseFromRange 탐색 창 [date-CloseLookbackDays, date] 안의 가장 최근 종가
func CloseFromRange(ctx context.Context, src RangeLookup, ticker string, date time.Time) (float64, error) {
	bars, err := src.GetRange(ctx, ticker, CloseWindowStart(date), date)
	if err != nil {
		return 0, err
	}

	price, ok := LastCloseOnOrBefore(bars, date)
	if !ok {
		return 0, ErrNoPriceData
	}
	return price, nil
}

// LastBarOnOrBefore bars 중 date 이하 가장 최근 거래일 (종가 0 이하 제외)
func LastBarOnOrBefore(bars []Bar, date time.Time) (Bar, bool) {
	cutoff := DateOnly(date)
	var (
		best  Bar
		found bool
	)
	for _, b := range bars {
		d := DateOnly(b.Date)
		if d.After(cutoff) || b.Close <= 0 {
			continue
		}
		if !found || d.After(DateOnly(best.Date)) {
			best, found = b, true
		}
	}
	return best, found
}

// LastCloseOnOrBefore bars 중 date 이하 가장 최근 거래일 종가
func LastCloseOnOrBefore(bars []Bar, date time.Time) (float64, bool) {
	b, ok := LastBarOnOrBefore(bars, date)
	return b.Close, ok
}
