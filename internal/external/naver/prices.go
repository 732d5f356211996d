package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

var _ contracts.PriceLookup = (*Client)(nil)

// priceRowRe ["YYYYMMDD", 시가, 고가, 저가, 종가, 거래량(, 외국인소진율)]
var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)(?:,\s*[\d.]+)*\s*\]`)

// FetchPrices fetches daily price data for a stock from Naver Finance
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]PriceData, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetch(ctx, c.chartURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	prices, err := c.parsePriceResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	for i := range prices {
		prices[i].StockCode = stockCode
	}

	c.log.Debug().
		Str("stock_code", stockCode).
		Int("count", len(prices)).
		Msg("fetched prices")
	return prices, nil
}

// GetRange [start, end] 일봉 (날짜 오름차순)
func (c *Client) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	prices, err := c.FetchPrices(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	from, to := contracts.DateOnly(start), contracts.DateOnly(end)
	bars := make([]contracts.Bar, 0, len(prices))
	for _, p := range prices {
		d := contracts.DateOnly(p.TradeDate)
		if d.Before(from) || d.After(to) {
			continue
		}
		bars = append(bars, contracts.Bar{
			Date:   d,
			Open:   float64(p.OpenPrice),
			High:   float64(p.HighPrice),
			Low:    float64(p.LowPrice),
			Close:  float64(p.ClosePrice),
			Volume: p.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if len(bars) == 0 {
		return nil, contracts.ErrNoPriceData
	}
	return bars, nil
}

// GetClose date 당일 또는 직전 거래일 종가 (최대 10일 역방향 탐색)
func (c *Client) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	return contracts.CloseFromRange(ctx, c, ticker, date)
}

// parsePriceResponse parses Naver Finance JSON response
func (c *Client) parsePriceResponse(body string) ([]PriceData, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	// Try JSON parsing first
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return c.parsePriceJSON(rawData)
	}

	// Fallback to regex parsing
	return c.parsePriceRegex(body)
}

// parsePriceJSON parses JSON array format
func (c *Client) parsePriceJSON(rawData [][]interface{}) ([]PriceData, error) {
	var prices []PriceData
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(strings.Trim(dateStr, "\"")))
		if err != nil {
			continue
		}

		prices = append(prices, newPriceData(tradeDate,
			toInt64(row[1]), toInt64(row[2]), toInt64(row[3]), toInt64(row[4]), toInt64(row[5])))
	}
	return prices, nil
}

// parsePriceRegex parses using regex (fallback)
func (c *Client) parsePriceRegex(body string) ([]PriceData, error) {
	var prices []PriceData
	for _, match := range priceRowRe.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		var v [5]int64
		for i := range v {
			v[i], _ = strconv.ParseInt(match[i+2], 10, 64)
		}
		prices = append(prices, newPriceData(tradeDate, v[0], v[1], v[2], v[3], v[4]))
	}
	return prices, nil
}

func newPriceData(date time.Time, open, high, low, closePrice, volume int64) PriceData {
	return PriceData{
		TradeDate:    date,
		OpenPrice:    open,
		HighPrice:    high,
		LowPrice:     low,
		ClosePrice:   closePrice,
		Volume:       volume,
		TradingValue: closePrice * volume,
	}
}

// toInt64 converts various types to int64
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n
	default:
		return 0
	}
}
