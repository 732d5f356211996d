package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/pkg/config"
	"github.com/wonny/aegis-insight/pkg/httputil"
)

const defaultChartURL = "https://fchart.stock.naver.com/siseJson.naver"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	log        zerolog.Logger
	chartURL   string
	referer    string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, cfg config.NaverConfig, log zerolog.Logger) *Client {
	chartURL := cfg.ChartURL
	if chartURL == "" {
		chartURL = defaultChartURL
	}
	return &Client{
		httpClient: httpClient,
		log:        log.With().Str("component", "naver").Logger(),
		chartURL:   chartURL,
		referer:    cfg.BaseURL + "/",
	}
}

// fetch GET 요청 후 본문 반환
func (c *Client) fetch(ctx context.Context, fullURL string) (string, error) {
	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    c.referer,
	})
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// PriceData represents daily price data
type PriceData struct {
	StockCode    string
	TradeDate    time.Time
	OpenPrice    int64
	HighPrice    int64
	LowPrice     int64
	ClosePrice   int64
	Volume       int64
	TradingValue int64
}
