package contracts

import "time"

// Market 시장 구분
type Market string

const (
	MarketKR Market = "KR"
	MarketUS Market = "US"
)

// Valid 지원 시장 여부
func (m Market) Valid() bool {
	return m == MarketKR || m == MarketUS
}

// CompressionLayer 저널 압축 계층 (1=상세, 2=요약, 3=압축)
type CompressionLayer int

const (
	LayerDetailed   CompressionLayer = 1
	LayerSummarized CompressionLayer = 2
	LayerCompressed CompressionLayer = 3
)

// Lesson 매매에서 얻은 교훈 (조건 → 행동)
type Lesson struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
	Priority  string `json:"priority"` // high, medium, low
}

// JournalEntry 매매/분석 저널 항목
// ⭐ SSOT: 레이어는 압축기만 올리고, 삭제는 보존 정책의 layer-3 아카이브만 수행
type JournalEntry struct {
	ID             int64            `json:"id"`
	Ticker         string           `json:"ticker"`
	CompanyName    string           `json:"company_name"`
	Market         Market           `json:"market"`
	TradeDate      time.Time        `json:"trade_date"`
	ProfitRate     float64          `json:"profit_rate"` // 0.05 = +5%
	HoldingDays    int              `json:"holding_days"`
	OneLineSummary string           `json:"one_line_summary"`
	Lessons        []Lesson         `json:"lessons"`
	PatternTags    []string         `json:"pattern_tags"`
	Layer          CompressionLayer `json:"compression_layer"`
	CreatedAt      time.Time        `json:"created_at"`

	// 저장소 경계에서 채워지는 JSON 해석 실패 사유 (필드별로 독립)
	// TagsErr는 패턴 집계만, LessonsErr는 원칙 이관만 막고 레이어 승격은 계속함
	LessonsErr error `json:"-"`
	TagsErr    error `json:"-"`
}

// IsWin 수익 거래 여부
func (e JournalEntry) IsWin() bool {
	return e.ProfitRate > 0
}
