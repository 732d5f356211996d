package contracts

import "time"

// TrackingStatus 성과 추적 상태 (pending → in_progress → completed)
type TrackingStatus string

const (
	StatusPending    TrackingStatus = "pending"
	StatusInProgress TrackingStatus = "in_progress"
	StatusCompleted  TrackingStatus = "completed"
)

// Rank 상태 순서 (역행 검사용)
func (s TrackingStatus) Rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// Horizon 추적 기간 (일)
type Horizon int

const (
	Horizon7D  Horizon = 7
	Horizon14D Horizon = 14
	Horizon30D Horizon = 30
)

// Horizons 추적 기간 목록 (짧은 순)
var Horizons = []Horizon{Horizon7D, Horizon14D, Horizon30D}

// Days returns the horizon length in days
func (h Horizon) Days() int {
	return int(h)
}

// HorizonSlot 기간별 추적 결과 (date, price, return)
// Price가 채워지면 일반 추적 경로에서는 다시 쓰지 않음
type HorizonSlot struct {
	Date   *time.Time `json:"date,omitempty"`
	Price  *float64   `json:"price,omitempty"`
	Return *float64   `json:"return,omitempty"`
}

// Filled 슬롯 기록 여부
func (s HorizonSlot) Filled() bool {
	return s.Price != nil
}

// TrackerRecord 분석 종목별 성과 추적 레코드
type TrackerRecord struct {
	ID              int64     `json:"id"`
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	TriggerType     string    `json:"trigger_type"`
	TriggerMode     string    `json:"trigger_mode"`
	AnalyzedDate    time.Time `json:"analyzed_date"`
	AnalyzedPrice   float64   `json:"analyzed_price"`
	Decision        string    `json:"decision"`
	WasTraded       bool      `json:"was_traded"`
	SkipReason      string    `json:"skip_reason"`
	BuyScore        *float64  `json:"buy_score,omitempty"`
	MinScore        *float64  `json:"min_score,omitempty"`
	TargetPrice     *float64  `json:"target_price,omitempty"`
	StopLoss        *float64  `json:"stop_loss,omitempty"`
	RiskRewardRatio *float64  `json:"risk_reward_ratio,omitempty"`

	Tracked7D  HorizonSlot `json:"tracked_7d"`
	Tracked14D HorizonSlot `json:"tracked_14d"`
	Tracked30D HorizonSlot `json:"tracked_30d"`

	Status    TrackingStatus `json:"tracking_status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Slot 기간별 슬롯 포인터
func (r *TrackerRecord) Slot(h Horizon) *HorizonSlot {
	switch h {
	case Horizon7D:
		return &r.Tracked7D
	case Horizon14D:
		return &r.Tracked14D
	case Horizon30D:
		return &r.Tracked30D
	default:
		return nil
	}
}

// ResetSlots 9개 추적 필드 초기화 (백필 재계산 전용)
func (r *TrackerRecord) ResetSlots() {
	r.Tracked7D = HorizonSlot{}
	r.Tracked14D = HorizonSlot{}
	r.Tracked30D = HorizonSlot{}
}

// DeriveStatus 채워진 슬롯과 경과일로 상태 재계산
// completed ⇔ 30일 슬롯 기록, in_progress ⇔ 7일 이상 경과 & 30일 미기록, 그 외 pending
func (r *TrackerRecord) DeriveStatus(daysElapsed int) TrackingStatus {
	switch {
	case r.Tracked30D.Filled():
		return StatusCompleted
	case daysElapsed >= Horizon7D.Days():
		return StatusInProgress
	default:
		return StatusPending
	}
}

// ReturnRate 기준가 대비 수익률 (기준가 <= 0이면 0)
func ReturnRate(price, basePrice float64) float64 {
	if basePrice <= 0 {
		return 0
	}
	return (price - basePrice) / basePrice
}

// DateOnly 시각 성분 제거 (UTC 자정)
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween from → to 경과 일수 (날짜만 비교)
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
