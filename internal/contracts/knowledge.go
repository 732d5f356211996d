package contracts

import "time"

// Intuition 반복 패턴에서 도출된 직관
type Intuition struct {
	ID              int64      `json:"id"`
	Category        string     `json:"category"` // 패턴 태그
	Condition       string     `json:"condition"`
	Insight         string     `json:"insight"`
	Confidence      float64    `json:"confidence"`   // 0~1
	SuccessRate     float64    `json:"success_rate"` // 0~1
	SupportingCount int        `json:"supporting_count"`
	Market          Market     `json:"market"`
	CreatedAt       time.Time  `json:"created_at"`
	LastValidatedAt *time.Time `json:"last_validated_at,omitempty"`
	IsActive        bool       `json:"is_active"`
}

// IntuitionKey 직관 자연키 (category, condition, market)
type IntuitionKey struct {
	Category  string
	Condition string
	Market    Market
}

// Key returns the natural key
func (i Intuition) Key() IntuitionKey {
	return IntuitionKey{Category: i.Category, Condition: i.Condition, Market: i.Market}
}

// PrincipleScope 원칙 적용 범위
type PrincipleScope string

const (
	ScopeUniversal PrincipleScope = "universal"
	ScopeSector    PrincipleScope = "sector"
	ScopeTicker    PrincipleScope = "ticker"
)

// PrincipleConfidenceBump 재관측 시 신뢰도 가산치 (상한 1.0)
const PrincipleConfidenceBump = 0.1

// Principle 교훈에서 추출된 조건 → 행동 매매 원칙
type Principle struct {
	ID               int64          `json:"id"`
	Scope            PrincipleScope `json:"scope"`
	ScopeContext     string         `json:"scope_context"`
	Condition        string         `json:"condition"`
	Action           string         `json:"action"`
	Reason           string         `json:"reason"`
	Priority         string         `json:"priority"`
	Confidence       float64        `json:"confidence"`
	SupportingTrades int            `json:"supporting_trades"`
	SourceJournalIDs []int64        `json:"source_journal_ids"`
	Market           Market         `json:"market"`
	CreatedAt        time.Time      `json:"created_at"`
	LastValidatedAt  *time.Time     `json:"last_validated_at,omitempty"`
	IsActive         bool           `json:"is_active"`
}

// PrincipleKey 원칙 자연키 (condition, action)
type PrincipleKey struct {
	Condition string
	Action    string
}

// Key returns the natural key
func (p Principle) Key() PrincipleKey {
	return PrincipleKey{Condition: p.Condition, Action: p.Action}
}

// KnowledgeStats 지식 저장소 현황 (운영자 조회용)
type KnowledgeStats struct {
	JournalByLayer   map[CompressionLayer]int `json:"journal_by_layer"`
	JournalByMarket  map[Market]int           `json:"journal_by_market"`
	ActiveIntuitions int                      `json:"active_intuitions"`
	ActivePrinciples int                      `json:"active_principles"`
}
