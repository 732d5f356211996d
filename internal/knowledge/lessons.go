package knowledge

import (
	"strings"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// initialPrincipleConfidence 교훈 우선순위별 초기 신뢰도
func initialPrincipleConfidence(priority string) float64 {
	switch priority {
	case "high":
		return 0.7
	case "low":
		return 0.3
	default:
		return 0.5
	}
}

func normalizePriority(priority string) string {
	p := strings.ToLower(strings.TrimSpace(priority))
	switch p {
	case "high", "medium", "low":
		return p
	default:
		return "medium"
	}
}

// PrinciplesFromEntry 저널 항목의 교훈을 원칙 후보로 변환
// 조건이나 행동이 비어 있는 교훈은 제외
func PrinciplesFromEntry(e contracts.JournalEntry, now time.Time) []contracts.Principle {
	var principles []contracts.Principle
	for _, l := range e.Lessons {
		condition := strings.TrimSpace(l.Condition)
		action := strings.TrimSpace(l.Action)
		if condition == "" || action == "" {
			continue
		}

		priority := normalizePriority(l.Priority)
		principles = append(principles, contracts.Principle{
			Scope:            contracts.ScopeUniversal,
			Condition:        condition,
			Action:           action,
			Reason:           strings.TrimSpace(l.Reason),
			Priority:         priority,
			Confidence:       initialPrincipleConfidence(priority),
			SupportingTrades: 1,
			SourceJournalIDs: []int64{e.ID},
			Market:           e.Market,
			CreatedAt:        now,
			LastValidatedAt:  &now,
			IsActive:         true,
		})
	}
	return principles
}
