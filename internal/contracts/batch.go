package contracts

import "fmt"

// BatchSummary 배치 실행 결과 요약
// 모든 배치는 실패 여부와 무관하게 이 요약을 남김
type BatchSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Add 두 요약 합산
func (s BatchSummary) Add(o BatchSummary) BatchSummary {
	return BatchSummary{
		Processed: s.Processed + o.Processed,
		Updated:   s.Updated + o.Updated,
		Skipped:   s.Skipped + o.Skipped,
		Errors:    s.Errors + o.Errors,
	}
}

func (s BatchSummary) String() string {
	return fmt.Sprintf("processed=%d updated=%d skipped=%d errors=%d",
		s.Processed, s.Updated, s.Skipped, s.Errors)
}
