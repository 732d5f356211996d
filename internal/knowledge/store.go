package knowledge

import (
	"context"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// CompressionStore 압축기가 사용하는 저장소 연산
type CompressionStore interface {
	ListJournalByLayer(ctx context.Context, layer contracts.CompressionLayer, olderThan time.Time) ([]contracts.JournalEntry, error)
	PromoteJournal(ctx context.Context, ids []int64, to contracts.CompressionLayer) (int, error)
	UpsertIntuition(ctx context.Context, in contracts.Intuition) (*contracts.Intuition, error)
	UpsertPrinciple(ctx context.Context, p contracts.Principle) (*contracts.Principle, error)
}

// RetentionStore 보존 정책이 사용하는 저장소 연산
type RetentionStore interface {
	ListActivePrinciples(ctx context.Context) ([]contracts.Principle, error)
	ListActiveIntuitions(ctx context.Context) ([]contracts.Intuition, error)
	ListArchivableJournal(ctx context.Context, cutoff time.Time) ([]int64, error)
	// ApplyRetention 비활성화와 아카이브 삭제를 단일 트랜잭션으로 반영
	ApplyRetention(ctx context.Context, plan RetentionPlan) error
}
