package tracker

import (
	"context"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// Store 성과 추적 저장소 연산
type Store interface {
	// ListTrackable pending/in_progress 레코드
	ListTrackable(ctx context.Context) ([]contracts.TrackerRecord, error)
	// SaveProgress 비어 있는 슬롯만 채우고 상태 갱신 (행 단위 커밋)
	SaveProgress(ctx context.Context, rec contracts.TrackerRecord) error
	// ListSuspicious 세 수익률이 모두 기록되어 있고 동일한 레코드
	ListSuspicious(ctx context.Context) ([]contracts.TrackerRecord, error)
	// ListByIDs id 지정 조회
	ListByIDs(ctx context.Context, ids []int64) ([]contracts.TrackerRecord, error)
	// ResetAndSave 9개 필드 초기화 후 재계산 값 저장 (단일 행 트랜잭션)
	ResetAndSave(ctx context.Context, rec contracts.TrackerRecord) error
	// ListAll 리포트용 전체 조회
	ListAll(ctx context.Context) ([]contracts.TrackerRecord, error)
}
