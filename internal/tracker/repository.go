package tracker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// Repository analytics.performance_tracker 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const selectColumns = `
	id, ticker, company_name, trigger_type, trigger_mode, analyzed_date, analyzed_price,
	decision, was_traded, skip_reason, buy_score, min_score, target_price, stop_loss, risk_reward_ratio,
	tracked_7d_date, tracked_7d_price, tracked_7d_return,
	tracked_14d_date, tracked_14d_price, tracked_14d_return,
	tracked_30d_date, tracked_30d_price, tracked_30d_return,
	tracking_status, created_at, updated_at`

// Insert 분석 시점 레코드 저장 (슬롯은 비어 있는 상태로 시작)
func (r *Repository) Insert(ctx context.Context, rec contracts.TrackerRecord) (int64, error) {
	query := `
		INSERT INTO analytics.performance_tracker
			(ticker, company_name, trigger_type, trigger_mode, analyzed_date, analyzed_price,
			 decision, was_traded, skip_reason, buy_score, min_score, target_price, stop_loss,
			 risk_reward_ratio, tracking_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'pending')
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		rec.Ticker, rec.CompanyName, rec.TriggerType, rec.TriggerMode,
		contracts.DateOnly(rec.AnalyzedDate), rec.AnalyzedPrice,
		rec.Decision, rec.WasTraded, rec.SkipReason,
		rec.BuyScore, rec.MinScore, rec.TargetPrice, rec.StopLoss, rec.RiskRewardRatio,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert tracker record: %w", err)
	}
	return id, nil
}

// ListTrackable pending/in_progress 레코드
func (r *Repository) ListTrackable(ctx context.Context) ([]contracts.TrackerRecord, error) {
	return r.list(ctx, `
		SELECT`+selectColumns+`
		FROM analytics.performance_tracker
		WHERE tracking_status IN ('pending', 'in_progress')
		ORDER BY analyzed_date, id`)
}

// ListSuspicious 세 수익률이 모두 기록되어 있고 동일한 레코드
func (r *Repository) ListSuspicious(ctx context.Context) ([]contracts.TrackerRecord, error) {
	return r.list(ctx, `
		SELECT`+selectColumns+`
		FROM analytics.performance_tracker
		WHERE tracked_7d_return IS NOT NULL
		  AND tracked_7d_return = tracked_14d_return
		  AND tracked_14d_return = tracked_30d_return
		ORDER BY id`)
}

// ListByIDs id 지정 조회
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]contracts.TrackerRecord, error) {
	return r.list(ctx, `
		SELECT`+selectColumns+`
		FROM analytics.performance_tracker
		WHERE id = ANY($1)
		ORDER BY id`, ids)
}

// ListAll 전체 레코드
func (r *Repository) ListAll(ctx context.Context) ([]contracts.TrackerRecord, error) {
	return r.list(ctx, `
		SELECT`+selectColumns+`
		FROM analytics.performance_tracker
		ORDER BY id`)
}

// SaveProgress 비어 있는 슬롯만 채우고 상태 갱신
// ⭐ SSOT: COALESCE로 이미 기록된 슬롯은 덮어쓰지 않음
func (r *Repository) SaveProgress(ctx context.Context, rec contracts.TrackerRecord) error {
	query := `
		UPDATE analytics.performance_tracker SET
			tracked_7d_date    = COALESCE(tracked_7d_date, $2),
			tracked_7d_price   = COALESCE(tracked_7d_price, $3),
			tracked_7d_return  = COALESCE(tracked_7d_return, $4),
			tracked_14d_date   = COALESCE(tracked_14d_date, $5),
			tracked_14d_price  = COALESCE(tracked_14d_price, $6),
			tracked_14d_return = COALESCE(tracked_14d_return, $7),
			tracked_30d_date   = COALESCE(tracked_30d_date, $8),
			tracked_30d_price  = COALESCE(tracked_30d_price, $9),
			tracked_30d_return = COALESCE(tracked_30d_return, $10),
			tracking_status    = $11,
			updated_at         = NOW()
		WHERE id = $1`

	args := append([]any{rec.ID}, slotArgs(rec)...)
	args = append(args, string(rec.Status))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save progress %d: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save progress %d: %w", rec.ID, contracts.ErrNotFound)
	}
	return nil
}

// ResetAndSave 9개 필드를 비운 뒤 재계산 값을 한 트랜잭션으로 기록
func (r *Repository) ResetAndSave(ctx context.Context, rec contracts.TrackerRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE analytics.performance_tracker SET
				tracked_7d_date = NULL, tracked_7d_price = NULL, tracked_7d_return = NULL,
				tracked_14d_date = NULL, tracked_14d_price = NULL, tracked_14d_return = NULL,
				tracked_30d_date = NULL, tracked_30d_price = NULL, tracked_30d_return = NULL
			WHERE id = $1`, rec.ID)
		if err != nil {
			return fmt.Errorf("reset slots %d: %w", rec.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("reset slots %d: %w", rec.ID, contracts.ErrNotFound)
		}

		args := append([]any{rec.ID}, slotArgs(rec)...)
		args = append(args, string(rec.Status))
		_, err = tx.Exec(ctx, `
			UPDATE analytics.performance_tracker SET
				tracked_7d_date = $2, tracked_7d_price = $3, tracked_7d_return = $4,
				tracked_14d_date = $5, tracked_14d_price = $6, tracked_14d_return = $7,
				tracked_30d_date = $8, tracked_30d_price = $9, tracked_30d_return = $10,
				tracking_status = $11,
				updated_at = NOW()
			WHERE id = $1`, args...)
		if err != nil {
			return fmt.Errorf("save backfill %d: %w", rec.ID, err)
		}
		return nil
	})
}

func slotArgs(rec contracts.TrackerRecord) []any {
	args := make([]any, 0, 9)
	for _, h := range contracts.Horizons {
		s := rec.Slot(h)
		args = append(args, s.Date, s.Price, s.Return)
	}
	return args
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]contracts.TrackerRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracker records: %w", err)
	}
	defer rows.Close()

	var records []contracts.TrackerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (contracts.TrackerRecord, error) {
	var (
		rec    contracts.TrackerRecord
		status string
	)
	err := row.Scan(
		&rec.ID, &rec.Ticker, &rec.CompanyName, &rec.TriggerType, &rec.TriggerMode,
		&rec.AnalyzedDate, &rec.AnalyzedPrice, &rec.Decision, &rec.WasTraded, &rec.SkipReason,
		&rec.BuyScore, &rec.MinScore, &rec.TargetPrice, &rec.StopLoss, &rec.RiskRewardRatio,
		&rec.Tracked7D.Date, &rec.Tracked7D.Price, &rec.Tracked7D.Return,
		&rec.Tracked14D.Date, &rec.Tracked14D.Price, &rec.Tracked14D.Return,
		&rec.Tracked30D.Date, &rec.Tracked30D.Price, &rec.Tracked30D.Return,
		&status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scan tracker record: %w", err)
	}
	rec.Status = contracts.TrackingStatus(status)
	return rec, nil
}
