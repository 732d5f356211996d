package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// Repository knowledge 스키마 저장소 (journal, intuitions, principles)
// ⭐ SSOT: lessons/pattern_tags JSON 직렬화는 이 파일에서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ CompressionStore = (*Repository)(nil)
	_ RetentionStore   = (*Repository)(nil)
)

// Record layer-1 저널 항목 저장
func (r *Repository) Record(ctx context.Context, e contracts.JournalEntry) (int64, error) {
	if !e.Market.Valid() {
		return 0, fmt.Errorf("invalid market %q", e.Market)
	}

	lessons := e.Lessons
	if lessons == nil {
		lessons = []contracts.Lesson{}
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return 0, fmt.Errorf("marshal lessons: %w", err)
	}

	tags := e.PatternTags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("marshal pattern tags: %w", err)
	}

	query := `
		INSERT INTO knowledge.journal
			(ticker, company_name, market, trade_date, profit_rate, holding_days,
			 one_line_summary, lessons_json, pattern_tags_json, compression_layer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING id`

	var id int64
	err = r.pool.QueryRow(ctx, query,
		e.Ticker, e.CompanyName, string(e.Market), e.TradeDate, e.ProfitRate, e.HoldingDays,
		e.OneLineSummary, string(lessonsJSON), string(tagsJSON),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert journal: %w", err)
	}
	return id, nil
}

// ListJournalByLayer 계층과 거래일 기준 압축 대상 조회
// JSON 해석 실패는 쿼리 실패가 아닌 항목의 LessonsErr/TagsErr로 전달
func (r *Repository) ListJournalByLayer(ctx context.Context, layer contracts.CompressionLayer, olderThan time.Time) ([]contracts.JournalEntry, error) {
	query := `
		SELECT id, ticker, company_name, market, trade_date, profit_rate, holding_days,
		       one_line_summary, lessons_json, pattern_tags_json, compression_layer, created_at
		FROM knowledge.journal
		WHERE compression_layer = $1 AND trade_date < $2
		ORDER BY market, trade_date, id`

	rows, err := r.pool.Query(ctx, query, int(layer), contracts.DateOnly(olderThan))
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []contracts.JournalEntry
	for rows.Next() {
		var (
			e                   contracts.JournalEntry
			market              string
			lessonsRaw, tagsRaw string
			layerRaw            int16
		)
		if err := rows.Scan(
			&e.ID, &e.Ticker, &e.CompanyName, &market, &e.TradeDate, &e.ProfitRate, &e.HoldingDays,
			&e.OneLineSummary, &lessonsRaw, &tagsRaw, &layerRaw, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Market = contracts.Market(market)
		e.Layer = contracts.CompressionLayer(layerRaw)
		decodeJournalFields(&e, lessonsRaw, tagsRaw)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// decodeJournalFields 저장된 JSON을 구조체로 해석 (필드별 실패는 LessonsErr/TagsErr에 기록)
func decodeJournalFields(e *contracts.JournalEntry, lessonsRaw, tagsRaw string) {
	if lessonsRaw != "" {
		if err := json.Unmarshal([]byte(lessonsRaw), &e.Lessons); err != nil {
			e.Lessons = nil
			e.LessonsErr = fmt.Errorf("lessons_json: %w", err)
		}
	}
	if tagsRaw != "" {
		if err := json.Unmarshal([]byte(tagsRaw), &e.PatternTags); err != nil {
			e.PatternTags = nil
			e.TagsErr = fmt.Errorf("pattern_tags_json: %w", err)
		}
	}
}

// PromoteJournal 계층 승격 (더 낮은 계층의 항목만 변경)
func (r *Repository) PromoteJournal(ctx context.Context, ids []int64, to contracts.CompressionLayer) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE knowledge.journal
		SET compression_layer = $2
		WHERE id = ANY($1) AND compression_layer < $2`,
		ids, int(to),
	)
	if err != nil {
		return 0, fmt.Errorf("promote journal: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertIntuition 자연키 (category, condition, market) 기준 find-or-create
// 충돌 시 지지 건수 가중 평균으로 신뢰도/성공률을 섞고 지지 건수를 합산
func (r *Repository) UpsertIntuition(ctx context.Context, in contracts.Intuition) (*contracts.Intuition, error) {
	query := `
		INSERT INTO knowledge.intuitions AS i
			(category, condition, insight, confidence, success_rate, supporting_count,
			 market, last_validated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (category, condition, market) WHERE is_active
		DO UPDATE SET
			confidence = (i.confidence * i.supporting_count + EXCLUDED.confidence * EXCLUDED.supporting_count)
			             / (i.supporting_count + EXCLUDED.supporting_count),
			success_rate = (i.success_rate * i.supporting_count + EXCLUDED.success_rate * EXCLUDED.supporting_count)
			               / (i.supporting_count + EXCLUDED.supporting_count),
			supporting_count = i.supporting_count + EXCLUDED.supporting_count,
			last_validated_at = EXCLUDED.last_validated_at
		RETURNING id, category, condition, insight, confidence, success_rate, supporting_count,
		          market, created_at, last_validated_at, is_active`

	validated := in.LastValidatedAt
	if validated == nil {
		now := time.Now()
		validated = &now
	}

	row := r.pool.QueryRow(ctx, query,
		in.Category, in.Condition, in.Insight, in.Confidence, in.SuccessRate, in.SupportingCount,
		string(in.Market), validated,
	)
	out, err := scanIntuition(row)
	if err != nil {
		return nil, fmt.Errorf("upsert intuition %s/%s: %w", in.Category, in.Market, err)
	}
	return out, nil
}

// UpsertPrinciple 자연키 (condition, action) 기준 find-or-create
// 충돌 시 신뢰도 +0.1 (상한 1.0), 근거 거래 +1, 저널 id 중복 없이 추가
func (r *Repository) UpsertPrinciple(ctx context.Context, p contracts.Principle) (*contracts.Principle, error) {
	query := `
		INSERT INTO knowledge.principles AS p
			(scope, scope_context, condition, action, reason, priority, confidence,
			 supporting_trades, source_journal_ids, market, last_validated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		ON CONFLICT (condition, action) WHERE is_active
		DO UPDATE SET
			confidence = LEAST(1.0, p.confidence + $12),
			supporting_trades = p.supporting_trades + 1,
			source_journal_ids = p.source_journal_ids || ARRAY(
				SELECT x FROM unnest(EXCLUDED.source_journal_ids) AS x
				WHERE NOT (x = ANY(p.source_journal_ids))
			),
			last_validated_at = EXCLUDED.last_validated_at
		RETURNING id, scope, scope_context, condition, action, reason, priority, confidence,
		          supporting_trades, source_journal_ids, market, created_at, last_validated_at, is_active`

	validated := p.LastValidatedAt
	if validated == nil {
		now := time.Now()
		validated = &now
	}
	sources := p.SourceJournalIDs
	if sources == nil {
		sources = []int64{}
	}

	row := r.pool.QueryRow(ctx, query,
		string(p.Scope), p.ScopeContext, p.Condition, p.Action, p.Reason, p.Priority, p.Confidence,
		p.SupportingTrades, sources, string(p.Market), validated,
		contracts.PrincipleConfidenceBump,
	)
	out, err := scanPrinciple(row)
	if err != nil {
		return nil, fmt.Errorf("upsert principle %q: %w", p.Condition, err)
	}
	return out, nil
}

// ListActiveIntuitions 활성 직관 전체
func (r *Repository) ListActiveIntuitions(ctx context.Context) ([]contracts.Intuition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category, condition, insight, confidence, success_rate, supporting_count,
		       market, created_at, last_validated_at, is_active
		FROM knowledge.intuitions
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query intuitions: %w", err)
	}
	defer rows.Close()

	var out []contracts.Intuition
	for rows.Next() {
		in, err := scanIntuition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// ListActivePrinciples 활성 원칙 전체
func (r *Repository) ListActivePrinciples(ctx context.Context) ([]contracts.Principle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, scope, scope_context, condition, action, reason, priority, confidence,
		       supporting_trades, source_journal_ids, market, created_at, last_validated_at, is_active
		FROM knowledge.principles
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query principles: %w", err)
	}
	defer rows.Close()

	var out []contracts.Principle
	for rows.Next() {
		p, err := scanPrinciple(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListArchivableJournal 거래일이 cutoff 이전인 layer-3 항목 id
func (r *Repository) ListArchivableJournal(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM knowledge.journal
		WHERE compression_layer = 3 AND trade_date < $1
		ORDER BY id`,
		contracts.DateOnly(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("query archivable journal: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ApplyRetention 비활성화와 layer-3 아카이브 삭제를 단일 트랜잭션으로 반영
func (r *Repository) ApplyRetention(ctx context.Context, plan RetentionPlan) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if ids := plan.PrincipleIDs(); len(ids) > 0 {
			if _, err := tx.Exec(ctx,
				"UPDATE knowledge.principles SET is_active = FALSE WHERE id = ANY($1) AND is_active", ids,
			); err != nil {
				return fmt.Errorf("deactivate principles: %w", err)
			}
		}

		if ids := plan.IntuitionIDs(); len(ids) > 0 {
			if _, err := tx.Exec(ctx,
				"UPDATE knowledge.intuitions SET is_active = FALSE WHERE id = ANY($1) AND is_active", ids,
			); err != nil {
				return fmt.Errorf("deactivate intuitions: %w", err)
			}
		}

		if len(plan.ArchiveJournalIDs) > 0 {
			if _, err := tx.Exec(ctx,
				"DELETE FROM knowledge.journal WHERE id = ANY($1) AND compression_layer = 3", plan.ArchiveJournalIDs,
			); err != nil {
				return fmt.Errorf("archive journal: %w", err)
			}
		}

		return nil
	})
}

// Stats 계층/시장별 저널 수와 활성 지식 수
func (r *Repository) Stats(ctx context.Context) (*contracts.KnowledgeStats, error) {
	stats := &contracts.KnowledgeStats{
		JournalByLayer:  make(map[contracts.CompressionLayer]int),
		JournalByMarket: make(map[contracts.Market]int),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT compression_layer, market, COUNT(*)
		FROM knowledge.journal
		GROUP BY compression_layer, market`)
	if err != nil {
		return nil, fmt.Errorf("query journal stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var layer int16
		var market string
		var count int
		if err := rows.Scan(&layer, &market, &count); err != nil {
			return nil, err
		}
		stats.JournalByLayer[contracts.CompressionLayer(layer)] += count
		stats.JournalByMarket[contracts.Market(market)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM knowledge.intuitions WHERE is_active),
			(SELECT COUNT(*) FROM knowledge.principles WHERE is_active)`,
	).Scan(&stats.ActiveIntuitions, &stats.ActivePrinciples)
	if err != nil {
		return nil, fmt.Errorf("query knowledge stats: %w", err)
	}

	return stats, nil
}

func scanIntuition(row pgx.Row) (*contracts.Intuition, error) {
	var in contracts.Intuition
	var market string
	err := row.Scan(
		&in.ID, &in.Category, &in.Condition, &in.Insight, &in.Confidence, &in.SuccessRate,
		&in.SupportingCount, &market, &in.CreatedAt, &in.LastValidatedAt, &in.IsActive,
	)
	if err != nil {
		return nil, err
	}
	in.Market = contracts.Market(market)
	return &in, nil
}

func scanPrinciple(row pgx.Row) (*contracts.Principle, error) {
	var p contracts.Principle
	var scope, market string
	err := row.Scan(
		&p.ID, &scope, &p.ScopeContext, &p.Condition, &p.Action, &p.Reason, &p.Priority,
		&p.Confidence, &p.SupportingTrades, &p.SourceJournalIDs, &market,
		&p.CreatedAt, &p.LastValidatedAt, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	p.Scope = contracts.PrincipleScope(scope)
	p.Market = contracts.Market(market)
	return &p, nil
}
