package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations 스키마 변경 이력 (append-only, 기존 항목 수정 금지)
var migrations = []migration{
	{
		Version:     1,
		Description: "knowledge.journal: trade journal with compression layers",
		SQL: `
CREATE SCHEMA IF NOT EXISTS knowledge;

CREATE TABLE knowledge.journal (
    id                BIGSERIAL PRIMARY KEY,
    ticker            TEXT NOT NULL,
    company_name      TEXT NOT NULL DEFAULT '',
    market            TEXT NOT NULL CHECK (market IN ('KR', 'US')),
    trade_date        DATE NOT NULL,
    profit_rate       DOUBLE PRECISION NOT NULL DEFAULT 0,
    holding_days      INTEGER NOT NULL DEFAULT 0,
    one_line_summary  TEXT NOT NULL DEFAULT '',
    lessons_json      TEXT NOT NULL DEFAULT '[]',
    pattern_tags_json TEXT NOT NULL DEFAULT '[]',
    compression_layer SMALLINT NOT NULL DEFAULT 1 CHECK (compression_layer BETWEEN 1 AND 3),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_journal_layer_date ON knowledge.journal (compression_layer, trade_date);
CREATE INDEX idx_journal_market     ON knowledge.journal (market);
`,
	},
	{
		Version:     2,
		Description: "knowledge.intuitions / knowledge.principles with natural-key uniqueness",
		SQL: `
CREATE TABLE knowledge.intuitions (
    id                BIGSERIAL PRIMARY KEY,
    category          TEXT NOT NULL,
    condition         TEXT NOT NULL,
    insight           TEXT NOT NULL DEFAULT '',
    confidence        DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
    success_rate      DOUBLE PRECISION NOT NULL CHECK (success_rate BETWEEN 0 AND 1),
    supporting_count  INTEGER NOT NULL CHECK (supporting_count >= 1),
    market            TEXT NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_validated_at TIMESTAMPTZ,
    is_active         BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE UNIQUE INDEX ux_intuitions_active_key
    ON knowledge.intuitions (category, condition, market) WHERE is_active;

CREATE TABLE knowledge.principles (
    id                 BIGSERIAL PRIMARY KEY,
    scope              TEXT NOT NULL CHECK (scope IN ('universal', 'sector', 'ticker')),
    scope_context      TEXT NOT NULL DEFAULT '',
    condition          TEXT NOT NULL,
    action             TEXT NOT NULL,
    reason             TEXT NOT NULL DEFAULT '',
    priority           TEXT NOT NULL DEFAULT 'medium',
    confidence         DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
    supporting_trades  INTEGER NOT NULL DEFAULT 1,
    source_journal_ids BIGINT[] NOT NULL DEFAULT '{}',
    market             TEXT NOT NULL DEFAULT 'KR',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_validated_at  TIMESTAMPTZ,
    is_active          BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE UNIQUE INDEX ux_principles_active_key
    ON knowledge.principles (condition, action) WHERE is_active;
`,
	},
	{
		Version:     3,
		Description: "analytics.performance_tracker: 7/14/30 day outcome slots",
		SQL: `
CREATE SCHEMA IF NOT EXISTS analytics;

CREATE TABLE analytics.performance_tracker (
    id                BIGSERIAL PRIMARY KEY,
    ticker            TEXT NOT NULL,
    company_name      TEXT NOT NULL DEFAULT '',
    trigger_type      TEXT NOT NULL DEFAULT '',
    trigger_mode      TEXT NOT NULL DEFAULT '',
    analyzed_date     DATE NOT NULL,
    analyzed_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
    decision          TEXT NOT NULL DEFAULT '',
    was_traded        BOOLEAN NOT NULL DEFAULT FALSE,
    skip_reason       TEXT NOT NULL DEFAULT '',
    buy_score         DOUBLE PRECISION,
    min_score         DOUBLE PRECISION,
    target_price      DOUBLE PRECISION,
    stop_loss         DOUBLE PRECISION,
    risk_reward_ratio DOUBLE PRECISION,
    tracked_7d_date   DATE,
    tracked_7d_price  DOUBLE PRECISION,
    tracked_7d_return DOUBLE PRECISION,
    tracked_14d_date   DATE,
    tracked_14d_price  DOUBLE PRECISION,
    tracked_14d_return DOUBLE PRECISION,
    tracked_30d_date   DATE,
    tracked_30d_price  DOUBLE PRECISION,
    tracked_30d_return DOUBLE PRECISION,
    tracking_status   TEXT NOT NULL DEFAULT 'pending'
        CHECK (tracking_status IN ('pending', 'in_progress', 'completed')),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_tracker_status ON analytics.performance_tracker (tracking_status);
CREATE INDEX idx_tracker_ticker ON analytics.performance_tracker (ticker, analyzed_date);
`,
	},
}

// Migrate 미적용 마이그레이션을 버전 순서대로 적용
// 각 마이그레이션은 자체 트랜잭션에서 실행되고 schema_versions에 기록됨
func (db *DB) Migrate(ctx context.Context) (int, error) {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS public.schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return 0, fmt.Errorf("create schema_versions: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM public.schema_versions WHERE version = $1)", m.Version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists {
			continue
		}

		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO public.schema_versions (version, description) VALUES ($1, $2)",
				m.Version, m.Description,
			); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.Pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM public.schema_versions").Scan(&version)
	return version, err
}
