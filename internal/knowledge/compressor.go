package knowledge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// CompressorConfig 계층 압축 설정
type CompressorConfig struct {
	Layer1AgeDays int  // layer 1 → 2 승격 경과일
	Layer2AgeDays int  // layer 2 → 3 승격 경과일
	MinEntries    int  // 시장별 최소 항목 수
	DryRun        bool // 저장소 변경 없이 결과만 계산
}

// DefaultCompressorConfig 기본 설정 (7일 / 30일 / 3건)
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{
		Layer1AgeDays: 7,
		Layer2AgeDays: 30,
		MinEntries:    3,
	}
}

// CompressionResult 압축 실행 결과
type CompressionResult struct {
	Layer1             contracts.BatchSummary `json:"layer1"` // 1 → 2
	Layer2             contracts.BatchSummary `json:"layer2"` // 2 → 3
	PrinciplesUpserted int                    `json:"principles_upserted"`
	IntuitionsUpserted int                    `json:"intuitions_upserted"`
	Intuitions         []contracts.Intuition  `json:"intuitions"` // 이번 실행에서 도출된 관측
	DryRun             bool                   `json:"dry_run"`
}

// Summary 두 단계 합산 요약
func (r *CompressionResult) Summary() contracts.BatchSummary {
	return r.Layer1.Add(r.Layer2)
}

// Compressor 저널 계층 압축기
// ⭐ SSOT: compression_layer 변경은 이 압축기에서만
type Compressor struct {
	store CompressionStore
	cfg   CompressorConfig
	log   zerolog.Logger
	now   func() time.Time
}

// NewCompressor 새 압축기 생성
func NewCompressor(store CompressionStore, cfg CompressorConfig, log zerolog.Logger) *Compressor {
	return &Compressor{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "knowledge.compressor").Logger(),
		now:   time.Now,
	}
}

// Run layer 1 → 2 승격 후 layer 2 → 3 승격 (직관 도출 포함)
// 조회 실패만 에러로 반환하고, 항목/시장 단위 실패는 요약에 집계
func (c *Compressor) Run(ctx context.Context) (*CompressionResult, error) {
	now := c.now()
	result := &CompressionResult{DryRun: c.cfg.DryRun}

	c.log.Info().
		Int("layer1_age_days", c.cfg.Layer1AgeDays).
		Int("layer2_age_days", c.cfg.Layer2AgeDays).
		Int("min_entries", c.cfg.MinEntries).
		Bool("dry_run", c.cfg.DryRun).
		Msg("compression started")

	if err := c.compressDetailed(ctx, now, result); err != nil {
		return result, fmt.Errorf("layer 1 compression: %w", err)
	}

	if err := c.compressSummarized(ctx, now, result); err != nil {
		return result, fmt.Errorf("layer 2 compression: %w", err)
	}

	c.log.Info().
		Str("layer1", result.Layer1.String()).
		Str("layer2", result.Layer2.String()).
		Int("principles", result.PrinciplesUpserted).
		Int("intuitions", result.IntuitionsUpserted).
		Msg("compression completed")

	return result, nil
}

// compressDetailed layer 1 → 2: 순수 계층 승격 + 교훈의 원칙 이관
func (c *Compressor) compressDetailed(ctx context.Context, now time.Time, result *CompressionResult) error {
	cutoff := now.AddDate(0, 0, -c.cfg.Layer1AgeDays)
	entries, err := c.store.ListJournalByLayer(ctx, contracts.LayerDetailed, cutoff)
	if err != nil {
		return err
	}

	for _, group := range partitionByMarket(entries) {
		result.Layer1.Processed += len(group.Entries)

		if len(group.Entries) < c.cfg.MinEntries {
			result.Layer1.Skipped += len(group.Entries)
			c.log.Debug().
				Str("market", string(group.Market)).
				Int("entries", len(group.Entries)).
				Msg("not enough layer 1 entries, skipping market")
			continue
		}

		for _, e := range group.Entries {
			if e.LessonsErr != nil {
				c.log.Warn().Err(e.LessonsErr).Int64("journal_id", e.ID).Msg("lessons unreadable, promoting without migration")
				continue
			}
			for _, p := range PrinciplesFromEntry(e, now) {
				if c.cfg.DryRun {
					result.PrinciplesUpserted++
					continue
				}
				if _, err := c.store.UpsertPrinciple(ctx, p); err != nil {
					result.Layer1.Errors++
					c.log.Error().Err(err).Int64("journal_id", e.ID).Str("condition", p.Condition).Msg("principle upsert failed")
					continue
				}
				result.PrinciplesUpserted++
			}
		}

		result.Layer1.Updated += c.promote(ctx, group, contracts.LayerSummarized, &result.Layer1)
	}

	return nil
}

// compressSummarized layer 2 → 3: 패턴 태그 집계로 직관 도출 후 전체 승격
func (c *Compressor) compressSummarized(ctx context.Context, now time.Time, result *CompressionResult) error {
	cutoff := now.AddDate(0, 0, -c.cfg.Layer2AgeDays)
	entries, err := c.store.ListJournalByLayer(ctx, contracts.LayerSummarized, cutoff)
	if err != nil {
		return err
	}

	for _, group := range partitionByMarket(entries) {
		result.Layer2.Processed += len(group.Entries)

		if len(group.Entries) < c.cfg.MinEntries {
			result.Layer2.Skipped += len(group.Entries)
			continue
		}

		intuitions, malformed := DeriveIntuitions(group.Entries, group.Market, now, c.log)
		if malformed > 0 {
			c.log.Warn().
				Str("market", string(group.Market)).
				Int("malformed", malformed).
				Msg("entries excluded from pattern aggregation")
		}

		for _, in := range intuitions {
			result.Intuitions = append(result.Intuitions, in)
			if c.cfg.DryRun {
				result.IntuitionsUpserted++
				continue
			}
			if _, err := c.store.UpsertIntuition(ctx, in); err != nil {
				result.Layer2.Errors++
				c.log.Error().Err(err).Str("category", in.Category).Str("market", string(in.Market)).Msg("intuition upsert failed")
				continue
			}
			result.IntuitionsUpserted++
		}

		// 그룹 기여 여부와 무관하게 처리된 항목 전체 승격
		result.Layer2.Updated += c.promote(ctx, group, contracts.LayerCompressed, &result.Layer2)
	}

	return nil
}

// promote 시장 그룹 전체를 다음 계층으로 승격, 승격된 수 반환
func (c *Compressor) promote(ctx context.Context, group marketGroup, to contracts.CompressionLayer, summary *contracts.BatchSummary) int {
	if c.cfg.DryRun {
		return len(group.Entries)
	}

	ids := make([]int64, 0, len(group.Entries))
	for _, e := range group.Entries {
		ids = append(ids, e.ID)
	}

	n, err := c.store.PromoteJournal(ctx, ids, to)
	if err != nil {
		summary.Errors += len(ids)
		c.log.Error().Err(err).
			Str("market", string(group.Market)).
			Int("to_layer", int(to)).
			Int("entries", len(ids)).
			Msg("journal promotion failed")
		return 0
	}
	return n
}

// marketGroup 시장별 항목 묶음
type marketGroup struct {
	Market  contracts.Market
	Entries []contracts.JournalEntry
}

// partitionByMarket 시장별 분할 (시장 이름순)
func partitionByMarket(entries []contracts.JournalEntry) []marketGroup {
	byMarket := make(map[contracts.Market][]contracts.JournalEntry)
	for _, e := range entries {
		byMarket[e.Market] = append(byMarket[e.Market], e)
	}

	markets := make([]string, 0, len(byMarket))
	for m := range byMarket {
		markets = append(markets, string(m))
	}
	sort.Strings(markets)

	groups := make([]marketGroup, 0, len(markets))
	for _, m := range markets {
		groups = append(groups, marketGroup{Market: contracts.Market(m), Entries: byMarket[contracts.Market(m)]})
	}
	return groups
}
