package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/internal/external/naver"
	"github.com/wonny/aegis-insight/internal/knowledge"
	"github.com/wonny/aegis-insight/internal/pricedata"
	"github.com/wonny/aegis-insight/internal/tracker"
	"github.com/wonny/aegis-insight/pkg/config"
	"github.com/wonny/aegis-insight/pkg/database"
	"github.com/wonny/aegis-insight/pkg/httputil"
	"github.com/wonny/aegis-insight/pkg/logger"
	"github.com/wonny/aegis-insight/pkg/redis"
)

// app 배치 명령 공통 의존성
// ⭐ SSOT: 명령별 의존성 조립은 여기서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	knowledgeRepo *knowledge.Repository
	trackerRepo   *tracker.Repository

	// redis 미사용 시 프로세스 내 캐시 (priceLookup 호출 후 설정)
	memCache *pricedata.MemoryCache
}

// newApp 설정 로드, 로거, DB, redis 연결
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		// redis는 선택 사항: 캐시/전역 제한 없이 계속
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = &redis.Client{}
	}

	return &app{
		cfg:           cfg,
		log:           log,
		db:            db,
		redis:         rdb,
		knowledgeRepo: knowledge.NewRepository(db.Pool),
		trackerRepo:   tracker.NewRepository(db.Pool),
	}, nil
}

// Close releases connections
func (a *app) Close() {
	_ = a.redis.Close()
	a.db.Close()
}

// priceLookup PRICE_SOURCE에 따른 가격 조회 포트
func (a *app) priceLookup() (contracts.PriceLookup, error) {
	zlog := a.log.Zerolog()

	httpClient := httputil.New(zlog)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, "ratelimit"), redis.NaverRateLimit)
	}

	deps := pricedata.Deps{
		Pool:  a.db.Pool,
		Naver: naver.NewClient(httpClient, a.cfg.Naver, zlog),
	}
	if a.redis.Enabled() {
		deps.Cache = redis.NewCache(a.redis, "aegis")
	} else {
		a.memCache = pricedata.NewMemoryCache(zlog)
		deps.Cache = a.memCache
	}

	return pricedata.New(a.cfg.Price, deps, zlog)
}

func (a *app) compressor(dryRun bool) *knowledge.Compressor {
	return knowledge.NewCompressor(a.knowledgeRepo, knowledge.CompressorConfig{
		Layer1AgeDays: a.cfg.Knowledge.Layer1AgeDays,
		Layer2AgeDays: a.cfg.Knowledge.Layer2AgeDays,
		MinEntries:    a.cfg.Knowledge.MinEntries,
		DryRun:        dryRun,
	}, a.log.Component("knowledge"))
}

func (a *app) retention(dryRun bool) *knowledge.RetentionPolicy {
	return knowledge.NewRetentionPolicy(a.knowledgeRepo, knowledge.RetentionConfig{
		MaxPrinciples: a.cfg.Retention.MaxPrinciples,
		MaxIntuitions: a.cfg.Retention.MaxIntuitions,
		StaleDays:     a.cfg.Retention.StaleDays,
		ArchiveDays:   a.cfg.Retention.ArchiveDays,
		DryRun:        dryRun,
	}, a.log.Component("knowledge"))
}

func (a *app) advancer(prices contracts.PriceLookup, dryRun bool) *tracker.Advancer {
	return tracker.NewAdvancer(prices, a.trackerRepo, tracker.AdvanceConfig{
		Workers: a.cfg.Tracker.Workers,
		DryRun:  dryRun,
	}, a.log.Component("tracker"))
}

func (a *app) runAdvance(ctx context.Context, prices contracts.PriceLookup, dryRun bool) (*tracker.AdvanceResult, error) {
	return a.advancer(prices, dryRun).Run(ctx)
}

func (a *app) loadReport(ctx context.Context) (*tracker.Report, error) {
	return tracker.NewAggregator(a.log.Component("tracker")).Load(ctx, a.trackerRepo)
}

// runContext 명령 실행 컨텍스트 (Ctrl+C 시 취소)
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
