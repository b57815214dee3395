// Package startup assembles every SENTINEL component into one Application
// and owns its start/stop lifecycle, following the teacher's
// cmd/oracle/startup.InitializeApplication shape.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelsignal/sentinel/internal/api"
	"github.com/sentinelsignal/sentinel/internal/callindex"
	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/engine"
	"github.com/sentinelsignal/sentinel/internal/fetcher"
	"github.com/sentinelsignal/sentinel/internal/ingress"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/internal/monitor"
	"github.com/sentinelsignal/sentinel/internal/narrative"
	"github.com/sentinelsignal/sentinel/internal/publisher"
	"github.com/sentinelsignal/sentinel/internal/registry"
	"github.com/sentinelsignal/sentinel/internal/storage/cache"
	"github.com/sentinelsignal/sentinel/internal/storage/db"
	"github.com/sentinelsignal/sentinel/internal/tracker"
)

// registryRefreshInterval is how often the curated-wallet mirror reloads
// from Postgres.
const registryRefreshInterval = 5 * time.Minute

// Application wires together every live component and owns the process's
// start/stop order.
type Application struct {
	cfg    *config.Config
	logger *logger.Logger

	db    *db.Connection
	redis *cache.Redis

	registry  *registry.Registry
	calls     *callindex.Index
	narrative *narrative.Index
	fetch     *fetcher.Fetcher
	engine    *engine.Engine
	pub       *publisher.Publisher
	mon       *monitor.Monitor
	track     *tracker.Tracker
	scheduler *ingress.Scheduler
	apiServer *api.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// InitializeApplication constructs every component without starting any
// background work; Start performs that separately so construction errors
// are always reported before anything begins running.
func InitializeApplication(cfg *config.Config, log *logger.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	conn, err := db.NewConnection(cfg.Database, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	redisClient, err := cache.NewRedisConnection(cfg.Redis, log)
	if err != nil {
		conn.Close()
		cancel()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	reg := registry.New(conn, log, registryRefreshInterval)
	calls := callindex.New(24 * time.Hour)
	narrativeIndex := narrative.New()

	dexClient := fetcher.NewDexClient(fetcher.DexClientConfig{
		BaseURL:        cfg.Fetcher.DexBaseURL,
		RequestTimeout: cfg.Fetcher.RequestTimeout,
		RateLimitDelay: cfg.Fetcher.DexRateLimitDelay,
	})
	onChainClient := fetcher.NewOnChainClient(cfg.Fetcher.OnChainBaseURL, cfg.Fetcher.RequestTimeout)
	curveClient := fetcher.NewBondingCurveClient(cfg.Fetcher.BondingCurveBaseURL, cfg.Fetcher.RequestTimeout)
	securityClient := fetcher.NewSecurityScoreClient(cfg.Fetcher.SecurityScoreBaseURL, cfg.Fetcher.RequestTimeout)
	fetch := fetcher.New(*cfg.Fetcher, log, dexClient, onChainClient, curveClient, securityClient)

	var narrativeMatcher engine.NarrativeMatcher
	if cfg.Features.EnableNarratives {
		narrativeMatcher = narrativeIndex
	}
	var predictor engine.Predictor
	if cfg.Features.EnableMLPredictions {
		predictor = engine.NoopPredictor{}
	}
	eng := engine.New(*cfg.Engine, narrativeMatcher, predictor)

	pub, err := publisher.New(*cfg.Telegram, log, conn)
	if err != nil {
		redisClient.Close()
		conn.Close()
		cancel()
		return nil, fmt.Errorf("constructing publisher: %w", err)
	}

	mon := monitor.New(*cfg.Monitor, log, fetch, pub)
	track := tracker.New(*cfg.Tracker, log, fetch, eng, reg, calls, pub, mon)

	scheduler := ingress.New(ingress.NewRedisStreams(redisClient), log)
	scheduler.Register(ingress.StreamKOLBuys, ingress.NewKOLBuyProcessor(track, reg))
	if cfg.Features.EnableTelegramCalls {
		scheduler.Register(ingress.StreamTelegramCalls, ingress.NewTelegramCallProcessor(track, calls, conn))
	}
	if cfg.Features.EnableRealtimeNarratives {
		scheduler.Register(ingress.StreamNarrativeRefresh, ingress.NewNarrativeRefreshProcessor(narrativeIndex))
	}

	apiServer := api.NewServer(cfg.API, log, fetch, reg, track)

	return &Application{
		cfg:       cfg,
		logger:    log,
		db:        conn,
		redis:     redisClient,
		registry:  reg,
		calls:     calls,
		narrative: narrativeIndex,
		fetch:     fetch,
		engine:    eng,
		pub:       pub,
		mon:       mon,
		track:     track,
		scheduler: scheduler,
		apiServer: apiServer,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start warms the registry, subscribes to ingress, and serves diagnostics.
// It returns once every component has started; the ingress consumer loops
// and the API server continue running in their own goroutines.
func (app *Application) Start() error {
	if err := app.registry.Start(app.ctx); err != nil {
		return fmt.Errorf("starting wallet registry: %w", err)
	}

	if err := app.scheduler.Start(app.ctx); err != nil {
		return fmt.Errorf("starting ingress scheduler: %w", err)
	}

	go func() {
		if err := app.apiServer.Start(); err != nil {
			app.logger.Error("api_server_failed", err)
			app.cancel()
		}
	}()

	app.logger.Info("sentinel_started")
	return nil
}

// Stop cancels every in-flight poll loop and monitor watch, drains the
// ingress scheduler, and closes the database and Redis connections in
// reverse dependency order.
func (app *Application) Stop() error {
	app.cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("api_server_shutdown_failed", err)
	}

	app.scheduler.Stop()
	app.track.Stop()
	app.mon.Stop()
	app.registry.Stop()

	if err := app.redis.Close(); err != nil {
		app.logger.Error("redis_close_failed", err)
	}
	app.db.Close()

	return nil
}
