package di

import (
	"context"
	"fmt"
	"time"

	"OptionPulse/internal/analytics"
	domrepo "OptionPulse/internal/domain/repository"
	"OptionPulse/internal/handler/api"
	internalrepo "OptionPulse/internal/repository"
	"OptionPulse/internal/service/feed"
	"OptionPulse/internal/service/stats"
	"OptionPulse/internal/settlement"
	"OptionPulse/internal/usecase"
	"OptionPulse/pkg/cache"
	"OptionPulse/pkg/config"
	xhttp "OptionPulse/pkg/http"
	pkgkafka "OptionPulse/pkg/kafka"
	applogger "OptionPulse/pkg/logger"
	"OptionPulse/pkg/metrics"
	"OptionPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideWindow creates the shared price sample window.
func ProvideWindow(cfg *config.Config) *analytics.Window {
	return analytics.NewWindow(cfg.Feed.WindowCapacity)
}

// ProvideVolatility creates the EWMA volatility estimator.
func ProvideVolatility(cfg *config.Config) *analytics.Volatility {
	return analytics.NewVolatility(cfg.Volatility.Lambda, cfg.Volatility.DefaultPct)
}

// ProvideTrend creates the trend analyzer over the shared window.
func ProvideTrend(window *analytics.Window, vol *analytics.Volatility, cfg *config.Config) *analytics.Trend {
	return analytics.NewTrend(window, vol, analytics.TrendConfig{
		Window:            cfg.Trend.Window,
		MinSamples:        cfg.Trend.MinSamples,
		ThresholdFloorPct: cfg.Trend.ThresholdFloorPct,
		VolThresholdScale: cfg.Trend.VolThresholdScale,
		StrengthScalePct:  cfg.Trend.StrengthScalePct,
	})
}

// ProvideMarketStream creates the WebSocket tick stream.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	return feed.New(
		cfg.Feed.WebSocketURL,
		cfg.Feed.APIKey,
		cfg.Feed.Symbol,
		cfg.Feed.PingInterval,
	)
}

// ProvideFeedConnector creates the feed connector use case.
func ProvideFeedConnector(
	stream domrepo.MarketStream,
	window *analytics.Window,
	vol *analytics.Volatility,
	m domrepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.FeedConnector {
	return usecase.NewFeedConnector(stream, window, vol, m, log, usecase.FeedConfig{
		BackoffBase:      cfg.Feed.BackoffBase,
		MaxReconnects:    cfg.Feed.MaxReconnects,
		SubscriberBuffer: cfg.Feed.SubscriberBuffer,
	})
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSharedCache creates the optional Redis-backed statistics cache.
// Returns nil when Redis is not configured; the stats source treats a nil
// cache as purely in-process.
func ProvideSharedCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Stats.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Stats.Redis.Addr,
		Password: cfg.Stats.Redis.Password,
		DB:       cfg.Stats.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideLedger creates the external ledger client. With Kafka enabled the
// ledger is decorated so every settlement is also published as an event.
func ProvideLedger(cfg *config.Config, producer *pkgkafka.Producer, log *applogger.Logger) domrepo.Ledger {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Ledger.Timeout))
	var ledger domrepo.Ledger = internalrepo.NewHTTPLedger(cfg.Ledger.BaseURL, client, log)
	if producer != nil {
		ledger = internalrepo.NewKafkaRecorder(ledger, producer, cfg.Kafka.Topic, log)
	}
	return ledger
}

// ProvideStatsSource creates the TTL-cached statistics source.
func ProvideStatsSource(ledger domrepo.Ledger, shared cache.Service, cfg *config.Config, log *applogger.Logger) *stats.Source {
	return stats.NewSource(ledger, shared, cfg.Stats.TTL, log)
}

// ProvideSettlementEngine creates the settlement engine with the current
// payout schedule.
func ProvideSettlementEngine() *settlement.Engine {
	return settlement.NewEngine(settlement.DefaultTable())
}

// ProvideLifecycle creates the trade lifecycle controller.
func ProvideLifecycle(
	fc *usecase.FeedConnector,
	engine *settlement.Engine,
	ledger domrepo.Ledger,
	m domrepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Lifecycle {
	return usecase.NewLifecycle(fc, engine, ledger, m, log, usecase.LifecycleConfig{
		SettleWait:   cfg.Trading.SettleWait,
		DisplayReset: cfg.Trading.DisplayReset,
		Countdown:    time.Second,
	})
}

// ProvideRecommender creates the recommendation engine.
func ProvideRecommender(src *stats.Source, trend *analytics.Trend, log *applogger.Logger) *usecase.Recommender {
	return usecase.NewRecommender(src, trend, log, usecase.DefaultRecommenderConfig())
}

// ProvideHTTPHandler creates the session API handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	fc *usecase.FeedConnector,
	lc *usecase.Lifecycle,
	rec *usecase.Recommender,
	engine *settlement.Engine,
	vol *analytics.Volatility,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewSessionEchoHandler(log, fc, lc, rec, engine, vol, cfg.Feed.Symbol)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	fc *usecase.FeedConnector,
	lc *usecase.Lifecycle,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
	shared cache.Service,
) *server.App {
	return server.New(cfg, log, fc, lc, handler, producer, shared)
}
