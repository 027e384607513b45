package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"railnet/internal/config"
	"railnet/internal/db"
	"railnet/internal/log"
	"railnet/internal/metrics"
	"railnet/internal/publisher"
	"railnet/internal/sim"
	"railnet/internal/track"
)

const networkBroadcastInterval = 10 * time.Second

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.InitProductionLogger()
		log.Logger.Fatal("config error", zap.Error(err))
	}
	log.Init(cfg.LogMode)
	logger := log.Logger
	defer func() { _ = logger.Sync() }()

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	layout, params := cfg.Layout, cfg.Params
	if cfg.LayoutName != "" {
		layout, params, err = loadLayout(ctx, cfg, layout, params)
		if err != nil {
			logger.Fatal("load layout", zap.String("layout", cfg.LayoutName), zap.Error(err))
		}
		logger.Info("using catalog layout", zap.String("layout", cfg.LayoutName))
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrvCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedMultiplier, params.TrainSpeed, cfg.TickInterval)
		// Serve metrics
		mctx, mcancel := context.WithCancel(ctx)
		metricsSrvCancel = mcancel
		srv := mcol.Serve(cfg.MetricsAddr, logger)
		go func() {
			<-mctx.Done()
			// Shutdown with timeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []track.Option{track.WithLogger(logger.Named("track"))}
	if cfg.RandSeed != 0 {
		opts = append(opts, track.WithRand(rand.New(rand.NewPCG(cfg.RandSeed, cfg.RandSeed>>1))))
	}
	if mcol != nil {
		opts = append(opts, track.WithMetrics(mcol))
	}
	network, err := track.Generate(layout, params, opts...)
	if err != nil {
		logger.Fatal("generate network", zap.Error(err))
	}
	if mcol != nil {
		mcol.SetNetworkSize(network.NumJunctions(), network.NumTracks(), network.NumTrains())
	}

	// Initialize NATS publisher; an empty URL runs the simulation headless.
	var pub sim.Publisher
	if cfg.NATSURL != "" {
		np, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol), logger.Named("nats"))
		if err != nil {
			logger.Fatal("nats error", zap.Error(err))
		}
		defer np.Close()
		pub = np
	} else {
		logger.Info("NATS_URL not set, not publishing")
	}

	var runnerMetrics sim.Metrics
	if mcol != nil {
		runnerMetrics = mcol
	}
	runner := sim.NewRunner(network, pub, cfg.TickInterval, cfg.SpeedMultiplier, runnerMetrics, logger.Named("sim"))
	runner.Start(ctx)
	runner.StartBroadcaster(ctx, networkBroadcastInterval)

	// Block until context cancelled
	<-ctx.Done()
	// Allow graceful shutdown
	runner.Stop()
	if metricsSrvCancel != nil {
		metricsSrvCancel()
	}
	logger.Info("shutdown complete")
}

// loadLayout overlays the named catalog row onto the configured layout.
func loadLayout(ctx context.Context, cfg *config.Config, layout track.Layout, params track.Params) (track.Layout, track.Params, error) {
	dsn := cfg.DatabaseURL
	if cfg.LayoutDB != "" {
		var err error
		dsn, err = db.WithDBName(dsn, cfg.LayoutDB)
		if err != nil {
			return layout, params, err
		}
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return layout, params, err
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return layout, params, err
	}
	row, err := db.FetchLayout(ctx, sqlDB, cfg.LayoutName)
	if errors.Is(err, db.ErrLayoutNotFound) {
		if names, lerr := db.ListLayouts(ctx, sqlDB); lerr == nil {
			log.Logger.Warn("available layouts", zap.Strings("names", names))
		}
	}
	if err != nil {
		return layout, params, err
	}
	return row.Apply(layout, params)
}

// wrapPublisherMetrics returns nil when metrics are disabled so the publisher
// sees a nil interface rather than a nil *Collector.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}
