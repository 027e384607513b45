package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Collector struct {
	reg *prometheus.Registry

	Junctions prometheus.Gauge
	Tracks    prometheus.Gauge
	Trains    prometheus.Gauge

	Frames           prometheus.Counter
	TrainTransitions prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	TickDuration    prometheus.Histogram
	PublishDuration prometheus.Histogram

	SpeedMultiplier prometheus.Gauge
	TrainSpeed      prometheus.Gauge
	TickInterval    prometheus.Gauge // seconds
}

func NewCollector(speedMultiplier, trainSpeed float64, tickInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Junctions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_junctions",
			Help: "Number of junctions in the network.",
		}),
		Tracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_tracks",
			Help: "Number of track segments in the network.",
		}),
		Trains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_trains",
			Help: "Number of trains on the network.",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railnet_frames_total",
			Help: "Total simulation frames run.",
		}),
		TrainTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railnet_train_transitions_total",
			Help: "Total times a train moved onto a new track.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railnet_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railnet_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railnet_tick_duration_seconds",
			Help:    "Duration of network updates.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railnet_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		SpeedMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_speed_multiplier",
			Help: "Simulated seconds per wall-clock second.",
		}),
		TrainSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_train_speed",
			Help: "Train speed in units per simulated second.",
		}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railnet_tick_interval_seconds",
			Help: "Frame period in seconds.",
		}),
	}

	// Register
	reg.MustRegister(
		c.Junctions, c.Tracks, c.Trains,
		c.Frames, c.TrainTransitions,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.TickDuration, c.PublishDuration,
		c.SpeedMultiplier, c.TrainSpeed, c.TickInterval,
	)

	// Set static gauges
	c.SpeedMultiplier.Set(speedMultiplier)
	c.TrainSpeed.Set(trainSpeed)
	c.TickInterval.Set(tickInterval.Seconds())

	return c
}

// SetNetworkSize records the size of a freshly built network.
func (c *Collector) SetNetworkSize(junctions, tracks, trains int) {
	c.Junctions.Set(float64(junctions))
	c.Tracks.Set(float64(tracks))
	c.Trains.Set(float64(trains))
}

func (c *Collector) TrainTransitionInc() { c.TrainTransitions.Inc() }

// FrameObserve counts a frame and records how long its update took.
func (c *Collector) FrameObserve(d time.Duration) {
	c.Frames.Inc()
	c.TickDuration.Observe(d.Seconds())
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
