package sim

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"railnet/internal/track"
)

// Publisher receives network snapshots. *publisher.NATSPublisher satisfies it.
type Publisher interface {
	PublishTrains(trains iter.Seq[track.TrainState], at time.Time) error
	PublishNetwork(curves iter.Seq[track.TrackInfo]) error
}

type Metrics interface {
	FrameObserve(d time.Duration)
}

// Runner drives a network from a single goroutine: every tick it advances
// the trains and publishes their positions.
type Runner struct {
	network         *track.Network
	pub             Publisher
	tickInterval    time.Duration
	speedMultiplier float64
	metrics         Metrics
	logger          *zap.Logger

	// mu guards network.
	mu     sync.Mutex
	frames uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	broadcastCancel context.CancelFunc
	broadcastWG     sync.WaitGroup
}

// NewRunner returns a stopped runner. pub and metrics may be nil.
func NewRunner(network *track.Network, pub Publisher, tickInterval time.Duration, speedMultiplier float64, metrics Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		network:         network,
		pub:             pub,
		tickInterval:    tickInterval,
		speedMultiplier: speedMultiplier,
		metrics:         metrics,
		logger:          logger,
	}
}

// Start publishes the network geometry once and launches the frame loop.
// Each tick advances the simulation by the wall time since the previous one.
func (r *Runner) Start(parent context.Context) {
	r.publishNetwork()

	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		tick := time.NewTicker(r.tickInterval)
		defer tick.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				r.Step(now.Sub(last))
				last = now
			}
		}
	}()
	r.logger.Info("runner started",
		zap.Duration("tick", r.tickInterval),
		zap.Float64("speedMultiplier", r.speedMultiplier),
	)
}

// StartBroadcaster republishes the network geometry every interval so late
// subscribers can draw it.
func (r *Runner) StartBroadcaster(parent context.Context, interval time.Duration) {
	if interval <= 0 || r.pub == nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	r.broadcastCancel = cancel
	r.broadcastWG.Add(1)
	go func() {
		defer r.broadcastWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.publishNetwork()
			}
		}
	}()
}

func (r *Runner) Stop() {
	if r.broadcastCancel != nil {
		r.broadcastCancel()
	}
	r.broadcastWG.Wait()
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped", zap.Uint64("frames", r.Frames()))
}

// Step advances the network by dt of wall time scaled by the speed
// multiplier, then publishes train positions.
func (r *Runner) Step(dt time.Duration) {
	r.mu.Lock()
	start := time.Now()
	r.network.Update(dt.Seconds() * r.speedMultiplier)
	elapsed := time.Since(start)
	r.frames++
	trains := slices.Collect(r.network.Trains())
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.FrameObserve(elapsed)
	}
	if r.pub == nil {
		return
	}
	if err := r.pub.PublishTrains(slices.Values(trains), start); err != nil {
		r.logger.Warn("publish trains", zap.Error(err))
	}
}

// Snapshot returns the current state of every train.
func (r *Runner) Snapshot() []track.TrainState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Collect(r.network.Trains())
}

func (r *Runner) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *Runner) publishNetwork() {
	if r.pub == nil {
		return
	}
	r.mu.Lock()
	curves := slices.Collect(r.network.Curves())
	r.mu.Unlock()
	if err := r.pub.PublishNetwork(slices.Values(curves)); err != nil {
		r.logger.Warn("publish network", zap.Error(err))
	}
}
