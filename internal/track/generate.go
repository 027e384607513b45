package track

import (
	"fmt"

	"github.com/quasilyte/gmath"
	"go.uber.org/zap"
)

// Layout describes the generated network: two concentric rounded rectangles
// traversed in opposite directions.
type Layout struct {
	Width        float64
	Height       float64
	BorderRadius float64
	// InnerScale is the size of the inner ring relative to the outer one.
	InnerScale float64
	// Crossovers adds two tracks linking the rings.
	Crossovers bool
}

func DefaultLayout() Layout {
	return Layout{
		Width:        84,
		Height:       56,
		BorderRadius: 12,
		InnerScale:   0.8,
		Crossovers:   true,
	}
}

// Crossover endpoints on the inner ring, counted back from the last junction
// created while building both rings.
const (
	crossoverInOffset  = 16
	crossoverOutOffset = 24
)

// waypoints returns the ten corners and mid-points of the rounded rectangle,
// counter-clockwise from the bottom-left corner.
func (l Layout) waypoints() [10]gmath.Vec {
	w, h, r := l.Width*0.5, l.Height*0.5, l.BorderRadius
	return [10]gmath.Vec{
		{X: -w + r, Y: -h},
		{X: -w, Y: -h + r},
		{X: -w, Y: h - r},
		{X: -w + r, Y: h},
		{X: 0, Y: h},
		{X: w - r, Y: h},
		{X: w, Y: h - r},
		{X: w, Y: -h + r},
		{X: w - r, Y: -h},
		{X: 0, Y: -h},
	}
}

// Generate builds the network described by layout and places two trains on
// each ring.
func Generate(layout Layout, params Params, opts ...Option) (*Network, error) {
	n := New(params, opts...)

	rings := []struct {
		scale   float64
		forward bool
	}{
		{scale: 1, forward: true},
		{scale: layout.InnerScale, forward: false},
	}
	for _, ring := range rings {
		var junctions [10]JunctionID
		for i, p := range layout.waypoints() {
			junctions[i] = n.AddJunction(p.Mulf(ring.scale))
		}

		var tracks []TrackID
		for k := range junctions {
			i := (k + 1) % len(junctions)
			next := (i + 1) % len(junctions)
			from, to := junctions[i], junctions[next]
			if !ring.forward {
				from, to = to, from
			}
			id, err := n.ConnectTrack(from, to)
			if err != nil {
				return nil, fmt.Errorf("ring at scale %g: %w", ring.scale, err)
			}
			tracks = append(tracks, id)
		}
		n.assertConsistent("after ring")

		n.AddTrain(tracks[0])
		n.AddTrain(tracks[1])
	}

	if layout.Crossovers {
		last := len(n.junctions)
		if last < crossoverOutOffset+1 {
			return nil, fmt.Errorf("layout too small for crossovers: %d junctions", last)
		}
		crossovers := [][2]JunctionID{
			{1, JunctionID(last - crossoverInOffset)},
			{JunctionID(last - crossoverOutOffset), 9},
		}
		for _, c := range crossovers {
			if _, err := n.ConnectTrack(c[0], c[1]); err != nil {
				return nil, fmt.Errorf("crossover: %w", err)
			}
			n.assertConsistent("after crossover")
		}
	}

	n.logger.Info("network generated",
		zap.Int("junctions", len(n.junctions)),
		zap.Int("tracks", len(n.tracks)),
		zap.Int("trains", len(n.trains)),
	)
	return n, nil
}
