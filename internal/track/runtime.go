package track

import (
	"fmt"
	"iter"
	"math"

	"github.com/quasilyte/gmath"
)

// TrackInfo is the renderable geometry of one track.
type TrackInfo struct {
	ID          TrackID
	Source      gmath.Vec
	Destination gmath.Vec
	Shape       Shape
}

// TrainState is a train together with where it currently is.
type TrainState struct {
	Train
	Transform
}

// AddTrain places a new train at the start of track.
func (n *Network) AddTrain(track TrackID) TrainID {
	id := TrainID(len(n.trains))
	n.trains = append(n.trains, Train{ID: id, Track: track})
	n.tracks[track].trains = append(n.tracks[track].trains, id)
	return id
}

// Update advances every train by dt seconds at the configured speed. A train
// reaching the end of its track continues on a randomly chosen exit of the
// destination junction, carrying over the excess distance.
func (n *Network) Update(dt float64) {
	step := dt * n.params.TrainSpeed
	for i := range n.trains {
		train := &n.trains[i]
		track := &n.tracks[train.Track]

		train.Distance += step
		length := math.Abs(track.Length)
		if train.Distance < length {
			continue
		}
		if length > 0 {
			train.Distance = math.Mod(train.Distance, length)
		} else {
			train.Distance = 0
		}

		junction := &n.junctions[track.Destination]
		exits := junction.Exits.Len()
		if exits == 0 {
			panic(fmt.Sprintf("train %d reached junction %d which has no exits", train.ID, junction.ID))
		}
		next := junction.Exits.At(n.rng.IntN(exits))
		n.tracks[next].trains = append(n.tracks[next].trains, train.ID)
		train.Track = next
		if n.metrics != nil {
			n.metrics.TrainTransitionInc()
		}
	}
}

// Trains iterates over all trains and their current transforms.
func (n *Network) Trains() iter.Seq[TrainState] {
	return func(yield func(TrainState) bool) {
		for _, train := range n.trains {
			at := n.tracks[train.Track].Shape.TransformAt(train.Distance)
			if !yield(TrainState{Train: train, Transform: at}) {
				return
			}
		}
	}
}

// TrainPositions iterates over the position and heading of every train.
func (n *Network) TrainPositions() iter.Seq[Transform] {
	return func(yield func(Transform) bool) {
		for state := range n.Trains() {
			if !yield(state.Transform) {
				return
			}
		}
	}
}

// Curves iterates over the geometry of every track.
func (n *Network) Curves() iter.Seq[TrackInfo] {
	return func(yield func(TrackInfo) bool) {
		for _, t := range n.tracks {
			info := TrackInfo{
				ID:          t.ID,
				Source:      n.junctions[t.Source].Position,
				Destination: n.junctions[t.Destination].Position,
				Shape:       t.Shape,
			}
			if !yield(info) {
				return
			}
		}
	}
}
