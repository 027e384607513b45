// Package track builds a rail network out of lines and circular arcs and moves
// trains along it.
//
// Junctions, tracks, trains and stations live in dense slices owned by the
// Network and refer to each other by integer ID. Construction happens once;
// afterwards only Update mutates the network.
package track

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/quasilyte/gmath"
	"go.uber.org/zap"

	"railnet/internal/bounded"
)

type (
	JunctionID int
	TrackID    int
	TrainID    int
	StationID  int
)

// Params are the tunables of construction and simulation.
type Params struct {
	// IdealSegmentLength is the target length of a track segment; longer
	// shapes are split into equal parts no longer than this.
	IdealSegmentLength float64
	// MaxBendRadius is the radius of the circles used for S-curve bends.
	MaxBendRadius float64
	// TrainSpeed in units per second.
	TrainSpeed float64
}

func DefaultParams() Params {
	return Params{
		IdealSegmentLength: 3,
		MaxBendRadius:      4,
		TrainSpeed:         8,
	}
}

// Junction is a point of the network. Each junction is entered by at most two
// tracks and left by at most two.
type Junction struct {
	ID        JunctionID
	Position  gmath.Vec
	Entrances bounded.List[TrackID]
	Exits     bounded.List[TrackID]

	direction    gmath.Vec
	hasDirection bool
}

// Direction returns the tangent fixed at this junction, if any track has
// established one yet.
func (j Junction) Direction() (gmath.Vec, bool) { return j.direction, j.hasDirection }

// setDirectionIfAbsent fixes the junction tangent unless one is already set.
func (j *Junction) setDirectionIfAbsent(d gmath.Vec) {
	if !j.hasDirection {
		j.direction = d
		j.hasDirection = true
	}
}

// Track is a directed edge between two junctions.
type Track struct {
	ID          TrackID
	Source      JunctionID
	Destination JunctionID
	Shape       Shape
	Length      float64

	// trains is appended to whenever a train enters the track. Nothing
	// consumes it yet.
	trains []TrainID
}

// Occupants returns the trains that have entered this track, oldest first.
func (t Track) Occupants() []TrainID { return slices.Clone(t.trains) }

// Train is a vehicle at Distance along Track.
type Train struct {
	ID       TrainID
	Track    TrackID
	Distance float64
}

// RandSource picks the exit a train takes at a junction. *rand.Rand satisfies it.
type RandSource interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

// Metrics receives runtime events. All methods must be cheap.
type Metrics interface {
	TrainTransitionInc()
}

type Network struct {
	params  Params
	rng     RandSource
	logger  *zap.Logger
	metrics Metrics

	junctions []Junction
	tracks    []Track
	trains    []Train
	stations  []Station
}

type Option func(*Network)

func WithRand(src RandSource) Option {
	return func(n *Network) { n.rng = src }
}

func WithLogger(l *zap.Logger) Option {
	return func(n *Network) { n.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(n *Network) { n.metrics = m }
}

// New returns an empty network.
func New(params Params, opts ...Option) *Network {
	n := &Network{params: params}
	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		seed := uint64(time.Now().UnixNano())
		n.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

func (n *Network) Params() Params { return n.params }

func (n *Network) NumJunctions() int { return len(n.junctions) }
func (n *Network) NumTracks() int    { return len(n.tracks) }
func (n *Network) NumTrains() int    { return len(n.trains) }

// Junction returns a copy of the junction with the given ID.
func (n *Network) Junction(id JunctionID) Junction { return n.junctions[id] }

// Track returns a copy of the track with the given ID.
func (n *Network) Track(id TrackID) Track { return n.tracks[id] }

// Train returns a copy of the train with the given ID.
func (n *Network) Train(id TrainID) Train { return n.trains[id] }

// AddJunction appends a junction with no direction.
func (n *Network) AddJunction(position gmath.Vec) JunctionID {
	id := JunctionID(len(n.junctions))
	n.junctions = append(n.junctions, Junction{ID: id, Position: position})
	return id
}

// CreateLine adds a straight track from source to destination. Junctions
// without a direction adopt the direction of the line.
func (n *Network) CreateLine(source, destination JunctionID) TrackID {
	from := n.junctions[source].Position
	to := n.junctions[destination].Position
	offset := to.Sub(from)
	direction := offset.Normalized()

	id := n.AddTrack(source, destination, Line{Origin: from, Direction: direction, Span: offset.Len()})
	n.junctions[source].setDirectionIfAbsent(direction)
	n.junctions[destination].setDirectionIfAbsent(direction)
	return id
}

// AddTrack splits shape into segments of at most IdealSegmentLength, adding a
// junction at every cut, and returns the ID of the first segment.
func (n *Network) AddTrack(source, destination JunctionID, shape Shape) TrackID {
	length := shape.Length()
	segments := 1
	if n.params.IdealSegmentLength > 0 {
		segments = max(1, int(math.Ceil(length/n.params.IdealSegmentLength)))
	}
	segmentLength := length / float64(segments)

	first := TrackID(-1)
	from := source
	for seg := 0; seg < segments; seg++ {
		start := float64(seg) * segmentLength
		end := float64(seg+1) * segmentLength

		to := destination
		if seg < segments-1 {
			at := shape.TransformAt(end)
			to = n.AddJunction(at.Position)
			n.junctions[to].setDirectionIfAbsent(unit(at.Heading))
		}

		id := n.AddTrackSegment(from, to, shape.Subshape(start, end))
		if first < 0 {
			first = id
		}
		from = to
	}
	return first
}

// AddTrackSegment adds a single track without splitting it. It panics if
// either junction already has the maximum number of tracks on that side.
func (n *Network) AddTrackSegment(source, destination JunctionID, shape Shape) TrackID {
	id := TrackID(len(n.tracks))

	if err := n.junctions[source].Exits.Push(id); err != nil {
		panic(fmt.Sprintf("track %d: junction %d exits: %v", id, source, err))
	}
	if err := n.junctions[destination].Entrances.Push(id); err != nil {
		panic(fmt.Sprintf("track %d: junction %d entrances: %v", id, destination, err))
	}

	n.tracks = append(n.tracks, Track{
		ID:          id,
		Source:      source,
		Destination: destination,
		Shape:       shape,
		Length:      shape.Length(),
	})
	return id
}
