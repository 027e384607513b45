package track

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railnet/internal/bounded"
)

// unsplit keeps every shape in a single segment.
var unsplit = Params{IdealSegmentLength: 100, MaxBendRadius: 4, TrainSpeed: 8}

func assertDirection(t *testing.T, n *Network, id JunctionID, want float64) {
	t.Helper()
	dir, ok := n.Junction(id).Direction()
	require.True(t, ok, "junction %d has no direction", id)
	assert.Less(t, dir.DistanceTo(unit(want)), 1e-6, "junction %d direction %v", id, dir)
}

func TestConnectTrack_NoDirections(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(10, 0))

	id, err := n.ConnectTrack(a, b)
	require.NoError(t, err)

	tr := n.Track(id)
	assert.Equal(t, a, tr.Source)
	assert.Equal(t, b, tr.Destination)
	line, ok := tr.Shape.(Line)
	require.True(t, ok, "expected a line, got %T", tr.Shape)
	assert.InDelta(t, 10, line.Span, delta)
	assert.InDelta(t, 10, tr.Length, delta)
	assert.Less(t, line.Direction.DistanceTo(vec(1, 0)), delta)
	assertDirection(t, n, a, 0)
	assertDirection(t, n, b, 0)
	require.NoError(t, n.Validate())
}

func TestConnectTrack_SourceDirection(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(0, 10))
	n.junctions[a].setDirectionIfAbsent(vec(1, 0))

	id, err := n.ConnectTrack(a, b)
	require.NoError(t, err)

	arc, ok := n.Track(id).Shape.(Arc)
	require.True(t, ok)
	assert.InDelta(t, 5.0, arc.Radius, delta)
	end := arc.TransformAt(arc.Length()).Position
	assert.Less(t, end.DistanceTo(vec(0, 10)), checkTolerance)

	// the destination takes the arc's final heading
	assertDirection(t, n, b, math.Pi)
	require.NoError(t, n.Validate())
}

func TestConnectTrack_DestinationDirection(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(0, 10))
	n.junctions[b].setDirectionIfAbsent(vec(-1, 0))

	id, err := n.ConnectTrack(a, b)
	require.NoError(t, err)

	shape := n.Track(id).Shape
	_, ok := shape.(Arc)
	require.True(t, ok)
	assert.InDelta(t, 5*math.Pi, shape.Length(), delta)
	assertDirection(t, n, a, 0)
	assertDirection(t, n, b, math.Pi)
	require.NoError(t, n.Validate())
}

func TestConnectTrack_Bend(t *testing.T) {
	tests := []struct {
		name       string
		from, to   Transform
		params     Params
		junctions  int
		tracks     int
		mid1, mid2 [2]float64
	}{
		{
			name:      "s-curve",
			from:      Transform{Position: vec(0, 0), Heading: 0},
			to:        Transform{Position: vec(20, 5), Heading: 0},
			params:    unsplit,
			junctions: 4,
			tracks:    3,
			mid1:      [2]float64{1.0198285881, 0.1321905876},
			mid2:      [2]float64{18.9801714119, 4.8678094124},
		},
		{
			name:      "u-turn",
			from:      Transform{Position: vec(0, 0), Heading: math.Pi / 2},
			to:        Transform{Position: vec(30, 0), Heading: -math.Pi / 2},
			params:    unsplit,
			junctions: 4,
			tracks:    3,
			mid1:      [2]float64{4, 4},
			mid2:      [2]float64{26, 4},
		},
		{
			name:      "s-curve split",
			from:      Transform{Position: vec(0, 0), Heading: 0},
			to:        Transform{Position: vec(20, 5), Heading: 0},
			params:    DefaultParams(),
			junctions: 10,
			tracks:    9,
			mid1:      [2]float64{1.0198285881, 0.1321905876},
			mid2:      [2]float64{18.9801714119, 4.8678094124},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.params)
			a := n.AddJunction(tt.from.Position)
			b := n.AddJunction(tt.to.Position)
			n.junctions[a].setDirectionIfAbsent(unit(tt.from.Heading))
			n.junctions[b].setDirectionIfAbsent(unit(tt.to.Heading))

			_, err := n.ConnectTrack(a, b)
			require.NoError(t, err)
			require.NoError(t, n.Validate())
			assert.Equal(t, tt.junctions, n.NumJunctions())
			assert.Equal(t, tt.tracks, n.NumTracks())

			// the two bend junctions are added right after the endpoints
			m1 := n.Junction(2).Position
			m2 := n.Junction(3).Position
			assert.InDelta(t, tt.mid1[0], m1.X, 1e-6)
			assert.InDelta(t, tt.mid1[1], m1.Y, 1e-6)
			assert.InDelta(t, tt.mid2[0], m2.X, 1e-6)
			assert.InDelta(t, tt.mid2[1], m2.Y, 1e-6)

			// original directions are untouched
			assertDirection(t, n, a, tt.from.Heading)
			assertDirection(t, n, b, tt.to.Heading)
		})
	}
}

func TestConnectTrack_NoFeasibleBend(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(1, 0))
	n.junctions[a].setDirectionIfAbsent(vec(0, 1))
	n.junctions[b].setDirectionIfAbsent(vec(0, 1))

	_, err := n.ConnectTrack(a, b)
	assert.ErrorIs(t, err, ErrNoFeasibleBend)
	assert.Equal(t, 2, n.NumJunctions())
	assert.Equal(t, 0, n.NumTracks())
}

func TestCreateLine_FirstDirectionWins(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(10, 0))
	c := n.AddJunction(vec(10, 10))

	n.CreateLine(a, b)
	n.CreateLine(b, c)

	assertDirection(t, n, a, 0)
	assertDirection(t, n, b, 0)
	assertDirection(t, n, c, math.Pi/2)
}

func TestAddTrack_Subdivides(t *testing.T) {
	tests := []struct {
		name     string
		shape    Shape
		segments int
	}{
		{name: "short line", shape: Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 2}, segments: 1},
		{name: "exact multiple", shape: Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 9}, segments: 3},
		{name: "line", shape: Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 10}, segments: 4},
		{name: "arc", shape: FromSourceDirectionDest(vec(0, 0), vec(1, 0), vec(0, 10)), segments: 6},
		{name: "empty", shape: Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 0}, segments: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(DefaultParams())
			length := tt.shape.Length()
			a := n.AddJunction(tt.shape.TransformAt(0).Position)
			b := n.AddJunction(tt.shape.TransformAt(length).Position)

			first := n.AddTrack(a, b, tt.shape)
			assert.Equal(t, TrackID(0), first)
			require.Equal(t, tt.segments, n.NumTracks())
			assert.Equal(t, 2+tt.segments-1, n.NumJunctions())
			require.NoError(t, n.Validate())

			// segments form a chain from a to b
			at := a
			for i := 0; i < tt.segments; i++ {
				tr := n.Track(TrackID(i))
				assert.Equal(t, at, tr.Source)
				assert.InDelta(t, length/float64(tt.segments), tr.Length, delta)
				at = tr.Destination
			}
			assert.Equal(t, b, at)

			// cut junctions are directed along the shape
			for id := JunctionID(2); int(id) < n.NumJunctions(); id++ {
				_, ok := n.Junction(id).Direction()
				assert.True(t, ok, "junction %d", id)
			}
		})
	}
}

func TestAddTrackSegment_Registers(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(1, 0))
	id := n.AddTrackSegment(a, b, Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 1})

	ja, jb := n.Junction(a), n.Junction(b)
	if diff := cmp.Diff([]TrackID{id}, ja.Exits.Slice()); diff != "" {
		t.Errorf("exits mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]TrackID{id}, jb.Entrances.Slice()); diff != "" {
		t.Errorf("entrances mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, ja.Entrances.Len())
	assert.Equal(t, 0, jb.Exits.Len())
}

func TestAddTrackSegment_CapacityOverflow(t *testing.T) {
	line := func(n *Network, from, to JunctionID) {
		p, q := n.Junction(from).Position, n.Junction(to).Position
		n.AddTrackSegment(from, to, Line{Origin: p, Direction: q.Sub(p).Normalized(), Span: q.Sub(p).Len()})
	}

	t.Run("exits", func(t *testing.T) {
		n := New(unsplit)
		hub := n.AddJunction(vec(0, 0))
		for i := 0; i < bounded.Capacity; i++ {
			line(n, hub, n.AddJunction(vec(1, float64(i))))
		}
		extra := n.AddJunction(vec(1, 5))
		assert.PanicsWithValue(t, "track 2: junction 0 exits: bounded list is full", func() {
			line(n, hub, extra)
		})
	})
	t.Run("entrances", func(t *testing.T) {
		n := New(unsplit)
		hub := n.AddJunction(vec(0, 0))
		for i := 0; i < bounded.Capacity; i++ {
			line(n, n.AddJunction(vec(1, float64(i))), hub)
		}
		extra := n.AddJunction(vec(1, 5))
		assert.Panics(t, func() { line(n, extra, hub) })
	})
}

func TestValidate_DetectsMismatch(t *testing.T) {
	n := New(unsplit)
	a := n.AddJunction(vec(0, 0))
	b := n.AddJunction(vec(10, 0))
	n.AddTrackSegment(a, b, Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 9})
	assert.ErrorContains(t, n.Validate(), "track 0: ends at")

	n = New(unsplit)
	a = n.AddJunction(vec(0, 0))
	b = n.AddJunction(vec(10, 0))
	n.junctions[a].setDirectionIfAbsent(vec(0, 1))
	n.AddTrackSegment(a, b, Line{Origin: vec(0, 0), Direction: vec(1, 0), Span: 10})
	assert.ErrorContains(t, n.Validate(), "track 0: leaves along")
}

func TestAddStation(t *testing.T) {
	n := New(DefaultParams())
	st := n.AddStation(vec(0, 0), 6, math.Pi/2)

	assert.Equal(t, 1, n.NumStations())
	assert.Equal(t, JunctionID(0), n.StationStart(st))
	assert.Equal(t, JunctionID(1), n.StationEnd(st))
	end := n.Junction(n.StationEnd(st)).Position
	assert.Less(t, end.DistanceTo(vec(0, 6)), delta)
	assert.Equal(t, 2, n.NumTracks())
	assert.Equal(t, TrackID(0), n.Station(st).Track)
	assertDirection(t, n, n.StationStart(st), math.Pi/2)
	assertDirection(t, n, n.StationEnd(st), math.Pi/2)

	// tracks leaving the platform continue its direction
	c := n.AddJunction(vec(5, 12))
	_, err := n.ConnectTrack(n.StationEnd(st), c)
	require.NoError(t, err)
	require.NoError(t, n.Validate())
	assert.Equal(t, 5, n.NumTracks())
}
