package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/quasilyte/gmath"
	"go.uber.org/zap"
)

// ErrNoFeasibleBend is returned when two junctions with fixed directions
// cannot be joined by an arc-line-arc bend that keeps moving forward.
var ErrNoFeasibleBend = errors.New("no feasible bend")

// ConnectTrack joins source to destination with a track whose ends are
// tangent to whatever directions the junctions already have. Junctions
// without a direction take theirs from the new track.
func (n *Network) ConnectTrack(source, destination JunctionID) (TrackID, error) {
	from := n.junctions[source]
	to := n.junctions[destination]
	fromDir, fromOK := from.Direction()
	toDir, toOK := to.Direction()

	switch {
	case !fromOK && !toOK:
		return n.CreateLine(source, destination), nil

	case fromOK && !toOK:
		shape := FromSourceDirectionDest(from.Position, fromDir, to.Position)
		end := shape.TransformAt(shape.Length())
		n.junctions[destination].setDirectionIfAbsent(unit(end.Heading))
		return n.AddTrack(source, destination, shape), nil

	case !fromOK && toOK:
		// Solve backwards from the destination, then flip the result.
		shape := FromSourceDirectionDest(to.Position, toDir.Neg(), from.Position).Reverse()
		n.junctions[source].setDirectionIfAbsent(unit(shape.TransformAt(0).Heading))
		return n.AddTrack(source, destination, shape), nil

	default:
		return n.insertBend(source, destination, fromDir, toDir)
	}
}

// insertBend joins two directed junctions with an arc, a straight line and a
// second arc. The arcs lie on circles of MaxBendRadius to either side of each
// junction; the first side combination whose legs all progress towards the
// destination is used.
func (n *Network) insertBend(source, destination JunctionID, fromDir, toDir gmath.Vec) (TrackID, error) {
	from := n.junctions[source].Position
	to := n.junctions[destination].Position
	mid1, mid2, ok := bendMidpoints(from, fromDir, to, toDir, n.params.MaxBendRadius)
	if !ok {
		return 0, fmt.Errorf("connect junction %d to %d: %w", source, destination, ErrNoFeasibleBend)
	}
	n.logger.Debug("inserting bend",
		zap.Int("source", int(source)),
		zap.Int("destination", int(destination)),
		zap.Any("mid1", mid1),
		zap.Any("mid2", mid2),
	)

	j1 := n.AddJunction(mid1)
	j2 := n.AddJunction(mid2)

	if _, err := n.ConnectTrack(source, j1); err != nil {
		return 0, err
	}
	n.assertConsistent("after first bend")
	if _, err := n.ConnectTrack(j2, destination); err != nil {
		return 0, err
	}
	n.assertConsistent("after second bend")

	return n.CreateLine(j1, j2), nil
}

// bendMidpoints finds the tangent points of the straight middle leg of a bend.
// For each side combination the bend circles are centred radius away from the
// endpoints along their left normal (s = +1) or right normal (s = -1). The
// middle leg leaves circle 1 and enters circle 2 along a common tangent u:
// the outer tangent when both circles turn the same way, the inner one
// otherwise.
func bendMidpoints(from, fromDir, to, toDir gmath.Vec, radius float64) (mid1, mid2 gmath.Vec, ok bool) {
	progress := to.Sub(from)
	for _, s1 := range [2]float64{-1, 1} {
		for _, s2 := range [2]float64{-1, 1} {
			c1 := from.Add(leftNormal(fromDir).Mulf(s1 * radius))
			c2 := to.Add(leftNormal(toDir).Mulf(s2 * radius))

			between := c2.Sub(c1)
			d := between.Len()
			k := (s2 - s1) * radius
			if d*d <= k*k {
				// circles overlap, no tangent of this kind
				continue
			}
			along := math.Sqrt(d*d - k*k)
			u := unit(angleOf(between) - math.Atan2(k, along))

			m1 := c1.Sub(leftNormal(u).Mulf(radius * s1))
			m2 := c2.Sub(leftNormal(u).Mulf(radius * s2))

			if m1.Sub(from).Dot(progress) >= 0 &&
				m2.Sub(m1).Dot(progress) >= 0 &&
				to.Sub(m2).Dot(progress) >= 0 {
				return m1, m2, true
			}
		}
	}
	return gmath.Vec{}, gmath.Vec{}, false
}
