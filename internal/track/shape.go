package track

import (
	"fmt"
	"math"

	"github.com/quasilyte/gmath"
)

// collinearEpsilon is the lateral offset below which FromSourceDirectionDest
// gives up on an arc and returns a straight line.
const collinearEpsilon = 1e-3

// Transform is a point on a shape together with the heading of travel there.
type Transform struct {
	Position gmath.Vec
	// Heading in radians.
	Heading float64
}

// Shape is the curve a track follows, parametrised by arc length from its
// source. It is either a Line or an Arc.
type Shape interface {
	Length() float64
	// TransformAt evaluates the shape at distance d from its source. Values
	// outside [0, Length()] are extrapolated with the same formula.
	TransformAt(d float64) Transform
	// Subshape returns the part of the shape between from and to, re-based so
	// that it starts at distance 0.
	Subshape(from, to float64) Shape
	// Reverse returns the same curve traversed in the opposite direction.
	Reverse() Shape

	isShape()
}

// Line is a straight shape starting at Origin.
type Line struct {
	Origin gmath.Vec
	// Direction is a unit vector.
	Direction gmath.Vec
	Span      float64
}

// Arc is a circular arc around Center. AngleDiff is signed: positive values
// sweep counter-clockwise.
type Arc struct {
	StartAngle float64
	AngleDiff  float64
	Radius     float64
	Center     gmath.Vec
}

func (Line) isShape() {}
func (Arc) isShape()  {}

func (l Line) Length() float64 { return l.Span }

func (l Line) TransformAt(d float64) Transform {
	return Transform{
		Position: l.Origin.Add(l.Direction.Mulf(d)),
		Heading:  angleOf(l.Direction),
	}
}

func (l Line) Subshape(from, to float64) Shape {
	return Line{
		Origin:    l.Origin.Add(l.Direction.Mulf(from)),
		Direction: l.Direction,
		Span:      to - from,
	}
}

func (l Line) Reverse() Shape {
	return Line{
		Origin:    l.Origin.Add(l.Direction.Mulf(l.Span)),
		Direction: l.Direction.Neg(),
		Span:      l.Span,
	}
}

func (a Arc) Length() float64 { return math.Abs(a.AngleDiff * a.Radius) }

func (a Arc) TransformAt(d float64) Transform {
	sign := signum(a.AngleDiff)
	angle := a.StartAngle + sign*d/a.Radius
	return Transform{
		Position: a.Center.Add(unit(angle).Mulf(a.Radius)),
		Heading:  angle + math.Pi/2*sign,
	}
}

func (a Arc) Subshape(from, to float64) Shape {
	sign := signum(a.AngleDiff)
	return Arc{
		StartAngle: a.StartAngle + from/a.Radius*sign,
		AngleDiff:  (to - from) / a.Radius * sign,
		Radius:     a.Radius,
		Center:     a.Center,
	}
}

func (a Arc) Reverse() Shape {
	return Arc{
		StartAngle: a.StartAngle + a.AngleDiff,
		AngleDiff:  -a.AngleDiff,
		Radius:     a.Radius,
		Center:     a.Center,
	}
}

// FromSourceDirectionDest returns the circular arc that leaves source heading
// along direction and passes through destination. When destination lies on
// the line through source along direction, a Line is returned instead.
func FromSourceDirectionDest(source, direction, destination gmath.Vec) Shape {
	normal := leftNormal(direction)
	offset := destination.Sub(source)
	y := offset.Dot(normal)
	x := offset.Dot(direction)

	if math.Abs(y) < collinearEpsilon {
		return Line{Origin: source, Direction: direction, Span: offset.Len()}
	}

	signedRadius := (x*x + y*y) / (2 * y)
	center := source.Add(normal.Mulf(signedRadius))

	initial := angleOf(source.Sub(center))
	final := angleOf(destination.Sub(center))

	delta := wrapAngle(final - initial)
	if signedRadius < 0 {
		delta -= 2 * math.Pi
	}

	arc := Arc{
		StartAngle: initial,
		AngleDiff:  delta,
		Radius:     math.Abs(signedRadius),
		Center:     center,
	}
	if debugChecks {
		if err := checkArc(arc, source, direction, destination); err != nil {
			panic(err)
		}
	}
	return arc
}

// checkArc verifies that arc starts at source heading along direction and ends
// at destination.
func checkArc(arc Shape, source, direction, destination gmath.Vec) error {
	length := arc.Length()
	start := arc.TransformAt(0)
	if d := start.Position.DistanceTo(source); d >= checkTolerance {
		return fmt.Errorf("arc start %v is %.4f away from source %v", start.Position, d, source)
	}
	if ahead := arc.TransformAt(length / 6).Position.Sub(source).Dot(direction); ahead <= 0 {
		return fmt.Errorf("arc from %v does not move along %v (projection %.4f)", source, direction, ahead)
	}
	if end := arc.TransformAt(length).Position; end.DistanceTo(destination) >= checkTolerance {
		return fmt.Errorf("arc end %v does not reach destination %v", end, destination)
	}
	if h := unit(start.Heading); h.DistanceTo(direction) >= checkTolerance {
		return fmt.Errorf("arc start heading %.4f does not match direction %v", start.Heading, direction)
	}
	return nil
}

func leftNormal(v gmath.Vec) gmath.Vec { return gmath.Vec{X: -v.Y, Y: v.X} }

func unit(angle float64) gmath.Vec { return gmath.RadToVec(gmath.Rad(angle)) }

func angleOf(v gmath.Vec) float64 { return float64(v.Angle()) }

// signum returns ±1 following the sign bit, so +0 maps to +1.
func signum(x float64) float64 { return math.Copysign(1, x) }

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float64) float64 {
	r := math.Mod(a, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}
