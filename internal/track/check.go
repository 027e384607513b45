package track

import "fmt"

// checkTolerance is the distance within which two points or unit headings are
// considered equal by the consistency checks.
const checkTolerance = 0.01

// Validate checks that every track's shape starts at its source junction,
// ends at its destination junction, and leaves and arrives along the
// directions those junctions have fixed.
func (n *Network) Validate() error {
	for i, j := range n.junctions {
		if int(j.ID) != i {
			return fmt.Errorf("junction at index %d has id %d", i, j.ID)
		}
	}
	for _, t := range n.tracks {
		src := n.junctions[t.Source]
		dst := n.junctions[t.Destination]
		start := t.Shape.TransformAt(0)
		end := t.Shape.TransformAt(t.Length)

		if d := start.Position.DistanceTo(src.Position); d >= checkTolerance {
			return fmt.Errorf("track %d: starts at %v, source junction %d is at %v", t.ID, start.Position, src.ID, src.Position)
		}
		if d := end.Position.DistanceTo(dst.Position); d >= checkTolerance {
			return fmt.Errorf("track %d: ends at %v, destination junction %d is at %v", t.ID, end.Position, dst.ID, dst.Position)
		}
		if dir, ok := src.Direction(); ok {
			if d := unit(start.Heading).DistanceTo(dir); d >= checkTolerance {
				return fmt.Errorf("track %d: leaves along %v, source junction %d points along %v", t.ID, unit(start.Heading), src.ID, dir)
			}
		}
		if dir, ok := dst.Direction(); ok {
			if d := unit(end.Heading).DistanceTo(dir); d >= checkTolerance {
				return fmt.Errorf("track %d: arrives along %v, destination junction %d points along %v", t.ID, unit(end.Heading), dst.ID, dir)
			}
		}
	}
	return nil
}

// assertConsistent panics if the network fails Validate. It does nothing
// unless built with the debug tag.
func (n *Network) assertConsistent(stage string) {
	if !debugChecks {
		return
	}
	if err := n.Validate(); err != nil {
		panic(fmt.Sprintf("%s: %v", stage, err))
	}
}
