package track

import "github.com/quasilyte/gmath"

// Station is a straight docking track with its own pair of junctions.
type Station struct {
	ID       StationID
	Position gmath.Vec
	Length   float64
	// Angle of the platform in radians.
	Angle float64
	// Track is the first segment of the platform.
	Track TrackID
	Start JunctionID
	End   JunctionID
}

// AddStation adds a straight track of the given length starting at position
// and heading along angle. Both end junctions take the platform direction, so
// tracks connected to them later join tangentially.
func (n *Network) AddStation(position gmath.Vec, length, angle float64) StationID {
	id := StationID(len(n.stations))
	direction := unit(angle)

	start := n.AddJunction(position)
	end := n.AddJunction(position.Add(direction.Mulf(length)))
	n.junctions[start].setDirectionIfAbsent(direction)
	n.junctions[end].setDirectionIfAbsent(direction)
	track := n.AddTrack(start, end, Line{Origin: position, Direction: direction, Span: length})

	n.stations = append(n.stations, Station{
		ID:       id,
		Position: position,
		Length:   length,
		Angle:    angle,
		Track:    track,
		Start:    start,
		End:      end,
	})
	return id
}

func (n *Network) Station(id StationID) Station { return n.stations[id] }

func (n *Network) NumStations() int { return len(n.stations) }

// StationStart returns the junction where the station's platform begins.
func (n *Network) StationStart(id StationID) JunctionID { return n.stations[id].Start }

// StationEnd returns the junction where the station's platform ends.
func (n *Network) StationEnd(id StationID) JunctionID { return n.stations[id].End }
