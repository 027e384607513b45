package publisher

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"railnet/internal/track"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	nc          conn
	close       func()
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
	logger      *zap.Logger
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("railnet-simulator"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	p := newPublisher(nc, prefix, logSubjects, m, logger)
	p.close = func() {
		_ = nc.Drain()
		nc.Close()
	}
	return p, nil
}

func newPublisher(nc conn, prefix string, logSubjects bool, m PublisherMetrics, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{
		nc:          nc,
		prefix:      subjectToken(prefix),
		logSubjects: logSubjects,
		metrics:     m,
		logger:      logger,
	}
}

func (p *NATSPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}

// TrainMessage is the position report published for every train each frame.
type TrainMessage struct {
	TrainID   int       `json:"trainId"`
	TrackID   int       `json:"trackId"`
	Timestamp time.Time `json:"timestamp"`
	Distance  float64   `json:"distance"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Heading   float64   `json:"heading"`
}

func NewTrainMessage(s track.TrainState, at time.Time) TrainMessage {
	return TrainMessage{
		TrainID:   int(s.ID),
		TrackID:   int(s.Track),
		Timestamp: at,
		Distance:  s.Distance,
		X:         s.Position.X,
		Y:         s.Position.Y,
		Heading:   s.Heading,
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackMessage describes one track segment. Line fields are set for lines,
// arc fields for arcs.
type TrackMessage struct {
	ID          int     `json:"id"`
	Kind        string  `json:"kind"`
	Source      Point   `json:"source"`
	Destination Point   `json:"destination"`
	Length      float64 `json:"length"`

	Direction *Point `json:"direction,omitempty"`

	Center     *Point  `json:"center,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	StartAngle float64 `json:"startAngle,omitempty"`
	AngleDiff  float64 `json:"angleDiff,omitempty"`
}

func NewTrackMessage(info track.TrackInfo) TrackMessage {
	msg := TrackMessage{
		ID:          int(info.ID),
		Source:      Point{X: info.Source.X, Y: info.Source.Y},
		Destination: Point{X: info.Destination.X, Y: info.Destination.Y},
		Length:      info.Shape.Length(),
	}
	switch s := info.Shape.(type) {
	case track.Line:
		msg.Kind = "line"
		msg.Direction = &Point{X: s.Direction.X, Y: s.Direction.Y}
	case track.Arc:
		msg.Kind = "arc"
		msg.Center = &Point{X: s.Center.X, Y: s.Center.Y}
		msg.Radius = s.Radius
		msg.StartAngle = s.StartAngle
		msg.AngleDiff = s.AngleDiff
	}
	return msg
}

// PublishTrains publishes one TrainMessage per train on <prefix>.trains.<id>.
// It keeps going after a failed publish and returns the first error.
func (p *NATSPublisher) PublishTrains(trains iter.Seq[track.TrainState], at time.Time) error {
	var first error
	for s := range trains {
		subject := p.trainSubject(s.ID)
		if err := p.publishJSON(subject, NewTrainMessage(s, at)); err != nil && first == nil {
			first = fmt.Errorf("publish train %d: %w", s.ID, err)
		}
	}
	return first
}

// PublishNetwork publishes the whole network geometry as a single array on
// <prefix>.tracks.
func (p *NATSPublisher) PublishNetwork(curves iter.Seq[track.TrackInfo]) error {
	var msgs []TrackMessage
	for info := range curves {
		msgs = append(msgs, NewTrackMessage(info))
	}
	if err := p.publishJSON(p.prefix+".tracks", msgs); err != nil {
		return fmt.Errorf("publish network: %w", err)
	}
	return nil
}

func (p *NATSPublisher) trainSubject(id track.TrainID) string {
	return p.prefix + ".trains." + strconv.Itoa(int(id))
}

func (p *NATSPublisher) publishJSON(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		p.logger.Debug("nats publish", zap.String("subject", subject), zap.Int("bytes", len(b)))
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
