// Package authoring builds zones from pointer events.
package authoring

import (
	"ZoneCountServer/zone"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
)

var (
	ErrInsufficientPoints      = fmt.Errorf("close zone: %w", zone.ErrInsufficientPoints)
	ErrSelfIntersectingPolygon = fmt.Errorf("close zone: %w", zone.ErrSelfIntersecting)
)

type State int

const (
	Idle State = iota
	Building
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Saver persists a finished collection. store.Save satisfies it.
type Saver func(zones zone.Collection, dest string) error

type Option func(*Session)

// WithSelfIntersecting controls whether bowtie-like polygons may be closed.
func WithSelfIntersecting(allow bool) Option {
	return func(s *Session) {
		s.allowSelfIntersecting = allow
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is one zone editing session. It is not safe for concurrent use;
// callers feed it one event at a time.
type Session struct {
	current               []image.Point
	zones                 zone.Collection
	allowSelfIntersecting bool
	log                   *zap.Logger
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		zones: zone.Collection{},
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddPoint appends p to the work-in-progress polygon.
func (s *Session) AddPoint(p image.Point) {
	s.current = append(s.current, p)
	s.log.Debug("point added", zap.Int("x", p.X), zap.Int("y", p.Y), zap.Int("points", len(s.current)))
}

// CloseZone promotes the in-progress points to a finalized zone and returns
// its index. The in-progress polygon is discarded whether or not the close
// succeeds.
func (s *Session) CloseZone() (int, error) {
	pts := s.current
	s.current = nil

	z, err := zone.New(pts)
	if err != nil {
		s.log.Warn("zone rejected", zap.Int("points", len(pts)), zap.Error(err))
		if errors.Is(err, zone.ErrInsufficientPoints) {
			return -1, ErrInsufficientPoints
		}
		return -1, err
	}
	if !s.allowSelfIntersecting && z.SelfIntersects() {
		s.log.Warn("zone rejected", zap.Int("points", len(pts)), zap.Error(ErrSelfIntersectingPolygon))
		return -1, ErrSelfIntersectingPolygon
	}
	s.zones = append(s.zones, z)
	idx := len(s.zones) - 1
	s.log.Info("zone closed", zap.Int("zone", idx), zap.Int("points", z.Len()))
	return idx, nil
}

// Save hands the full collection to save. An empty collection is valid.
func (s *Session) Save(save Saver, dest string) error {
	if err := save(s.zones.Clone(), dest); err != nil {
		return fmt.Errorf("save zones to %s: %w", dest, err)
	}
	s.log.Info("zones saved", zap.String("path", dest), zap.Int("zones", len(s.zones)))
	return nil
}

func (s *Session) CurrentZones() zone.Collection {
	return s.zones.Clone()
}

func (s *Session) InProgressPoints() []image.Point {
	out := make([]image.Point, len(s.current))
	copy(out, s.current)
	return out
}

func (s *Session) State() State {
	if len(s.current) == 0 {
		return Idle
	}
	return Building
}

// Reset drops the in-progress polygon and every finalized zone.
func (s *Session) Reset() {
	s.current = nil
	s.zones = zone.Collection{}
	s.log.Info("session reset")
}

// Preload seeds the session with zones from an existing file so editing can
// continue where a previous session stopped.
func (s *Session) Preload(zones zone.Collection) {
	s.zones = append(s.zones, zones...)
}
