// Package counter attributes tracked identities to zones.
//
// Counts are cumulative: an identity seen inside a zone once stays counted
// for the lifetime of the Counter, even after it leaves or the tracker loses
// it. If the tracker hands a dead identity to a new vehicle, that vehicle is
// not counted again.
package counter

import (
	"ZoneCountServer/zone"
	"errors"
	"fmt"
	"image"
	"sync"
)

var ErrIndexOutOfRange = errors.New("zone index out of range")

// Observation is one tracked entity's reference point in one frame.
type Observation struct {
	TrackID int
	Point   image.Point
}

// ReferencePoint is the point of a tracked box used for zone tests: the
// horizontal centre, offset upwards from the vertical centre.
func ReferencePoint(box image.Rectangle, offset int) image.Point {
	return image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2-offset)
}

type Option func(*Counter)

// WithEnterHook registers fn to run the first time trackID is counted in a
// zone. It runs with the counter's lock held and must not call back into it.
func WithEnterHook(fn func(zoneIdx, trackID int)) Option {
	return func(c *Counter) {
		c.onEnter = fn
	}
}

type Counter struct {
	mu      sync.RWMutex
	zones   zone.Collection
	seen    []map[int]struct{}
	frames  uint64
	onEnter func(zoneIdx, trackID int)
}

func New(zones zone.Collection, opts ...Option) *Counter {
	c := &Counter{
		zones: zones.Clone(),
		seen:  make([]map[int]struct{}, len(zones)),
	}
	for i := range c.seen {
		c.seen[i] = make(map[int]struct{})
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Update processes one frame of observations. Observations with a negative
// track id are skipped.
func (c *Counter) Update(obs []Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	for _, o := range obs {
		if o.TrackID < 0 {
			continue
		}
		for _, i := range c.zones.Containing(o.Point) {
			if _, ok := c.seen[i][o.TrackID]; ok {
				continue
			}
			c.seen[i][o.TrackID] = struct{}{}
			if c.onEnter != nil {
				c.onEnter(i, o.TrackID)
			}
		}
	}
}

// CountFor returns the number of distinct identities ever seen in zone idx.
func (c *Counter) CountFor(idx int) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx < 0 || idx >= len(c.seen) {
		return 0, fmt.Errorf("%w: %d (have %d zones)", ErrIndexOutOfRange, idx, len(c.seen))
	}
	return len(c.seen[idx]), nil
}

func (c *Counter) Counts() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.countsLocked()
}

func (c *Counter) countsLocked() []int {
	out := make([]int, len(c.seen))
	for i, s := range c.seen {
		out[i] = len(s)
	}
	return out
}

// Frames is the number of Update calls so far.
func (c *Counter) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

func (c *Counter) Zones() zone.Collection {
	return c.zones.Clone()
}

// Snapshot is a consistent view of the frame number and every zone count.
type Snapshot struct {
	Frames uint64 `json:"frames"`
	Counts []int  `json:"counts"`
}

func (c *Counter) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Frames: c.frames, Counts: c.countsLocked()}
}
