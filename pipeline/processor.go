package pipeline

import (
	"ZoneCountServer/counter"
	iface "ZoneCountServer/interface"
)

// Processor turns tracker output into counter observations.
type Processor struct {
	counter *counter.Counter
	offset  int
}

// NewProcessor feeds c with the reference point of each track box, offset
// pixels above the box centre.
func NewProcessor(c *counter.Counter, offset int) *Processor {
	return &Processor{counter: c, offset: offset}
}

// Process updates the counter with one frame of tracks and returns the
// observations it used.
func (p *Processor) Process(tracks []iface.Track) []counter.Observation {
	obs := make([]counter.Observation, 0, len(tracks))
	for _, t := range tracks {
		obs = append(obs, counter.Observation{
			TrackID: t.ID,
			Point:   counter.ReferencePoint(t.Box, p.offset),
		})
	}
	p.counter.Update(obs)
	return obs
}

func (p *Processor) Counter() *counter.Counter {
	return p.counter
}
