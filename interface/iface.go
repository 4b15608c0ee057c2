package iface

import (
	"context"
	"image"
	"math"
)

// Detection is one detector hit in frame pixel space.
type Detection struct {
	Name       string
	Confidence float32
	Box        image.Rectangle
}

// Percent is the confidence as a whole percentage, rounded up.
func (d Detection) Percent() int {
	return int(math.Ceil(float64(d.Confidence) * 100))
}

// Track is a detection with a tracker-assigned identity that is stable across
// frames.
type Track struct {
	ID  int
	Box image.Rectangle
}

// Detector finds objects in one JPEG-encoded frame.
type Detector interface {
	Detect(ctx context.Context, jpeg []byte) ([]Detection, error)
}

type Tracker interface {
	Update(dets []Detection) []Track
}

type DetectorConfig struct {
	URL           string
	Classes       []string
	MinConfidence int
}

type TrackerConfig struct {
	MaxAge       int
	MinHits      int
	IOUThreshold float64
}
