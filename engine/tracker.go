package engine

import (
	iface "ZoneCountServer/interface"
	"image"
	"sort"
)

type track struct {
	id          int
	box         image.Rectangle
	hits        int
	streak      int
	sinceUpdate int
}

// IOUTracker links detections across frames by box overlap. Each frame the
// highest-IoU track/detection pairs above the threshold are matched greedily.
// A track is reported only in frames where it matched, and only once it has
// matched MinHits frames in a row (any track is reported during the first
// MinHits frames). Tracks unmatched for more than MaxAge frames are dropped.
type IOUTracker struct {
	cfg    iface.TrackerConfig
	tracks []*track
	nextID int
	frame  int
}

func NewIOUTracker(cfg iface.TrackerConfig) *IOUTracker {
	return &IOUTracker{cfg: cfg}
}

func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}

type pair struct {
	t, d int
	iou  float64
}

func (tr *IOUTracker) Update(dets []iface.Detection) []iface.Track {
	tr.frame++
	for _, t := range tr.tracks {
		if t.sinceUpdate > 0 {
			t.streak = 0
		}
		t.sinceUpdate++
	}

	var pairs []pair
	for ti, t := range tr.tracks {
		for di, d := range dets {
			if iou := IoU(t.box, d.Box); iou >= tr.cfg.IOUThreshold && iou > 0 {
				pairs = append(pairs, pair{ti, di, iou})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].iou > pairs[j].iou
	})
	usedT := make([]bool, len(tr.tracks))
	usedD := make([]bool, len(dets))
	for _, p := range pairs {
		if usedT[p.t] || usedD[p.d] {
			continue
		}
		usedT[p.t], usedD[p.d] = true, true
		t := tr.tracks[p.t]
		t.box = dets[p.d].Box
		t.hits++
		t.streak++
		t.sinceUpdate = 0
	}
	for di, d := range dets {
		if usedD[di] {
			continue
		}
		tr.nextID++
		tr.tracks = append(tr.tracks, &track{id: tr.nextID, box: d.Box})
	}

	var out []iface.Track
	alive := tr.tracks[:0]
	for _, t := range tr.tracks {
		if t.sinceUpdate == 0 && (t.streak >= tr.cfg.MinHits || tr.frame <= tr.cfg.MinHits) {
			out = append(out, iface.Track{ID: t.id, Box: t.box})
		}
		if t.sinceUpdate <= tr.cfg.MaxAge {
			alive = append(alive, t)
		}
	}
	tr.tracks = alive
	return out
}
