// Package annotate turns zone and counter state into drawing primitives.
// Nothing here draws; render does that.
package annotate

import (
	"ZoneCountServer/counter"
	iface "ZoneCountServer/interface"
	"ZoneCountServer/zone"
	"fmt"
	"image"
	"image/color"
	"math"
)

type Kind int

const (
	KindPolygon Kind = iota
	KindMarker
	KindLabel
)

type Primitive struct {
	Kind Kind
	// Polygon vertices, or a single anchor point for markers and labels.
	Points    []image.Point
	Closed    bool
	Text      string
	Color     color.RGBA
	Thickness int
	Radius    int
	Scale     float64
}

var (
	Red    = color.RGBA{R: 255, A: 255}
	Green  = color.RGBA{G: 255, A: 255}
	Blue   = color.RGBA{B: 255, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, A: 255}
	Orange = color.RGBA{R: 255, G: 165, A: 255}
)

var legendPalette = []color.RGBA{Yellow, Orange, Red}

// ZoneColor cycles by index so neighbouring zones stay distinguishable.
func ZoneColor(i int) color.RGBA {
	g := 255 - (i%4)*80
	return color.RGBA{R: 255, G: uint8(g), A: 255}
}

// Frame returns outlines and labels for zones, the in-progress polyline with
// its point markers, in that order. counts may be nil, in which case labels
// carry only the zone number.
func Frame(zones zone.Collection, inProgress []image.Point, counts []int) []Primitive {
	prims := make([]Primitive, 0, 2*len(zones)+len(inProgress)+1)
	for i, z := range zones {
		prims = append(prims, Primitive{
			Kind:      KindPolygon,
			Points:    z.Points(),
			Closed:    true,
			Color:     ZoneColor(i),
			Thickness: 3,
		})
	}
	for i, z := range zones {
		text := fmt.Sprintf("Zone %d", i+1)
		if i < len(counts) {
			text = fmt.Sprintf("Zone %d: %d", i+1, counts[i])
		}
		prims = append(prims, Primitive{
			Kind:      KindLabel,
			Points:    []image.Point{centroid(z)},
			Text:      text,
			Color:     White,
			Thickness: 2,
			Scale:     0.8,
		})
	}
	if len(inProgress) > 1 {
		pts := make([]image.Point, len(inProgress))
		copy(pts, inProgress)
		prims = append(prims, Primitive{
			Kind:      KindPolygon,
			Points:    pts,
			Closed:    false,
			Color:     Green,
			Thickness: 2,
		})
	}
	for _, p := range inProgress {
		prims = append(prims, Primitive{
			Kind:   KindMarker,
			Points: []image.Point{p},
			Color:  Red,
			Radius: 5,
		})
	}
	return prims
}

// Tracks marks every observation's reference point.
func Tracks(obs []counter.Observation) []Primitive {
	prims := make([]Primitive, 0, len(obs))
	for _, o := range obs {
		prims = append(prims, Primitive{
			Kind:   KindMarker,
			Points: []image.Point{o.Point},
			Color:  White,
			Radius: 4,
		})
	}
	return prims
}

// Detections outlines every detection box and labels it "class NN%" just
// above its top-left corner.
func Detections(dets []iface.Detection) []Primitive {
	prims := make([]Primitive, 0, 2*len(dets))
	for _, d := range dets {
		b := d.Box
		prims = append(prims,
			Primitive{
				Kind:      KindPolygon,
				Points:    []image.Point{b.Min, image.Pt(b.Max.X, b.Min.Y), b.Max, image.Pt(b.Min.X, b.Max.Y)},
				Closed:    true,
				Color:     Green,
				Thickness: 2,
			},
			Primitive{
				Kind:      KindLabel,
				Points:    []image.Point{image.Pt(b.Min.X+8, b.Min.Y-12)},
				Text:      fmt.Sprintf("%s %d%%", d.Name, d.Percent()),
				Color:     White,
				Thickness: 2,
				Scale:     0.9,
			},
		)
	}
	return prims
}

// Legend lists "Zone N Vehicles = C" rows down the right quarter of a
// width x height frame, each with a coloured dot.
func Legend(counts []int, width, height int) []Primitive {
	textX := width * 3 / 4
	baseY := height * 8 / 100
	gap := height * 6 / 100
	prims := make([]Primitive, 0, 2*len(counts))
	for i, n := range counts {
		y := baseY + i*gap
		c := legendPalette[i%len(legendPalette)]
		prims = append(prims,
			Primitive{Kind: KindMarker, Points: []image.Point{image.Pt(textX-40, y)}, Color: c, Radius: 10},
			Primitive{
				Kind:      KindLabel,
				Points:    []image.Point{image.Pt(textX, y)},
				Text:      fmt.Sprintf("Zone %d Vehicles = %d", i+1, n),
				Color:     White,
				Thickness: 2,
				Scale:     0.9,
			},
		)
	}
	return prims
}

// Hint is a single instruction line in the top-left corner.
func Hint(text string) Primitive {
	return Primitive{
		Kind:      KindLabel,
		Points:    []image.Point{image.Pt(20, 40)},
		Text:      text,
		Color:     White,
		Thickness: 2,
		Scale:     0.7,
	}
}

func centroid(z zone.Zone) image.Point {
	x, y := z.Centroid()
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}
