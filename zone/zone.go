package zone

import (
	"errors"
	"image"
)

var (
	ErrInsufficientPoints = errors.New("a zone needs at least 3 points")
	ErrSelfIntersecting   = errors.New("zone edges intersect each other")
)

// MinPoints is the smallest vertex count a closed zone can have.
const MinPoints = 3

// Zone is a closed polygon in frame pixel space. The vertex slice is never
// exposed, so a Zone cannot change after construction.
type Zone struct {
	pts []image.Point
}

// New copies points into a new Zone.
func New(points []image.Point) (Zone, error) {
	if len(points) < MinPoints {
		return Zone{}, ErrInsufficientPoints
	}
	pts := make([]image.Point, len(points))
	copy(pts, points)
	return Zone{pts: pts}, nil
}

// MustNew is New for fixed, known-good literals.
func MustNew(points ...image.Point) Zone {
	z, err := New(points)
	if err != nil {
		panic(err)
	}
	return z
}

func (z Zone) Len() int {
	return len(z.pts)
}

// Points returns a copy of the vertices in authoring order.
func (z Zone) Points() []image.Point {
	out := make([]image.Point, len(z.pts))
	copy(out, z.pts)
	return out
}

func (z Zone) Equal(o Zone) bool {
	if len(z.pts) != len(o.pts) {
		return false
	}
	for i := range z.pts {
		if z.pts[i] != o.pts[i] {
			return false
		}
	}
	return true
}

func (z Zone) edge(i int) (image.Point, image.Point) {
	return z.pts[i], z.pts[(i+1)%len(z.pts)]
}

// Contains reports whether p is inside the polygon or on its boundary.
// All arithmetic is done on int64 so edge hits are exact.
func (z Zone) Contains(p image.Point) bool {
	n := len(z.pts)
	if n < MinPoints {
		return false
	}
	inside := false
	for i := 0; i < n; i++ {
		a, b := z.edge(i)
		if onSegment(a, b, p) {
			return true
		}
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		// p.X < crossing x, rearranged to avoid the division.
		dy := int64(b.Y - a.Y)
		lhs := int64(p.X-a.X) * dy
		rhs := int64(p.Y-a.Y) * int64(b.X-a.X)
		if dy > 0 && lhs < rhs || dy < 0 && lhs > rhs {
			inside = !inside
		}
	}
	return inside
}

// Area2 is twice the signed shoelace area. Positive for counter-clockwise
// vertices in a y-up system, which is clockwise on screen.
func (z Zone) Area2() int64 {
	var sum int64
	for i := range z.pts {
		a, b := z.edge(i)
		sum += cross(a, b)
	}
	return sum
}

// Centroid is the area-weighted centroid from the polygon moments. A polygon
// with zero area falls back to the mean of its vertices.
func (z Zone) Centroid() (float64, float64) {
	n := len(z.pts)
	if n == 0 {
		return 0, 0
	}
	a2 := z.Area2()
	if a2 == 0 {
		var sx, sy int64
		for _, p := range z.pts {
			sx += int64(p.X)
			sy += int64(p.Y)
		}
		return float64(sx) / float64(n), float64(sy) / float64(n)
	}
	var cx, cy int64
	for i := range z.pts {
		a, b := z.edge(i)
		c := cross(a, b)
		cx += int64(a.X+b.X) * c
		cy += int64(a.Y+b.Y) * c
	}
	d := 3 * float64(a2)
	return float64(cx) / d, float64(cy) / d
}

// SelfIntersects reports whether any two non-adjacent edges touch, or two
// adjacent edges fold back over each other.
func (z Zone) SelfIntersects() bool {
	n := len(z.pts)
	if n < MinPoints {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := z.edge(i)
		if a == b {
			return true
		}
		for j := i + 1; j < n; j++ {
			c, d := z.edge(j)
			switch {
			case j == i+1:
				// shared vertex b == c
				if onSegment(a, b, d) || onSegment(c, d, a) {
					return true
				}
			case i == 0 && j == n-1:
				// shared vertex a == d
				if onSegment(a, b, c) || onSegment(c, d, b) {
					return true
				}
			default:
				if segmentsTouch(a, b, c, d) {
					return true
				}
			}
		}
	}
	return false
}

func cross(a, b image.Point) int64 {
	return int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
}

func orient(a, b, c image.Point) int64 {
	return int64(b.X-a.X)*int64(c.Y-a.Y) - int64(b.Y-a.Y)*int64(c.X-a.X)
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func onSegment(a, b, p image.Point) bool {
	if orient(a, b, p) != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

func segmentsTouch(a, b, c, d image.Point) bool {
	o1 := sign(orient(a, b, c))
	o2 := sign(orient(a, b, d))
	o3 := sign(orient(c, d, a))
	o4 := sign(orient(c, d, b))
	if o1 != o2 && o3 != o4 {
		return true
	}
	return onSegment(a, b, c) || onSegment(a, b, d) || onSegment(c, d, a) || onSegment(c, d, b)
}
