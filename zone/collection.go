package zone

import "image"

// Collection is the ordered set of finalized zones. A zone's index in the
// collection is its identity for counting and labelling.
type Collection []Zone

// FromPoints builds a collection from raw vertex lists, e.g. a decoded zones file.
func FromPoints(polys [][]image.Point) (Collection, error) {
	out := make(Collection, 0, len(polys))
	for _, pts := range polys {
		z, err := New(pts)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}

// Points returns every zone's vertices, in order.
func (c Collection) Points() [][]image.Point {
	out := make([][]image.Point, len(c))
	for i, z := range c {
		out[i] = z.Points()
	}
	return out
}

func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

func (c Collection) Equal(o Collection) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if !c[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Containing returns the indexes of every zone that contains p.
func (c Collection) Containing(p image.Point) []int {
	var idx []int
	for i, z := range c {
		if z.Contains(p) {
			idx = append(idx, i)
		}
	}
	return idx
}
