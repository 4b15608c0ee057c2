package zone

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size int) Zone {
	return MustNew(
		image.Pt(x, y),
		image.Pt(x+size, y),
		image.Pt(x+size, y+size),
		image.Pt(x, y+size),
	)
}

func TestNew(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		for _, pts := range [][]image.Point{
			nil,
			{image.Pt(1, 1)},
			{image.Pt(1, 1), image.Pt(2, 2)},
		} {
			_, err := New(pts)
			assert.ErrorIs(t, err, ErrInsufficientPoints)
		}
	})

	t.Run("copies input", func(t *testing.T) {
		pts := []image.Point{image.Pt(0, 0), image.Pt(4, 0), image.Pt(0, 4)}
		z, err := New(pts)
		require.NoError(t, err)
		pts[0] = image.Pt(99, 99)
		assert.Equal(t, image.Pt(0, 0), z.Points()[0])

		out := z.Points()
		out[1] = image.Pt(-1, -1)
		assert.Equal(t, image.Pt(4, 0), z.Points()[1])
		assert.Equal(t, 3, z.Len())
	})
}

func TestContains(t *testing.T) {
	sq := square(0, 0, 10)

	cases := []struct {
		name string
		p    image.Point
		want bool
	}{
		{"interior", image.Pt(5, 5), true},
		{"vertex", image.Pt(0, 0), true},
		{"opposite vertex", image.Pt(10, 10), true},
		{"bottom edge midpoint", image.Pt(5, 0), true},
		{"right edge midpoint", image.Pt(10, 5), true},
		{"top edge midpoint", image.Pt(5, 10), true},
		{"left edge midpoint", image.Pt(0, 5), true},
		{"right of square", image.Pt(11, 5), false},
		{"left of square", image.Pt(-1, 5), false},
		{"below square", image.Pt(5, 11), false},
		{"far away", image.Pt(50, 50), false},
		{"on edge line but beyond", image.Pt(15, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sq.Contains(tc.p))
		})
	}
}

func TestContainsConcave(t *testing.T) {
	// L shape with the top-right quarter cut out.
	l := MustNew(
		image.Pt(0, 0), image.Pt(10, 0), image.Pt(10, 5),
		image.Pt(5, 5), image.Pt(5, 10), image.Pt(0, 10),
	)
	assert.True(t, l.Contains(image.Pt(3, 7)))
	assert.True(t, l.Contains(image.Pt(8, 2)))
	assert.True(t, l.Contains(image.Pt(5, 7)), "inner vertical edge")
	assert.True(t, l.Contains(image.Pt(7, 5)), "inner horizontal edge")
	assert.True(t, l.Contains(image.Pt(5, 5)), "reflex vertex")
	assert.False(t, l.Contains(image.Pt(7, 7)), "notch")
}

func TestContainsDiagonalEdge(t *testing.T) {
	tri := MustNew(image.Pt(0, 0), image.Pt(10, 0), image.Pt(0, 10))
	assert.True(t, tri.Contains(image.Pt(5, 5)), "hypotenuse midpoint")
	assert.True(t, tri.Contains(image.Pt(2, 2)))
	assert.False(t, tri.Contains(image.Pt(6, 5)))
}

func TestCentroid(t *testing.T) {
	t.Run("square", func(t *testing.T) {
		x, y := square(0, 0, 10).Centroid()
		assert.InDelta(t, 5.0, x, 1e-9)
		assert.InDelta(t, 5.0, y, 1e-9)
	})

	t.Run("triangle", func(t *testing.T) {
		x, y := MustNew(image.Pt(0, 0), image.Pt(6, 0), image.Pt(0, 6)).Centroid()
		assert.InDelta(t, 2.0, x, 1e-9)
		assert.InDelta(t, 2.0, y, 1e-9)
	})

	t.Run("area weighted, not vertex mean", func(t *testing.T) {
		// extra vertex on the bottom edge pulls the vertex mean down to y=4
		z := MustNew(image.Pt(0, 0), image.Pt(5, 0), image.Pt(10, 0), image.Pt(10, 10), image.Pt(0, 10))
		x, y := z.Centroid()
		assert.InDelta(t, 5.0, x, 1e-9)
		assert.InDelta(t, 5.0, y, 1e-9)
	})

	t.Run("clockwise and counter-clockwise agree", func(t *testing.T) {
		cw := MustNew(image.Pt(0, 0), image.Pt(0, 6), image.Pt(6, 0))
		x, y := cw.Centroid()
		assert.Less(t, cw.Area2(), int64(0))
		assert.InDelta(t, 2.0, x, 1e-9)
		assert.InDelta(t, 2.0, y, 1e-9)
	})

	t.Run("zero area falls back to vertex mean", func(t *testing.T) {
		z := MustNew(image.Pt(0, 0), image.Pt(5, 0), image.Pt(10, 0))
		assert.Equal(t, int64(0), z.Area2())
		x, y := z.Centroid()
		assert.InDelta(t, 5.0, x, 1e-9)
		assert.InDelta(t, 0.0, y, 1e-9)
	})
}

func TestSelfIntersects(t *testing.T) {
	cases := []struct {
		name string
		pts  []image.Point
		want bool
	}{
		{"square", square(0, 0, 10).Points(), false},
		{"triangle", []image.Point{{0, 0}, {10, 0}, {0, 10}}, false},
		{"concave", []image.Point{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}, false},
		{"bowtie", []image.Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, true},
		{"collinear", []image.Point{{0, 0}, {5, 0}, {10, 0}}, true},
		{"repeated vertex", []image.Point{{0, 0}, {0, 0}, {10, 0}, {0, 10}}, true},
		{"spike folds back", []image.Point{{0, 0}, {10, 0}, {5, 0}, {5, 5}}, true},
		{"vertex touches far edge", []image.Point{{0, 0}, {10, 0}, {10, 10}, {5, 0}, {0, 10}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MustNew(tc.pts...).SelfIntersects())
		})
	}
}

func TestCollection(t *testing.T) {
	a := square(0, 0, 10)
	b := square(5, 5, 10)
	c := square(100, 100, 10)
	zones := Collection{a, b, c}

	t.Run("containing overlapping", func(t *testing.T) {
		assert.Equal(t, []int{0, 1}, zones.Containing(image.Pt(7, 7)))
		assert.Equal(t, []int{2}, zones.Containing(image.Pt(105, 105)))
		assert.Empty(t, zones.Containing(image.Pt(50, 50)))
	})

	t.Run("from points", func(t *testing.T) {
		got, err := FromPoints(zones.Points())
		require.NoError(t, err)
		assert.True(t, zones.Equal(got))

		_, err = FromPoints([][]image.Point{{{0, 0}, {1, 1}}})
		assert.ErrorIs(t, err, ErrInsufficientPoints)
	})

	t.Run("equal", func(t *testing.T) {
		assert.True(t, Collection{}.Equal(nil))
		assert.False(t, zones.Equal(Collection{a, b}))
		assert.False(t, zones.Equal(Collection{a, c, b}))
		assert.True(t, zones.Clone().Equal(zones))
	})
}
