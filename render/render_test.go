package render

import (
	"ZoneCountServer/annotate"
	"ZoneCountServer/zone"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestToBGR(t *testing.T) {
	assert.Equal(t, annotate.Blue, toBGR(annotate.Red))
	assert.Equal(t, annotate.White, toBGR(annotate.White))
}

func TestDrawAndEncode(t *testing.T) {
	img := Blank(320, 240)
	defer img.Close()
	require.False(t, img.Empty())

	zones := zone.Collection{zone.MustNew(image.Pt(10, 10), image.Pt(100, 10), image.Pt(100, 100))}
	prims := annotate.Frame(zones, []image.Point{image.Pt(150, 150), image.Pt(200, 150)}, []int{3})
	prims = append(prims, annotate.Hint("click to add points"))
	Draw(&img, prims)

	// marker centre is filled red, stored as BGR
	px := img.GetVecbAt(150, 150)
	assert.Equal(t, uint8(0), px[0])
	assert.Equal(t, uint8(255), px[2])

	data, err := EncodeJPEG(img)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := DecodeJPEG(data)
	require.NoError(t, err)
	defer decoded.Close()
	assert.Equal(t, 320, decoded.Cols())
	assert.Equal(t, 240, decoded.Rows())
}

func TestResize(t *testing.T) {
	img := Blank(64, 48)
	defer img.Close()
	Resize(&img, 128, 72)
	assert.Equal(t, 128, img.Cols())
	assert.Equal(t, 72, img.Rows())
}

func TestEncodeEmpty(t *testing.T) {
	m := gocv.NewMat()
	defer m.Close()
	_, err := EncodeJPEG(m)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = DecodeJPEG([]byte("not a jpeg"))
	assert.Error(t, err)
}
