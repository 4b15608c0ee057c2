// Package render draws annotate primitives with OpenCV.
package render

import (
	"ZoneCountServer/annotate"
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	fontFace     = gocv.FontHersheySimplex
	labelPadding = 4
	jpegQuality  = 85
)

var labelBackground = color.RGBA{A: 200}

var ErrEmptyFrame = errors.New("empty frame")

// toBGR swaps channels; OpenCV mats are BGR while primitives carry RGB.
func toBGR(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}

// Draw paints prims onto img in slice order, so later primitives overlay
// earlier ones.
func Draw(img *gocv.Mat, prims []annotate.Primitive) {
	for _, p := range prims {
		if len(p.Points) == 0 {
			continue
		}
		switch p.Kind {
		case annotate.KindPolygon:
			drawPolygon(img, p)
		case annotate.KindMarker:
			gocv.Circle(img, p.Points[0], p.Radius, toBGR(p.Color), -1)
		case annotate.KindLabel:
			drawLabel(img, p)
		}
	}
}

func drawPolygon(img *gocv.Mat, p annotate.Primitive) {
	if len(p.Points) < 2 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{p.Points})
	defer pv.Close()
	thickness := p.Thickness
	if thickness <= 0 {
		thickness = 1
	}
	gocv.Polylines(img, pv, p.Closed, toBGR(p.Color), thickness)
}

func drawLabel(img *gocv.Mat, p annotate.Primitive) {
	scale := p.Scale
	if scale <= 0 {
		scale = 0.6
	}
	thickness := p.Thickness
	if thickness <= 0 {
		thickness = 1
	}
	org := p.Points[0]
	size := gocv.GetTextSize(p.Text, fontFace, scale, thickness)
	bg := image.Rect(
		org.X-labelPadding,
		org.Y-size.Y-labelPadding,
		org.X+size.X+labelPadding,
		org.Y+labelPadding,
	)
	gocv.Rectangle(img, bg, labelBackground, -1)
	gocv.PutText(img, p.Text, org, fontFace, scale, toBGR(p.Color), thickness)
}

// Blank returns a black BGR canvas for when no video frame is available.
func Blank(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
}

// Resize scales img in place to width x height when it differs.
func Resize(img *gocv.Mat, width, height int) {
	if img.Cols() == width && img.Rows() == height {
		return
	}
	gocv.Resize(*img, img, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
}

func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	if img.Empty() {
		return nil, ErrEmptyFrame
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func DecodeJPEG(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return mat, fmt.Errorf("decode jpeg: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), ErrEmptyFrame
	}
	return mat, nil
}
