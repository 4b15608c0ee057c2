package pipeline

import (
	"ZoneCountServer/logger"
	"ZoneCountServer/render"
	"errors"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Sink consumes annotated frames. Show returns false to stop the pipeline.
type Sink interface {
	Show(img gocv.Mat) bool
	Close() error
}

type WindowSink struct {
	win *gocv.Window
}

// NewWindowSink opens a desktop window. Pressing q in it stops the pipeline.
func NewWindowSink(name string) *WindowSink {
	return &WindowSink{win: gocv.NewWindow(name)}
}

func (s *WindowSink) Show(img gocv.Mat) bool {
	s.win.IMShow(img)
	key := s.win.WaitKey(1)
	return key != 'q' && key != 'Q'
}

func (s *WindowSink) Close() error {
	return s.win.Close()
}

// BufferSink encodes each frame into a FrameBuffer.
type BufferSink struct {
	Buf *FrameBuffer
}

func (s BufferSink) Show(img gocv.Mat) bool {
	data, err := render.EncodeJPEG(img)
	if err != nil {
		logger.Log().Warn("drop frame", zap.Error(err))
		return true
	}
	s.Buf.Store(data)
	return true
}

func (s BufferSink) Close() error { return nil }

// MultiSink shows every frame on all sinks and stops when any of them asks to.
type MultiSink []Sink

func (m MultiSink) Show(img gocv.Mat) bool {
	keep := true
	for _, s := range m {
		if !s.Show(img) {
			keep = false
		}
	}
	return keep
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
