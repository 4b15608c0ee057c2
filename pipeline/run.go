// Package pipeline pulls frames from a video source through detection,
// tracking and zone counting, then hands annotated frames to a sink.
package pipeline

import (
	"ZoneCountServer/annotate"
	"ZoneCountServer/counter"
	iface "ZoneCountServer/interface"
	"ZoneCountServer/logger"
	"ZoneCountServer/render"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Source yields decoded frames. Read returns false at end of stream.
type Source interface {
	Read(img *gocv.Mat) bool
	Close() error
}

type VideoSource struct {
	vc   *gocv.VideoCapture
	loop bool
}

// OpenVideo opens a file, stream URL or numeric device id. With loop set the
// source rewinds to the first frame instead of ending.
func OpenVideo(source string, loop bool) (*VideoSource, error) {
	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open video %q: %w", source, err)
	}
	return &VideoSource{vc: vc, loop: loop}, nil
}

func (s *VideoSource) Read(img *gocv.Mat) bool {
	if s.vc.Read(img) && !img.Empty() {
		return true
	}
	if !s.loop {
		return false
	}
	s.vc.Set(gocv.VideoCapturePosFrames, 0)
	return s.vc.Read(img) && !img.Empty()
}

func (s *VideoSource) Close() error {
	return s.vc.Close()
}

// BlankSource yields black frames forever, for authoring without video.
type BlankSource struct {
	Width, Height int
}

func (s BlankSource) Read(img *gocv.Mat) bool {
	blank := render.Blank(s.Width, s.Height)
	defer blank.Close()
	blank.CopyTo(img)
	return true
}

func (s BlankSource) Close() error { return nil }

// Overlay builds the primitives drawn on a frame after it was counted. dets
// are the filtered detections of that frame.
type Overlay func(dets []iface.Detection, obs []counter.Observation) []annotate.Primitive

// CountingOverlay draws zones with their counts, the detection boxes, the
// track reference points and the legend.
func CountingOverlay(c *counter.Counter, width, height int) Overlay {
	zones := c.Zones()
	return func(dets []iface.Detection, obs []counter.Observation) []annotate.Primitive {
		counts := c.Counts()
		prims := annotate.Frame(zones, nil, counts)
		prims = append(prims, annotate.Detections(dets)...)
		prims = append(prims, annotate.Tracks(obs)...)
		return append(prims, annotate.Legend(counts, width, height)...)
	}
}

type Config struct {
	Width, Height int
	// Detector and Tracker may both be nil for a display-only pipeline.
	Detector  iface.Detector
	Tracker   iface.Tracker
	Processor *Processor
	Overlay   Overlay
	Sink      Sink
	// OnFrame runs after each processed frame.
	OnFrame func(obs []counter.Observation)
	// FrameInterval, when set, is the minimum time between frames.
	FrameInterval time.Duration
}

// Run blocks until the source ends, the sink asks to stop, or ctx is done.
// Only cancellation is reported as an error.
func Run(ctx context.Context, src Source, cfg Config) error {
	img := gocv.NewMat()
	defer img.Close()

	var last time.Time
	for {
		if cfg.FrameInterval > 0 && !last.IsZero() {
			select {
			case <-ctx.Done():
			case <-time.After(time.Until(last.Add(cfg.FrameInterval))):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		last = time.Now()
		if !src.Read(&img) {
			logger.Log().Info("video source ended")
			return nil
		}
		if cfg.Width > 0 && cfg.Height > 0 {
			render.Resize(&img, cfg.Width, cfg.Height)
		}

		var (
			dets []iface.Detection
			obs  []counter.Observation
		)
		if cfg.Tracker != nil {
			dets = detect(ctx, cfg.Detector, img)
			tracks := cfg.Tracker.Update(dets)
			if cfg.Processor != nil {
				obs = cfg.Processor.Process(tracks)
			}
		}
		if cfg.OnFrame != nil {
			cfg.OnFrame(obs)
		}
		if cfg.Overlay != nil {
			render.Draw(&img, cfg.Overlay(dets, obs))
		}
		if cfg.Sink != nil && !cfg.Sink.Show(img) {
			logger.Log().Info("sink requested stop")
			return nil
		}
	}
}

// detect returns no detections on failure so the tracker still ages its
// tracks for this frame.
func detect(ctx context.Context, d iface.Detector, img gocv.Mat) []iface.Detection {
	if d == nil {
		return nil
	}
	data, err := render.EncodeJPEG(img)
	if err != nil {
		logger.Log().Warn("encode frame for detection", zap.Error(err))
		return nil
	}
	dets, err := d.Detect(ctx, data)
	if err != nil {
		logger.Log().Warn("detect", zap.Error(err))
		return nil
	}
	return dets
}
