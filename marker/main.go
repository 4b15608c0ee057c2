// Command marker serves a browser page for drawing counting zones over the
// video and saves them to the zones file.
package main

import (
	"ZoneCountServer/annotate"
	"ZoneCountServer/api"
	"ZoneCountServer/authoring"
	"ZoneCountServer/config"
	"ZoneCountServer/counter"
	iface "ZoneCountServer/interface"
	"ZoneCountServer/logger"
	"ZoneCountServer/pipeline"
	"ZoneCountServer/store"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	out := flag.String("out", "", "zones file to write (default: zonesFile from config)")
	source := flag.String("source", "", "video to draw on (default: video.source from config)")
	edit := flag.Bool("edit", false, "start from the zones already in the output file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *out != "" {
		cfg.ZonesFile = *out
	}
	if *source != "" {
		cfg.Video.Source = *source
	}
	if err := logger.Init(cfg.Logging.Development, cfg.Logging.Level); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *edit); err != nil {
		logger.Log().Fatal("marker stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, edit bool) error {
	session := authoring.NewSession(
		authoring.WithSelfIntersecting(cfg.Authoring.AllowSelfIntersecting),
		authoring.WithLogger(logger.Log()),
	)
	if edit {
		zones, err := store.Load(cfg.ZonesFile)
		switch {
		case err == nil:
			session.Preload(zones)
			logger.Log().Info("editing existing zones", zap.String("path", cfg.ZonesFile), zap.Int("zones", len(zones)))
		case errors.Is(err, store.ErrNotFound):
			logger.Log().Info("no existing zones, starting empty", zap.String("path", cfg.ZonesFile))
		default:
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := api.NewAuthoring(session, cfg.ZonesFile, store.Save)
	frames := &pipeline.FrameBuffer{}
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: api.NewAuthoringRouter(a, frames, nil),
	}
	go func() {
		logger.Log().Info("open the marker page", zap.String("url", fmt.Sprintf("http://localhost:%d/", cfg.Server.HTTPPort)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log().Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	var src pipeline.Source
	video, err := pipeline.OpenVideo(cfg.Video.Source, true)
	if err != nil {
		logger.Log().Warn("no video, drawing on a blank frame", zap.Error(err))
		src = pipeline.BlankSource{Width: cfg.Video.Width, Height: cfg.Video.Height}
	} else {
		defer video.Close()
		src = video
	}

	sink := pipeline.MultiSink{pipeline.BufferSink{Buf: frames}}
	if cfg.Display {
		sink = append(sink, pipeline.NewWindowSink("Zone marker"))
	}
	defer sink.Close()

	err = pipeline.Run(ctx, src, pipeline.Config{
		Width:  cfg.Video.Width,
		Height: cfg.Video.Height,
		Overlay: func([]iface.Detection, []counter.Observation) []annotate.Primitive {
			return a.Primitives()
		},
		Sink:          sink,
		FrameInterval: 40 * time.Millisecond,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log().Error("pipeline stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
