package main

import (
	adhoc "ZoneCountServer/Adhoc"
	"ZoneCountServer/api"
	"ZoneCountServer/config"
	"ZoneCountServer/counter"
	"ZoneCountServer/engine"
	backend "ZoneCountServer/gRPC"
	"ZoneCountServer/history"
	"ZoneCountServer/logger"
	"ZoneCountServer/monitor"
	"ZoneCountServer/pipeline"
	"ZoneCountServer/store"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func GetOutboundIP() (string, error) {
	// no packet is sent; dialing UDP only resolves the outbound route
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP.String(), nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	query := flag.String("query", "", "print counts from a running server's gRPC address and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Development, cfg.Logging.Level); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *query != "" {
		if err := printCounts(*query); err != nil {
			logger.Log().Fatal("query failed", zap.Error(err))
		}
		return
	}
	if err := serve(cfg); err != nil {
		logger.Log().Fatal("server stopped", zap.Error(err))
	}
}

func printCounts(addr string) error {
	conn, client, err := backend.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := backend.FetchSnapshot(ctx, client)
	if err != nil {
		return err
	}
	fmt.Printf("frames: %d\n", snap.Frames)
	for i, n := range snap.Counts {
		fmt.Printf("Zone %d Vehicles = %d\n", i+1, n)
	}
	return nil
}

func serve(cfg *config.Config) error {
	fmt.Println(strings.Repeat("#", 64))
	fmt.Println(" Video:", cfg.Video.Source)
	fmt.Println(" Zones:", cfg.ZonesFile)
	fmt.Println(" HTTP  Port:", cfg.Server.HTTPPort)
	fmt.Println(" gRPC  Port:", cfg.Server.RPCPort)
	fmt.Println(" Metrics Port:", cfg.Server.MonitorPort)
	fmt.Println(strings.Repeat("#", 64))

	zones, err := store.Load(cfg.ZonesFile)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}
	logger.Log().Info("zones loaded", zap.String("path", cfg.ZonesFile), zap.Int("zones", len(zones)))

	detCfg := cfg.DetectorConfig()
	if cfg.Detector.ClassesFile != "" {
		classes, err := engine.ReadLinesReadFile(cfg.Detector.ClassesFile)
		if err != nil {
			return fmt.Errorf("read classes: %w", err)
		}
		detCfg.Classes = classes
	}

	metrics := monitor.New()
	metrics.InitZones(len(zones))
	c := counter.New(zones, counter.WithEnterHook(func(zoneIdx, trackID int) {
		metrics.ObserveEnter(zoneIdx, trackID)
		logger.Log().Info("vehicle entered zone", zap.Int("zone", zoneIdx+1), zap.Int("track", trackID))
	}))

	var (
		db  *history.DB
		run history.Run
	)
	if cfg.History.Path != "" {
		db, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		run, err = db.BeginRun(cfg.ZonesFile, cfg.Video.Source, len(zones))
		if err != nil {
			return err
		}
		logger.Log().Info("history run started", zap.String("run", run.ID))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		metrics.StartMon(ctx, cfg.Server.MonitorPort)
	}()

	grpcServer, err := backend.StartGRPCServer(cfg.Server.RPCPort, backend.NewServer(c, metrics))
	if err != nil {
		return err
	}
	defer grpcServer.GracefulStop()

	frames := &pipeline.FrameBuffer{}
	deps := api.CountingDeps{
		Counter:      c,
		Frames:       frames,
		Metrics:      metrics,
		PushInterval: cfg.PushInterval(),
	}
	if db != nil {
		deps.History = db
	}
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: api.NewCountingRouter(deps),
	}
	go func() {
		logger.Log().Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log().Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	if cfg.Registration.Enabled {
		ip, err := GetOutboundIP()
		if err != nil {
			return fmt.Errorf("outbound ip: %w", err)
		}
		hb := adhoc.NewHeartbeat(
			adhoc.RegServerConfig{Addr: cfg.Registration.Host, Port: cfg.Registration.Port},
			ip, cfg.Server.HTTPPort, cfg.RegistrationInterval(),
			func() (int, uint64) { return len(zones), c.Frames() },
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			hb.Run(ctx)
		}()
	} else {
		logger.Log().Info("UseRegServer is false, skipping registration")
	}

	detector := engine.NewRemoteDetector(detCfg, cfg.DetectorTimeout())
	defer detector.Destroy()
	dc := detector.CheckConfig()
	logger.Log().Info("detector ready",
		zap.String("url", dc.URL),
		zap.Strings("classes", dc.Classes),
		zap.Int("min_confidence", dc.MinConfidence))

	src, err := pipeline.OpenVideo(cfg.Video.Source, cfg.Video.Loop)
	if err != nil {
		return err
	}
	defer src.Close()

	sink := pipeline.MultiSink{pipeline.BufferSink{Buf: frames}}
	if cfg.Display {
		sink = append(sink, pipeline.NewWindowSink("ZoneCount"))
	}
	defer sink.Close()

	snapshot := func() {
		if db == nil {
			return
		}
		if err := db.RecordSnapshot(run.ID, c.Snapshot()); err != nil {
			logger.Log().Error("record snapshot", zap.Error(err))
		}
	}
	every := uint64(cfg.History.SnapshotEvery)

	err = pipeline.Run(ctx, src, pipeline.Config{
		Width:     cfg.Video.Width,
		Height:    cfg.Video.Height,
		Detector:  detector,
		Tracker:   engine.NewIOUTracker(cfg.TrackerConfig()),
		Processor: pipeline.NewProcessor(c, cfg.Counting.AnchorOffset),
		Overlay:   pipeline.CountingOverlay(c, cfg.Video.Width, cfg.Video.Height),
		Sink:      sink,
		OnFrame: func([]counter.Observation) {
			metrics.FrameDone()
			metrics.SetCounts(c.Counts())
			if every > 0 && c.Frames()%every == 0 {
				snapshot()
			}
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log().Error("pipeline stopped", zap.Error(err))
	}

	snapshot()
	for i, n := range c.Counts() {
		logger.Log().Info("final count", zap.Int("zone", i+1), zap.Int("vehicles", n))
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log().Error("http shutdown", zap.Error(err))
	}
	wg.Wait()
	logger.Log().Info("Safely exited")
	return nil
}
