package monitor

import (
	"ZoneCountServer/logger"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

type Metrics struct {
	Registry *prometheus.Registry

	memUsage prometheus.Gauge
	cpuUsage prometheus.Gauge

	Frames      prometheus.Counter
	ZoneEntries *prometheus.CounterVec
	ZoneCount   *prometheus.GaugeVec
	GRPCTotal   prometheus.Counter
	HTTPTotal   *prometheus.CounterVec

	proc *process.Process
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_Megabytes",
			Help: "Memory usage in Megabytes",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percent",
			Help: "CPU usage in percent",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frames_processed_total",
			Help: "Video frames run through the zone counter",
		}),
		ZoneEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zone_entries_total",
			Help: "Distinct track identities that entered each zone",
		}, []string{"zone"}),
		ZoneCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zone_count",
			Help: "Current cumulative vehicle count per zone",
		}, []string{"zone"}),
		GRPCTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests processed",
		}),
		HTTPTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "code"}),
		proc: &process.Process{Pid: int32(os.Getpid())},
	}
	m.Registry.MustRegister(m.memUsage, m.cpuUsage, m.Frames, m.ZoneEntries, m.ZoneCount, m.GRPCTotal, m.HTTPTotal)
	return m
}

// InitZones publishes a zero for every zone so dashboards see them before
// the first vehicle arrives.
func (m *Metrics) InitZones(n int) {
	for i := 0; i < n; i++ {
		label := strconv.Itoa(i)
		m.ZoneEntries.WithLabelValues(label)
		m.ZoneCount.WithLabelValues(label).Set(0)
	}
}

// ObserveEnter matches counter.WithEnterHook.
func (m *Metrics) ObserveEnter(zoneIdx, _ int) {
	m.ZoneEntries.WithLabelValues(strconv.Itoa(zoneIdx)).Inc()
}

// SetCounts publishes the counter's totals, one gauge per zone.
func (m *Metrics) SetCounts(counts []int) {
	for i, n := range counts {
		m.ZoneCount.WithLabelValues(strconv.Itoa(i)).Set(float64(n))
	}
}

func (m *Metrics) FrameDone() {
	m.Frames.Inc()
}

func (m *Metrics) CheckProcessInfo() {
	if memInfo, err := m.proc.MemoryInfo(); err == nil {
		m.memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	}
	if cpuPercent, err := m.proc.CPUPercent(); err == nil {
		m.cpuUsage.Set(math.Round(cpuPercent*100) / 100)
	}
}

func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))
	return mux
}

// StartMon serves /metrics on port and samples process stats every 500ms
// until ctx is cancelled.
func (m *Metrics) StartMon(ctx context.Context, port int) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: m.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log().Error("prometheus server stopped", zap.Error(err))
		}
	}()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
checkPcs:
	for {
		select {
		case <-ctx.Done():
			break checkPcs
		case <-ticker.C:
			m.CheckProcessInfo()
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log().Error("prometheus server shutdown", zap.Error(err))
	}
}
