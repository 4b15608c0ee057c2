package api

import (
	"ZoneCountServer/counter"
	"ZoneCountServer/history"
	"ZoneCountServer/logger"
	"ZoneCountServer/monitor"
	"ZoneCountServer/store"
	"ZoneCountServer/zone"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FrameSource hands out the latest encoded frame.
type FrameSource interface {
	Latest() (jpeg []byte, seq uint64, ok bool)
}

// HistoryStore is the read side of the history database.
type HistoryStore interface {
	Runs(limit int) ([]history.Run, error)
	GetRun(id string) (history.Run, error)
	Latest(runID string) (counter.Snapshot, error)
}

type CountingDeps struct {
	Counter *counter.Counter
	// Frames, History and Metrics are optional.
	Frames       FrameSource
	History      HistoryStore
	Metrics      *monitor.Metrics
	PushInterval time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewCountingRouter(d CountingDeps) *gin.Engine {
	if d.PushInterval <= 0 {
		d.PushInterval = 500 * time.Millisecond
	}
	r := newEngine(d.Metrics)
	zones := d.Counter.Zones()

	r.GET("/api/zones", zonesHandler(func() zone.Collection { return zones }))
	r.GET("/api/counts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": d.Counter.Snapshot()})
	})
	r.GET("/api/counts/:index", func(c *gin.Context) {
		idx, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
			return
		}
		n, err := d.Counter.CountFor(idx)
		if errors.Is(err, counter.ErrIndexOutOfRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"zone": idx, "count": n}})
	})
	r.GET("/api/frame.jpg", frameHandler(d.Frames))
	r.GET("/ws/counts", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		pushCounts(conn, d.Counter, d.PushInterval)
	})

	if d.History != nil {
		r.GET("/api/history/runs", func(c *gin.Context) {
			limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
			if err != nil || limit <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			runs, err := d.History.Runs(limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": runs})
		})
		r.GET("/api/history/runs/:id", func(c *gin.Context) {
			run, err := d.History.GetRun(c.Param("id"))
			if errors.Is(err, history.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			resp := gin.H{"run": run}
			snap, err := d.History.Latest(run.ID)
			switch {
			case err == nil:
				resp["latest"] = snap
			case !errors.Is(err, history.ErrNoSnapshot):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": resp})
		})
	}
	return r
}

// pushCounts writes a snapshot every interval until the client goes away.
func pushCounts(conn *websocket.Conn, c *counter.Counter, interval time.Duration) {
	defer conn.Close()
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := conn.WriteJSON(c.Snapshot()); err != nil {
			logger.Log().Debug("websocket closed", zap.Error(err))
			return
		}
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

// zonesHandler answers with the zones in file form, as JSON by default or as
// YAML when ?format=yaml.
func zonesHandler(get func() zone.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones := get()
		if c.Query("format") == "yaml" {
			data, err := store.YAML.Marshal(zones)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Data(http.StatusOK, "application/yaml", data)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": store.Pairs(zones)})
	}
}

func frameHandler(frames FrameSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if frames == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No frame available"})
			return
		}
		data, seq, ok := frames.Latest()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No frame available"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Header("X-Frame-Seq", strconv.FormatUint(seq, 10))
		c.Data(http.StatusOK, "image/jpeg", data)
	}
}
