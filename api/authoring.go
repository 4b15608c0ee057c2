package api

import (
	"ZoneCountServer/annotate"
	"ZoneCountServer/authoring"
	"ZoneCountServer/monitor"
	"ZoneCountServer/store"
	"ZoneCountServer/zone"
	_ "embed"
	"errors"
	"image"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML []byte

const authoringHint = "click: add point | close: finish zone | save: write file"

// Authoring serializes browser events onto one authoring session.
type Authoring struct {
	mu      sync.Mutex
	session *authoring.Session
	dest    string
	save    authoring.Saver
}

// NewAuthoring wraps session; save writes to dest. A nil save uses store.Save.
func NewAuthoring(session *authoring.Session, dest string, save authoring.Saver) *Authoring {
	if save == nil {
		save = store.Save
	}
	return &Authoring{session: session, dest: dest, save: save}
}

// Primitives draws the current session state for the preview frame.
func (a *Authoring) Primitives() []annotate.Primitive {
	a.mu.Lock()
	prims := annotate.Frame(a.session.CurrentZones(), a.session.InProgressPoints(), nil)
	a.mu.Unlock()
	return append(prims, annotate.Hint(authoringHint))
}

type pointRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

func (a *Authoring) state() gin.H {
	return gin.H{
		"state":  a.session.State().String(),
		"points": pointPairs(a.session.InProgressPoints()),
		"zones":  store.Pairs(a.session.CurrentZones()),
		"file":   a.dest,
	}
}

func pointPairs(pts []image.Point) [][]int {
	out := make([][]int, 0, len(pts))
	for _, p := range pts {
		out = append(out, []int{p.X, p.Y})
	}
	return out
}

func NewAuthoringRouter(a *Authoring, frames FrameSource, m *monitor.Metrics) *gin.Engine {
	r := newEngine(m)
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	r.GET("/api/frame.jpg", frameHandler(frames))
	r.GET("/api/zones", zonesHandler(func() zone.Collection {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.session.CurrentZones()
	}))
	r.GET("/api/authoring/state", func(c *gin.Context) {
		a.mu.Lock()
		defer a.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"data": a.state()})
	})
	r.POST("/api/authoring/points", func(c *gin.Context) {
		var req pointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		a.session.AddPoint(image.Pt(*req.X, *req.Y))
		c.JSON(http.StatusOK, gin.H{"data": a.state()})
	})
	r.POST("/api/authoring/close", func(c *gin.Context) {
		a.mu.Lock()
		defer a.mu.Unlock()
		idx, err := a.session.CloseZone()
		if errors.Is(err, authoring.ErrInsufficientPoints) || errors.Is(err, authoring.ErrSelfIntersectingPolygon) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "data": a.state()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		data := a.state()
		data["zone"] = idx
		c.JSON(http.StatusOK, gin.H{"data": data})
	})
	r.POST("/api/authoring/save", func(c *gin.Context) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if err := a.session.Save(a.save, a.dest); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"file": a.dest, "zones": len(a.session.CurrentZones())}})
	})
	r.POST("/api/authoring/reset", func(c *gin.Context) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.session.Reset()
		c.JSON(http.StatusOK, gin.H{"data": a.state()})
	})
	return r
}
