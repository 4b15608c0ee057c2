package engine

import (
	iface "ZoneCountServer/interface"
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(name string, conf float32, x1, y1, x2, y2 int) iface.Detection {
	return iface.Detection{Name: name, Confidence: conf, Box: image.Rect(x1, y1, x2, y2)}
}

func TestFilter(t *testing.T) {
	f := NewFilter(iface.DetectorConfig{MinConfidence: 60})
	assert.Equal(t, DefaultClasses, f.Classes)

	dets := []iface.Detection{
		det("car", 0.75, 0, 0, 10, 10),
		det("truck", 0.59, 0, 0, 10, 10),
		det("person", 0.99, 0, 0, 10, 10),
		det("bus", 0.605, 0, 0, 10, 10),
	}
	got := f.Apply(dets)
	require.Len(t, got, 2)
	assert.Equal(t, "car", got[0].Name)
	assert.Equal(t, "bus", got[1].Name)
	assert.Equal(t, 61, got[1].Percent())
	assert.Equal(t, 75, got[0].Percent())

	custom := NewFilter(iface.DetectorConfig{Classes: []string{"person"}, MinConfidence: 0})
	assert.True(t, custom.Keep(det("person", 0.01, 0, 0, 1, 1)))
	assert.False(t, custom.Keep(det("car", 0.9, 0, 0, 1, 1)))
}

func TestReadLinesReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("person\r\nbicycle\r\ncar\n\n"), 0o644))
	names, err := ReadLinesReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "bicycle", "car"}, names)

	_, err = ReadLinesReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRemoteDetector(t *testing.T) {
	var gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, detectPath, r.URL.Path)
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(DetectResponse{
			Success: true,
			Results: []SingleResult{
				{Name: "car", Confidence: 0.9, Box: []Position{{10, 20}, {50, 20}, {50, 60}, {10, 60}}, Center: Position{30, 40}},
				{Name: "person", Confidence: 0.9, Box: []Position{{0, 0}, {5, 0}, {5, 5}, {0, 5}}},
				{Name: "bus", Confidence: 0.95, Box: []Position{{0, 0}}},
			},
		})
	}))
	defer srv.Close()

	d := NewRemoteDetector(iface.DetectorConfig{URL: srv.URL, MinConfidence: 60}, 5*time.Second)
	dets, err := d.Detect(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, gotBody)
	require.Len(t, dets, 1)
	assert.Equal(t, image.Rect(10, 20, 50, 60), dets[0].Box)
	assert.Equal(t, IDLE, d.State)
	assert.Equal(t, srv.URL, d.CheckConfig().URL)
}

func TestRemoteDetectorErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := NewRemoteDetector(iface.DetectorConfig{URL: srv.URL}, time.Second).Detect(context.Background(), []byte{1})
		assert.Error(t, err)
	})

	t.Run("reported failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":false,"message":"model not loaded"}`))
		}))
		defer srv.Close()
		_, err := NewRemoteDetector(iface.DetectorConfig{URL: srv.URL}, time.Second).Detect(context.Background(), []byte{1})
		assert.ErrorIs(t, err, ErrDetectFailed)
	})

	t.Run("destroyed", func(t *testing.T) {
		d := NewRemoteDetector(iface.DetectorConfig{URL: "http://127.0.0.1:1"}, time.Second)
		d.Destroy()
		_, err := d.Detect(context.Background(), []byte{1})
		assert.Error(t, err)
	})
}

func TestIoU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.InDelta(t, 0.0, IoU(a, image.Rect(20, 20, 30, 30)), 1e-9)
	assert.InDelta(t, 25.0/175.0, IoU(a, image.Rect(5, 5, 15, 15)), 1e-9)
}

func ids(tracks []iface.Track) []int {
	out := make([]int, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func TestIOUTracker(t *testing.T) {
	t.Run("stable identity for a moving box", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 20, MinHits: 3, IOUThreshold: 0.3})
		for i := 0; i < 10; i++ {
			got := tr.Update([]iface.Detection{det("car", 0.9, i*2, 0, i*2+20, 20)})
			assert.Equal(t, []int{1}, ids(got), "frame %d", i+1)
		}
	})

	t.Run("two objects", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 20, MinHits: 3, IOUThreshold: 0.3})
		a := det("car", 0.9, 0, 0, 20, 20)
		b := det("car", 0.9, 100, 100, 120, 120)
		assert.Equal(t, []int{1, 2}, ids(tr.Update([]iface.Detection{a, b})))
		assert.Equal(t, []int{1, 2}, ids(tr.Update([]iface.Detection{b, a})))
	})

	t.Run("late track waits for min hits", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 20, MinHits: 3, IOUThreshold: 0.3})
		for i := 0; i < 3; i++ {
			tr.Update(nil)
		}
		box := det("car", 0.9, 0, 0, 20, 20)
		assert.Empty(t, tr.Update([]iface.Detection{box}))
		assert.Empty(t, tr.Update([]iface.Detection{box}))
		assert.Empty(t, tr.Update([]iface.Detection{box}))
		assert.Equal(t, []int{1}, ids(tr.Update([]iface.Detection{box})))
	})

	t.Run("short gap keeps identity", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 2, MinHits: 1, IOUThreshold: 0.3})
		box := det("car", 0.9, 0, 0, 20, 20)
		tr.Update([]iface.Detection{box})
		tr.Update(nil)
		tr.Update(nil)
		assert.Equal(t, []int{1}, ids(tr.Update([]iface.Detection{box})))
	})

	t.Run("long gap gets a new identity", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 2, MinHits: 0, IOUThreshold: 0.3})
		box := det("car", 0.9, 0, 0, 20, 20)
		tr.Update([]iface.Detection{box})
		tr.Update(nil)
		tr.Update(nil)
		tr.Update(nil)
		assert.Equal(t, []int{2}, ids(tr.Update([]iface.Detection{box})))
	})

	t.Run("no overlap is a new track", func(t *testing.T) {
		tr := NewIOUTracker(iface.TrackerConfig{MaxAge: 5, MinHits: 0, IOUThreshold: 0.3})
		tr.Update([]iface.Detection{det("car", 0.9, 0, 0, 20, 20)})
		got := tr.Update([]iface.Detection{det("car", 0.9, 200, 200, 220, 220)})
		assert.Equal(t, []int{2}, ids(got))
	})
}
