package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Video.Width)
	assert.Equal(t, 40, cfg.Counting.AnchorOffset)
	assert.Equal(t, []string{"car", "truck", "bus"}, cfg.Detector.Classes)
	assert.Equal(t, 5*time.Second, cfg.DetectorTimeout())
	assert.Equal(t, 20, cfg.TrackerConfig().MaxAge)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
video:
  source: rtsp://camera/stream
  width: 640
  height: 360
zonesFile: lanes.yaml
detector:
  url: http://detector:9000
  minConfidence: 45
tracker:
  minHits: 1
server:
  HTTPPort: 9999
authoring:
  allowSelfIntersecting: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rtsp://camera/stream", cfg.Video.Source)
	assert.Equal(t, 640, cfg.Video.Width)
	assert.Equal(t, "lanes.yaml", cfg.ZonesFile)
	assert.Equal(t, "http://detector:9000", cfg.DetectorConfig().URL)
	assert.Equal(t, 45, cfg.DetectorConfig().MinConfidence)
	assert.Equal(t, 1, cfg.Tracker.MinHits)
	assert.Equal(t, 20, cfg.Tracker.MaxAge, "unset keys keep defaults")
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 50051, cfg.Server.RPCPort)
	assert.True(t, cfg.Authoring.AllowSelfIntersecting)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "video: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "detector:\n  minConfidence: 150\n"))
	assert.ErrorContains(t, err, "minConfidence")

	_, err = Load(writeConfig(t, "registration:\n  UseRegServer: true\n"))
	assert.ErrorContains(t, err, "RegServerHost")

	_, err = Load(writeConfig(t, "zonesFile: \"\"\n"))
	assert.ErrorContains(t, err, "zonesFile")
}

func TestValidateFillsZeroValues(t *testing.T) {
	cfg := &Config{ZonesFile: "z.json"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 720, cfg.Video.Height)
	assert.Equal(t, 500*time.Millisecond, cfg.PushInterval())
	assert.Equal(t, 5*time.Second, cfg.RegistrationInterval())
}
