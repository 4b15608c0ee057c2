package engine

import (
	iface "ZoneCountServer/interface"
	"ZoneCountServer/logger"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	UNREGISTERED = 0x0001
	IDLE         = 0x0003
	BUSY         = 0x0004
)

const detectPath = "/api/detect"

var ErrDetectFailed = errors.New("detector reported failure")

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SingleResult mirrors one entry of the detection server's response. Box is
// LT, RT, RB, LB.
type SingleResult struct {
	Name       string     `json:"name"`
	Confidence float32    `json:"confidence"`
	Box        []Position `json:"box"`
	Center     Position   `json:"center"`
}

type DetectResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Results []SingleResult `json:"results"`
}

// RemoteDetector posts JPEG frames to a detection server over HTTP and keeps
// the detections that pass its Filter.
type RemoteDetector struct {
	cfg    iface.DetectorConfig
	filter Filter
	client *resty.Client
	State  int
}

func NewRemoteDetector(cfg iface.DetectorConfig, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		cfg:    cfg,
		filter: NewFilter(cfg),
		client: resty.New().SetBaseURL(cfg.URL).SetTimeout(timeout),
		State:  IDLE,
	}
}

func (d *RemoteDetector) CheckConfig() iface.DetectorConfig {
	return d.cfg
}

// Detect sends one JPEG image and returns the filtered detections.
func (d *RemoteDetector) Detect(ctx context.Context, img []byte) ([]iface.Detection, error) {
	if d.State == UNREGISTERED {
		return nil, errors.New("detector closed")
	}
	d.State = BUSY
	defer func() { d.State = IDLE }()

	var out DetectResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "image/jpeg").
		SetBody(img).
		SetResult(&out).
		Post(detectPath)
	if err != nil {
		return nil, fmt.Errorf("detect request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("detect request: server returned %s: %s", resp.Status(), resp.String())
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrDetectFailed, out.Message)
	}
	dets := make([]iface.Detection, 0, len(out.Results))
	for _, r := range out.Results {
		if len(r.Box) != 4 {
			logger.Log().Warn("dropping result with malformed box", zap.String("name", r.Name), zap.Int("corners", len(r.Box)))
			continue
		}
		dets = append(dets, iface.Detection{
			Name:       r.Name,
			Confidence: r.Confidence,
			Box:        image.Rect(r.Box[0].X, r.Box[0].Y, r.Box[2].X, r.Box[2].Y),
		})
	}
	return d.filter.Apply(dets), nil
}

func (d *RemoteDetector) Destroy() {
	d.State = UNREGISTERED
}
