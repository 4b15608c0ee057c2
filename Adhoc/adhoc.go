package Adhoc

import (
	"ZoneCountServer/logger"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TimeOutSeconds = 5

type RegisterRequest struct {
	Id        string `json:"id"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Zones     int    `json:"zones"`
	Frames    uint64 `json:"frames"`
	TimeStamp int64  `json:"timestamp"`
}

type RegisterResponse struct {
	Id      string `json:"id"`
	Success bool   `json:"success"`
}

type RegServerConfig struct {
	Port int
	Addr string
}

func (reg *RegServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%d/api/register", reg.Addr, reg.Port)
}

// Status reports the live node figures sent with each heartbeat.
type Status func() (zones int, frames uint64)

type Heartbeat struct {
	ID       string
	IP       string
	Port     int
	Interval time.Duration
	Server   RegServerConfig
	Status   Status

	client *resty.Client
}

func NewHeartbeat(server RegServerConfig, ip string, port int, interval time.Duration, status Status) *Heartbeat {
	if interval <= 0 {
		interval = TimeOutSeconds * time.Second
	}
	return &Heartbeat{
		ID:       uuid.NewString(),
		IP:       ip,
		Port:     port,
		Interval: interval,
		Server:   server,
		Status:   status,
		client:   resty.New().SetTimeout(TimeOutSeconds * time.Second),
	}
}

// Send posts one registration and reports whether the server accepted it.
func (h *Heartbeat) Send(ctx context.Context) (bool, error) {
	req := RegisterRequest{
		Id:        h.ID,
		IP:        h.IP,
		Port:      h.Port,
		TimeStamp: time.Now().Unix(),
	}
	if h.Status != nil {
		req.Zones, req.Frames = h.Status()
	}
	var respBody RegisterResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&respBody).
		Post(h.Server.URL())
	if err != nil {
		return false, fmt.Errorf("register: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("register: server returned %s: %s", resp.Status(), resp.String())
	}
	return respBody.Success, nil
}

// Run sends a heartbeat immediately and then every Interval until ctx is
// cancelled. Failures are logged and retried on the next tick.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()
	send := func() {
		ok, err := h.Send(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Log().Error("heartbeat failed", zap.Error(err))
			}
			return
		}
		if !ok {
			logger.Log().Warn("registration rejected", zap.String("id", h.ID))
		}
	}
	send()
	for {
		select {
		case <-ctx.Done():
			logger.Log().Info("heartbeat stopped", zap.String("id", h.ID))
			return
		case <-ticker.C:
			send()
		}
	}
}
