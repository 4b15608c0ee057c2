// Package config loads config.yaml.
package config

import (
	iface "ZoneCountServer/interface"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Video struct {
	Source string `yaml:"source"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Loop rewinds to the first frame at end of stream.
	Loop bool `yaml:"loop"`
}

type Detector struct {
	URL            string   `yaml:"url"`
	Classes        []string `yaml:"classes"`
	ClassesFile    string   `yaml:"classesFile"`
	MinConfidence  int      `yaml:"minConfidence"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
}

type Tracker struct {
	MaxAge       int     `yaml:"maxAge"`
	MinHits      int     `yaml:"minHits"`
	IOUThreshold float64 `yaml:"iouThreshold"`
}

type Counting struct {
	AnchorOffset int `yaml:"anchorOffset"`
}

type Authoring struct {
	AllowSelfIntersecting bool `yaml:"allowSelfIntersecting"`
}

type Server struct {
	HTTPPort    int `yaml:"HTTPPort"`
	RPCPort     int `yaml:"RPCPort"`
	MonitorPort int `yaml:"MonitorPort"`
	// PushIntervalMs is how often websocket clients receive counts.
	PushIntervalMs int `yaml:"pushIntervalMs"`
}

type History struct {
	Path          string `yaml:"path"`
	SnapshotEvery int    `yaml:"snapshotEvery"`
}

type Registration struct {
	Enabled         bool   `yaml:"UseRegServer"`
	Host            string `yaml:"RegServerHost"`
	Port            int    `yaml:"RegServerPort"`
	IntervalSeconds int    `yaml:"intervalSeconds"`
}

type Logging struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

type Config struct {
	Video        Video        `yaml:"video"`
	ZonesFile    string       `yaml:"zonesFile"`
	Detector     Detector     `yaml:"detector"`
	Tracker      Tracker      `yaml:"tracker"`
	Counting     Counting     `yaml:"counting"`
	Authoring    Authoring    `yaml:"authoring"`
	Server       Server       `yaml:"server"`
	Display      bool         `yaml:"display"`
	History      History      `yaml:"history"`
	Registration Registration `yaml:"registration"`
	Logging      Logging      `yaml:"logging"`
}

func Default() *Config {
	return &Config{
		Video:     Video{Source: "carsvid.mp4", Width: 1280, Height: 720},
		ZonesFile: "zones.json",
		Detector: Detector{
			URL:            "http://127.0.0.1:8080",
			Classes:        []string{"car", "truck", "bus"},
			MinConfidence:  60,
			TimeoutSeconds: 5,
		},
		Tracker:  Tracker{MaxAge: 20, MinHits: 3, IOUThreshold: 0.3},
		Counting: Counting{AnchorOffset: 40},
		Server: Server{
			HTTPPort:       8090,
			RPCPort:        50051,
			MonitorPort:    50052,
			PushIntervalMs: 500,
		},
		History:      History{SnapshotEvery: 300},
		Registration: Registration{Port: 8000, IntervalSeconds: 5},
	}
}

// Load reads path over the defaults. A missing file is an error; an empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills zero values with defaults and rejects settings that cannot
// work.
func (c *Config) Validate() error {
	d := Default()
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		c.Video.Width, c.Video.Height = d.Video.Width, d.Video.Height
	}
	if c.Detector.TimeoutSeconds <= 0 {
		c.Detector.TimeoutSeconds = d.Detector.TimeoutSeconds
	}
	if c.Tracker.MaxAge <= 0 {
		c.Tracker.MaxAge = d.Tracker.MaxAge
	}
	if c.Tracker.MinHits < 0 {
		c.Tracker.MinHits = d.Tracker.MinHits
	}
	if c.Server.PushIntervalMs <= 0 {
		c.Server.PushIntervalMs = d.Server.PushIntervalMs
	}
	if c.Registration.IntervalSeconds <= 0 {
		c.Registration.IntervalSeconds = d.Registration.IntervalSeconds
	}

	var errs []error
	if c.ZonesFile == "" {
		errs = append(errs, errors.New("zonesFile must be set"))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("detector.minConfidence must be 0-100, got %d", c.Detector.MinConfidence))
	}
	if c.Tracker.IOUThreshold < 0 || c.Tracker.IOUThreshold > 1 {
		errs = append(errs, fmt.Errorf("tracker.iouThreshold must be 0-1, got %g", c.Tracker.IOUThreshold))
	}
	if c.History.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("history.snapshotEvery must not be negative, got %d", c.History.SnapshotEvery))
	}
	if c.Registration.Enabled && c.Registration.Host == "" {
		errs = append(errs, errors.New("registration.RegServerHost must be set when UseRegServer is true"))
	}
	return errors.Join(errs...)
}

func (c *Config) DetectorConfig() iface.DetectorConfig {
	return iface.DetectorConfig{
		URL:           c.Detector.URL,
		Classes:       c.Detector.Classes,
		MinConfidence: c.Detector.MinConfidence,
	}
}

func (c *Config) TrackerConfig() iface.TrackerConfig {
	return iface.TrackerConfig{
		MaxAge:       c.Tracker.MaxAge,
		MinHits:      c.Tracker.MinHits,
		IOUThreshold: c.Tracker.IOUThreshold,
	}
}

func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.Detector.TimeoutSeconds) * time.Second
}

func (c *Config) PushInterval() time.Duration {
	return time.Duration(c.Server.PushIntervalMs) * time.Millisecond
}

func (c *Config) RegistrationInterval() time.Duration {
	return time.Duration(c.Registration.IntervalSeconds) * time.Second
}
