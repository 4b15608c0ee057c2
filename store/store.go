// Package store reads and writes zone files.
//
// A zone file is a list of polygons, each a list of [x, y] integer pairs.
// Polygons may have different vertex counts. Files ending in .yaml or .yml
// are YAML, everything else is JSON.
package store

import (
	"ZoneCountServer/zone"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound        = errors.New("zone file not found")
	ErrCorruptZoneData = errors.New("corrupt zone data")
)

type Codec interface {
	Marshal(zones zone.Collection) ([]byte, error)
	Unmarshal(data []byte) (zone.Collection, error)
}

var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
)

// CodecFor picks the codec from the file extension.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Save writes zones to dest, replacing any existing file atomically.
func Save(zones zone.Collection, dest string) error {
	data, err := CodecFor(dest).Marshal(zones)
	if err != nil {
		return err
	}
	return writeAtomic(dest, data)
}

// Load reads the zone file at src.
func Load(src string) (zone.Collection, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return nil, fmt.Errorf("read zone file %s: %w", src, err)
	}
	zones, err := CodecFor(src).Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return zones, nil
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".zones-*")
	if err != nil {
		return fmt.Errorf("create temp zone file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename has happened
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write zone file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync zone file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close zone file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod zone file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename zone file: %w", err)
	}
	return nil
}

// Pairs is the wire form shared by both codecs: one [x, y] pair per vertex.
func Pairs(zones zone.Collection) [][][]int {
	out := make([][][]int, 0, len(zones))
	for _, z := range zones {
		poly := make([][]int, 0, z.Len())
		for _, p := range z.Points() {
			poly = append(poly, []int{p.X, p.Y})
		}
		out = append(out, poly)
	}
	return out
}

// FromPairs validates and converts the wire form. Every error wraps
// ErrCorruptZoneData.
func FromPairs(raw [][][]int) (zone.Collection, error) {
	polys := make([][]image.Point, 0, len(raw))
	for i, poly := range raw {
		pts := make([]image.Point, 0, len(poly))
		for j, pair := range poly {
			if len(pair) != 2 {
				return nil, fmt.Errorf("%w: zone %d point %d has %d coordinates", ErrCorruptZoneData, i, j, len(pair))
			}
			pts = append(pts, image.Pt(pair[0], pair[1]))
		}
		polys = append(polys, pts)
	}
	zones, err := zone.FromPoints(polys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptZoneData, err)
	}
	return zones, nil
}

type jsonCodec struct{}

func (jsonCodec) Marshal(zones zone.Collection) ([]byte, error) {
	data, err := json.Marshal(Pairs(zones))
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte) (zone.Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptZoneData)
	}
	var raw [][][]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptZoneData, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a list of zones", ErrCorruptZoneData)
	}
	return FromPairs(raw)
}

type yamlCodec struct{}

// Marshal writes one flow-style line per zone.
func (yamlCodec) Marshal(zones zone.Collection) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, poly := range Pairs(zones) {
		n := &yaml.Node{}
		if err := n.Encode(poly); err != nil {
			return nil, err
		}
		n.Style = yaml.FlowStyle
		doc.Content = append(doc.Content, n)
	}
	if len(doc.Content) == 0 {
		doc.Style = yaml.FlowStyle
	}
	return yaml.Marshal(doc)
}

func (yamlCodec) Unmarshal(data []byte) (zone.Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptZoneData)
	}
	var nodes [][][]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptZoneData, err)
	}
	if nodes == nil {
		return nil, fmt.Errorf("%w: not a list of zones", ErrCorruptZoneData)
	}
	raw := make([][][]int, len(nodes))
	for i, poly := range nodes {
		raw[i] = make([][]int, len(poly))
		for j, pair := range poly {
			raw[i][j] = make([]int, len(pair))
			for k := range pair {
				n, err := yamlInt(&pair[k])
				if err != nil {
					return nil, fmt.Errorf("%w: zone %d point %d: %v", ErrCorruptZoneData, i, j, err)
				}
				raw[i][j][k] = n
			}
		}
	}
	return FromPairs(raw)
}

// yamlInt accepts only scalars tagged !!int, so 1.9 and 1e2 are rejected
// rather than converted.
func yamlInt(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, fmt.Errorf("line %d: %q is not an integer", n.Line, n.Value)
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return 0, fmt.Errorf("line %d: %v", n.Line, err)
	}
	return v, nil
}
