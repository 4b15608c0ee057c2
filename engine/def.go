package engine

import (
	iface "ZoneCountServer/interface"
	"os"
	"strings"
)

// DefaultClasses are the vehicle classes counted when no list is configured.
var DefaultClasses = []string{"car", "truck", "bus"}

// ReadLinesReadFile reads a class-name list, one name per line. CRLF line
// endings and blank lines are tolerated.
func ReadLinesReadFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := strings.Split(string(b), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(strings.TrimRight(l, "\r"))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// Filter keeps whitelisted classes whose confidence, as a whole percentage
// rounded up, is strictly above MinConfidence.
type Filter struct {
	Classes       []string
	MinConfidence int
}

func NewFilter(cfg iface.DetectorConfig) Filter {
	classes := cfg.Classes
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	return Filter{Classes: classes, MinConfidence: cfg.MinConfidence}
}

func (f Filter) Keep(d iface.Detection) bool {
	if d.Percent() <= f.MinConfidence {
		return false
	}
	for _, c := range f.Classes {
		if c == d.Name {
			return true
		}
	}
	return false
}

func (f Filter) Apply(dets []iface.Detection) []iface.Detection {
	out := make([]iface.Detection, 0, len(dets))
	for _, d := range dets {
		if f.Keep(d) {
			out = append(out, d)
		}
	}
	return out
}
