package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Chart represents a registered chart file served by the registry.
type Chart struct {
	ID         string      // Unique identifier (derived from filename)
	Name       string      // Display name
	Path       string      // File path
	Format     ChartFormat // Container format
	Size       int64       // File size in bytes
	Layers     []LayerInfo // Layers in dataset order
	Status     ChartStatus // Current lifecycle status
	LoadedAt   time.Time   // Load timestamp
	LastServed time.Time   // Last conversion timestamp
}

// IsReady returns true if the chart was opened and inspected successfully.
func (c *Chart) IsReady() bool {
	return c.Status == StatusReady
}

// LayerCount returns the number of layers.
func (c *Chart) LayerCount() int {
	return len(c.Layers)
}

// FeatureCount returns the advisory total of features over all layers.
func (c *Chart) FeatureCount() int64 {
	var n int64
	for _, l := range c.Layers {
		if l.FeatureCount > 0 {
			n += l.FeatureCount
		}
	}
	return n
}

// GetLayer returns a layer by name.
func (c *Chart) GetLayer(name string) (*LayerInfo, bool) {
	for i := range c.Layers {
		if c.Layers[i].Name == name {
			return &c.Layers[i], true
		}
	}
	return nil, false
}

// LayerInfo describes one layer of a chart.
type LayerInfo struct {
	Name         string `json:"name"`
	FeatureCount int64  `json:"feature_count"` // -1 when the driver cannot count cheaply
}

// ChartStatus represents the status of a chart in the registry.
type ChartStatus string

const (
	StatusLoading   ChartStatus = "loading"
	StatusReady     ChartStatus = "ready"
	StatusError     ChartStatus = "error"
	StatusUnloading ChartStatus = "unloading"
)

// ChartFormat is the container format of a chart file.
type ChartFormat string

const (
	FormatS57        ChartFormat = "s57"
	FormatGeoPackage ChartFormat = "gpkg"
	FormatUnknown    ChartFormat = ""
)

// DetectFormat derives the chart format from the file extension. S-57 base
// cells end in .000; update files (.001, ...) are applied by the reader and
// are not charts on their own.
func DetectFormat(path string) ChartFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".000":
		return FormatS57
	case ".gpkg":
		return FormatGeoPackage
	default:
		return FormatUnknown
	}
}

// IsUpdateFile reports whether path is an S-57 update file (.001 to .999).
func IsUpdateFile(path string) bool {
	ext := filepath.Ext(path)
	if len(ext) != 4 || ext == ".000" {
		return false
	}
	for _, c := range ext[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsChartFile reports whether the path names a chart the registry can load.
func IsChartFile(path string) bool {
	return DetectFormat(path) != FormatUnknown
}

// ChartID derives the registry identifier from a file path.
func ChartID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
