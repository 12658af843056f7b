package domain

import "strconv"

// FeatureTypeProperty is the property injected into every converted feature,
// holding the name of the layer (S-57 object class) it came from.
const FeatureTypeProperty = "_featureType"

// GeoJSON object type names.
const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// Feature is one GeoJSON feature produced from a chart feature.
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// NewFeature assembles a feature, injecting the layer name into its properties.
func NewFeature(layer string, fid int64, geometry *Geometry, properties map[string]interface{}) Feature {
	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties[FeatureTypeProperty] = layer

	return Feature{
		Type:       TypeFeature,
		ID:         FeatureID(layer, fid),
		Geometry:   geometry,
		Properties: properties,
	}
}

// FeatureID composes the output identifier "<layer>.<fid>".
func FeatureID(layer string, fid int64) string {
	return layer + "." + strconv.FormatInt(fid, 10)
}

// FeatureType returns the owning layer name recorded in the properties.
func (f *Feature) FeatureType() string {
	if s, ok := f.GetProperty(FeatureTypeProperty); ok {
		if name, ok := s.(string); ok {
			return name
		}
	}
	return ""
}

// GetProperty returns a property value by key.
func (f *Feature) GetProperty(key string) (interface{}, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// GetFloatProperty returns a numeric property as float64.
func (f *Feature) GetFloatProperty(key string) float64 {
	if v, ok := f.GetProperty(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection creates an empty collection. Features is never nil so
// that it encodes as [] rather than null.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     TypeFeatureCollection,
		Features: []Feature{},
	}
}

// Add appends a feature, preserving insertion order.
func (fc *FeatureCollection) Add(f Feature) {
	fc.Features = append(fc.Features, f)
}

// Len returns the number of features.
func (fc *FeatureCollection) Len() int {
	return len(fc.Features)
}

// CountByType returns the number of features per _featureType.
func (fc *FeatureCollection) CountByType() map[string]int {
	counts := make(map[string]int)
	for i := range fc.Features {
		counts[fc.Features[i].FeatureType()]++
	}
	return counts
}

// ConvertOptions controls which features a conversion emits.
type ConvertOptions struct {
	FeatureTypes []string // layer names to include; nil includes all layers
	BBox         *BBox    // spatial filter forwarded to every included layer
}

// IncludesLayer reports whether the layer passes the feature type filter.
func (o ConvertOptions) IncludesLayer(name string) bool {
	if o.FeatureTypes == nil {
		return true
	}
	for _, t := range o.FeatureTypes {
		if t == name {
			return true
		}
	}
	return false
}
