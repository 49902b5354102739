// Package building defines the parameter set of the twisted elliptical
// tower. A Config is a value: every edit produces a new Config and the model
// is rebuilt from it wholesale.
package building

import (
	"encoding/json"
	"math"

	"github.com/chazu/helix/pkg/ellipse"
)

// Config holds every user-editable parameter of the tower.
// Lengths are in meters, angles in degrees.
type Config struct {
	// Elliptical floor plan (full axes).
	MajorAxis float64 `json:"majorAxis" koanf:"major_axis"`
	MinorAxis float64 `json:"minorAxis" koanf:"minor_axis"`

	Height float64 `json:"height" koanf:"height"`
	Floors int     `json:"floors" koanf:"floors"`

	// RotationPerFloor accumulates linearly: floor f is rotated by
	// f·RotationPerFloor. Negative values twist the other way.
	RotationPerFloor float64 `json:"rotationPerFloor" koanf:"rotation_per_floor"`

	FacadeColor  string  `json:"facadeColor" koanf:"facade_color"`
	GlassColor   string  `json:"glassColor" koanf:"glass_color"`
	GlassOpacity float64 `json:"glassOpacity" koanf:"glass_opacity"`

	EnableLouvers bool    `json:"enableLouvers" koanf:"enable_louvers"`
	LouverSpacing int     `json:"louverSpacing" koanf:"louver_spacing"` // stride over angular segments
	LouverDepth   float64 `json:"louverDepth" koanf:"louver_depth"`
	LouverColor   string  `json:"louverColor" koanf:"louver_color"`
}

// Default returns the configuration the editor opens with.
func Default() Config {
	return Config{
		MajorAxis:        20,
		MinorAxis:        15,
		Height:           120,
		Floors:           30,
		RotationPerFloor: 2,
		FacadeColor:      "#C0C0C0",
		GlassColor:       "#87CEEB",
		GlassOpacity:     0.7,
		EnableLouvers:    true,
		LouverSpacing:    2,
		LouverDepth:      0.5,
		LouverColor:      "#A0A0A0",
	}
}

// FloorHeight returns the vertical step between consecutive floors.
func (c Config) FloorHeight() float64 {
	return c.Height / float64(c.Floors)
}

// FloorElevation returns the elevation of floor f's plate.
func (c Config) FloorElevation(f int) float64 {
	return float64(f) * c.FloorHeight()
}

// FloorRotation returns the accumulated rotation of floor f in degrees.
func (c Config) FloorRotation(f int) float64 {
	return float64(f) * c.RotationPerFloor
}

// FloorRotationRad returns FloorRotation in radians.
func (c Config) FloorRotationRad(f int) float64 {
	return ellipse.Radians(c.FloorRotation(f))
}

// Stats are the derived figures shown next to the editing controls.
type Stats struct {
	FloorHeight   float64 `json:"floorHeight"`
	TotalRotation float64 `json:"totalRotation"` // degrees, RotationPerFloor × Floors
	FloorArea     float64 `json:"floorArea"`     // m², exact ellipse area
	AspectRatio   float64 `json:"aspectRatio"`   // MajorAxis / MinorAxis
}

// Stats computes the derived figures for c.
func (c Config) Stats() Stats {
	s := Stats{
		FloorHeight:   c.FloorHeight(),
		TotalRotation: c.RotationPerFloor * float64(c.Floors),
		FloorArea:     ellipse.Area(c.MajorAxis, c.MinorAxis),
	}
	if c.MinorAxis != 0 {
		s.AspectRatio = c.MajorAxis / c.MinorAxis
	} else {
		s.AspectRatio = math.Inf(1)
	}
	return s
}

// Legacy is the backward-compatible view of a Config. It is computed at
// serialization time and never stored, so it cannot drift.
type Legacy struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
	Color string  `json:"color"`
}

// Legacy returns the mirrored width/depth/color fields.
func (c Config) Legacy() Legacy {
	return Legacy{
		Width: c.MajorAxis,
		Depth: c.MinorAxis,
		Color: c.FacadeColor,
	}
}

// wireConfig is the JSON shape: canonical fields plus the legacy view.
type wireConfig struct {
	canonical
	Legacy
}

// canonical breaks the MarshalJSON recursion.
type canonical Config

// MarshalJSON writes the canonical fields together with the legacy mirror.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConfig{canonical: canonical(c), Legacy: c.Legacy()})
}

// UnmarshalJSON reads canonical fields. Documents that only carry the legacy
// width/depth/color fields have them promoted to the canonical ones.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w struct {
		canonical
		Width *float64 `json:"width"`
		Depth *float64 `json:"depth"`
		Color *string  `json:"color"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Config(w.canonical)
	if c.MajorAxis == 0 && w.Width != nil {
		c.MajorAxis = *w.Width
	}
	if c.MinorAxis == 0 && w.Depth != nil {
		c.MinorAxis = *w.Depth
	}
	if c.FacadeColor == "" && w.Color != nil {
		c.FacadeColor = *w.Color
	}
	return nil
}
