package building

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

// Range is the bounded interval an editing control allows for one field.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Clamp limits v to [r.Min, r.Max].
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Ranges lists the slider bounds of every numeric field, keyed by JSON name.
var Ranges = map[string]Range{
	FieldMajorAxis:        {Min: 10, Max: 60, Step: 2},
	FieldMinorAxis:        {Min: 8, Max: 50, Step: 2},
	FieldHeight:           {Min: 50, Max: 300, Step: 5},
	FieldFloors:           {Min: 10, Max: 80, Step: 1},
	FieldRotationPerFloor: {Min: 0, Max: 10, Step: 0.5},
	FieldGlassOpacity:     {Min: 0.1, Max: 1.0, Step: 0.1},
	FieldLouverSpacing:    {Min: 1, Max: 8, Step: 1},
	FieldLouverDepth:      {Min: 0.2, Max: 2.0, Step: 0.1},
}

// Field names accepted by Set, matching the JSON keys.
const (
	FieldMajorAxis        = "majorAxis"
	FieldMinorAxis        = "minorAxis"
	FieldHeight           = "height"
	FieldFloors           = "floors"
	FieldRotationPerFloor = "rotationPerFloor"
	FieldFacadeColor      = "facadeColor"
	FieldGlassColor       = "glassColor"
	FieldGlassOpacity     = "glassOpacity"
	FieldEnableLouvers    = "enableLouvers"
	FieldLouverSpacing    = "louverSpacing"
	FieldLouverDepth      = "louverDepth"
	FieldLouverColor      = "louverColor"

	// Legacy aliases write through to their canonical field.
	FieldWidth = "width"
	FieldDepth = "depth"
	FieldColor = "color"
)

// Editing errors.
var (
	ErrUnknownField  = errors.New("building: unknown field")
	ErrInvalidValue  = errors.New("building: invalid value")
	ErrInvalidColor  = errors.New("building: invalid color, expected #RRGGBB")
	ErrOutOfRange    = errors.New("building: value out of range")
	ErrNonPositive   = errors.New("building: value must be positive")
	ErrNoFloors      = errors.New("building: floors must be at least 1")
	ErrLouverSpacing = errors.New("building: louver spacing must be at least 1")
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidColor reports whether s is a #RRGGBB color.
func IsValidColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Clamp returns c with every numeric field limited to its slider range.
// Invalid colors are replaced by the defaults.
func Clamp(c Config) Config {
	c.MajorAxis = Ranges[FieldMajorAxis].Clamp(c.MajorAxis)
	c.MinorAxis = Ranges[FieldMinorAxis].Clamp(c.MinorAxis)
	c.Height = Ranges[FieldHeight].Clamp(c.Height)
	c.Floors = int(Ranges[FieldFloors].Clamp(float64(c.Floors)))
	c.RotationPerFloor = Ranges[FieldRotationPerFloor].Clamp(c.RotationPerFloor)
	c.GlassOpacity = Ranges[FieldGlassOpacity].Clamp(c.GlassOpacity)
	c.LouverSpacing = int(Ranges[FieldLouverSpacing].Clamp(float64(c.LouverSpacing)))
	c.LouverDepth = Ranges[FieldLouverDepth].Clamp(c.LouverDepth)

	def := Default()
	if !IsValidColor(c.FacadeColor) {
		c.FacadeColor = def.FacadeColor
	}
	if !IsValidColor(c.GlassColor) {
		c.GlassColor = def.GlassColor
	}
	if !IsValidColor(c.LouverColor) {
		c.LouverColor = def.LouverColor
	}
	return c
}

// Validate checks the preconditions the geometry relies on. The geometry
// itself does not check them; the editing layer calls Validate (or Clamp)
// before handing a Config over. Out-of-range values that are still
// geometrically sound are reported with ErrOutOfRange.
func Validate(c Config) []error {
	var errs []error

	positive := []struct {
		field string
		v     float64
	}{
		{FieldMajorAxis, c.MajorAxis},
		{FieldMinorAxis, c.MinorAxis},
		{FieldHeight, c.Height},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			errs = append(errs, fmt.Errorf("%w: %s = %g", ErrNonPositive, p.field, p.v))
		}
	}
	if c.Floors < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrNoFloors, c.Floors))
	}
	if c.EnableLouvers {
		if c.LouverSpacing < 1 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrLouverSpacing, c.LouverSpacing))
		}
		if !(c.LouverDepth > 0) {
			errs = append(errs, fmt.Errorf("%w: %s = %g", ErrNonPositive, FieldLouverDepth, c.LouverDepth))
		}
	}

	colors := []struct {
		field string
		v     string
	}{
		{FieldFacadeColor, c.FacadeColor},
		{FieldGlassColor, c.GlassColor},
		{FieldLouverColor, c.LouverColor},
	}
	for _, col := range colors {
		if !IsValidColor(col.v) {
			errs = append(errs, fmt.Errorf("%w: %s = %q", ErrInvalidColor, col.field, col.v))
		}
	}

	if len(errs) > 0 {
		return errs
	}

	values := map[string]float64{
		FieldMajorAxis:        c.MajorAxis,
		FieldMinorAxis:        c.MinorAxis,
		FieldHeight:           c.Height,
		FieldFloors:           float64(c.Floors),
		FieldRotationPerFloor: c.RotationPerFloor,
		FieldGlassOpacity:     c.GlassOpacity,
		FieldLouverSpacing:    float64(c.LouverSpacing),
		FieldLouverDepth:      c.LouverDepth,
	}
	for _, name := range sortedFields {
		if r := Ranges[name]; !r.Contains(values[name]) {
			errs = append(errs, fmt.Errorf("%w: %s = %g, want [%g, %g]", ErrOutOfRange, name, values[name], r.Min, r.Max))
		}
	}
	return errs
}

// sortedFields fixes the order Validate reports range errors in.
var sortedFields = []string{
	FieldMajorAxis,
	FieldMinorAxis,
	FieldHeight,
	FieldFloors,
	FieldRotationPerFloor,
	FieldGlassOpacity,
	FieldLouverSpacing,
	FieldLouverDepth,
}

// IsPrecondition reports whether err means the geometry cannot be built,
// as opposed to a value that is merely outside its slider range.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNonPositive) || errors.Is(err, ErrNoFloors) ||
		errors.Is(err, ErrLouverSpacing) || errors.Is(err, ErrInvalidColor)
}

// Set returns a copy of c with one field replaced, the way a single control
// edit replaces the whole Config. Numeric values are clamped to the field's
// range; colors must be #RRGGBB.
func Set(c Config, field string, value any) (Config, error) {
	switch field {
	case FieldWidth:
		field = FieldMajorAxis
	case FieldDepth:
		field = FieldMinorAxis
	case FieldColor:
		field = FieldFacadeColor
	}

	switch field {
	case FieldFacadeColor, FieldGlassColor, FieldLouverColor:
		s, ok := value.(string)
		if !ok || !IsValidColor(s) {
			return c, fmt.Errorf("%w: %s = %v", ErrInvalidColor, field, value)
		}
		switch field {
		case FieldFacadeColor:
			c.FacadeColor = s
		case FieldGlassColor:
			c.GlassColor = s
		default:
			c.LouverColor = s
		}
		return c, nil

	case FieldEnableLouvers:
		b, ok := value.(bool)
		if !ok {
			return c, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, field, value)
		}
		c.EnableLouvers = b
		return c, nil
	}

	r, ok := Ranges[field]
	if !ok {
		return c, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	f, err := toFloat(value)
	if err != nil {
		return c, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	f = r.Clamp(f)

	switch field {
	case FieldMajorAxis:
		c.MajorAxis = f
	case FieldMinorAxis:
		c.MinorAxis = f
	case FieldHeight:
		c.Height = f
	case FieldFloors:
		c.Floors = int(math.Round(f))
	case FieldRotationPerFloor:
		c.RotationPerFloor = f
	case FieldGlassOpacity:
		c.GlassOpacity = f
	case FieldLouverSpacing:
		c.LouverSpacing = int(math.Round(f))
	case FieldLouverDepth:
		c.LouverDepth = f
	}
	return c, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
