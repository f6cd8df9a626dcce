package core

import (
	"fmt"
	"math"
)

// Intensity bounds, inclusive.
const (
	MinIntensity = 0.1
	MaxIntensity = 5.0
)

// Transform names as used by toggles, the registry and configuration keys.
const (
	Blur       = "blur"
	Contrast   = "contrast"
	Brightness = "brightness"
	Gamma      = "gamma"
	Hue        = "hue"
	Saturation = "saturation"
	Noise      = "noise"
)

// ValidateIntensity rejects values outside [MinIntensity, MaxIntensity] and NaN.
func ValidateIntensity(v float64) error {
	if math.IsNaN(v) || v < MinIntensity || v > MaxIntensity {
		return &ValidationError{
			Field: "intensity",
			Err:   fmt.Errorf("%v is outside [%.1f, %.1f]", v, MinIntensity, MaxIntensity),
		}
	}
	return nil
}

// Toggles selects the transforms to run. It carries no ordering.
type Toggles struct {
	Blur       bool
	Contrast   bool
	Brightness bool
	Gamma      bool
	Hue        bool
	Saturation bool
	Noise      bool
}

// AllToggles returns a set with every transform enabled.
func AllToggles() Toggles {
	return Toggles{true, true, true, true, true, true, true}
}

// Enabled reports whether the named transform is switched on. Unknown names are off.
func (t Toggles) Enabled(name string) bool {
	switch name {
	case Blur:
		return t.Blur
	case Contrast:
		return t.Contrast
	case Brightness:
		return t.Brightness
	case Gamma:
		return t.Gamma
	case Hue:
		return t.Hue
	case Saturation:
		return t.Saturation
	case Noise:
		return t.Noise
	}
	return false
}

// FromMap builds a toggle set from name/bool pairs such as configuration keys.
func FromMap(m map[string]bool) (Toggles, error) {
	var t Toggles
	for name, on := range m {
		switch name {
		case Blur:
			t.Blur = on
		case Contrast:
			t.Contrast = on
		case Brightness:
			t.Brightness = on
		case Gamma:
			t.Gamma = on
		case Hue:
			t.Hue = on
		case Saturation:
			t.Saturation = on
		case Noise:
			t.Noise = on
		default:
			return Toggles{}, &ValidationError{Field: "transforms", Err: fmt.Errorf("unknown transform %q", name)}
		}
	}
	return t, nil
}
