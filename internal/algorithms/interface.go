// Transform registry for the augmentation pipeline
package algorithms

import (
	"errors"
	"fmt"
	"sort"

	"image-augmentation/internal/core"
)

// Rand is the random source randomized transforms draw from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	NormFloat64() float64
}

// Transform is a pure image transform. Apply never mutates input and returns a
// new image owned by the caller.
type Transform interface {
	Name() string
	Description() string
	Randomized() bool
	Apply(input *core.Image, intensity float64, rng Rand) (*core.Image, error)
}

var transforms = make(map[string]Transform)

func Register(t Transform) {
	transforms[t.Name()] = t
}

func Get(name string) (Transform, bool) {
	t, exists := transforms[name]
	return t, exists
}

// Apply runs the named transform.
func Apply(name string, input *core.Image, intensity float64, rng Rand) (*core.Image, error) {
	t, exists := transforms[name]
	if !exists {
		return nil, &core.TransformError{Transform: name, Err: fmt.Errorf("transform not found")}
	}
	return t.Apply(input, intensity, rng)
}

func IsValidTransform(name string) bool {
	_, exists := transforms[name]
	return exists
}

// Names returns the registered transform names, sorted.
func Names() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NewGaussianBlur())
	Register(NewContrast())
	Register(NewBrightness())
	Register(NewGamma())
	Register(NewHueShift())
	Register(NewSaturation())
	Register(NewGaussianNoise())
}

// uniform draws from [lo, hi).
func uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// transformError attributes err to the named transform unless it already is.
func transformError(name string, err error) error {
	var te *core.TransformError
	if errors.As(err, &te) {
		if te.Transform == "" {
			te.Transform = name
		}
		return te
	}
	return &core.TransformError{Transform: name, Err: err}
}
