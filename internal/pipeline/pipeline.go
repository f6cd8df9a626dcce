// Package pipeline applies the enabled transforms to one image in a fixed order.
package pipeline

import (
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"image-augmentation/internal/algorithms"
	"image-augmentation/internal/core"
)

// order is the application order of transforms. It does not depend on which
// toggles are set.
var order = [...]string{
	core.Blur,
	core.Contrast,
	core.Brightness,
	core.Gamma,
	core.Hue,
	core.Saturation,
	core.Noise,
}

// Order returns the fixed application order.
func Order() []string {
	return append([]string(nil), order[:]...)
}

// Config is the immutable per-batch configuration of the pipeline.
type Config struct {
	Toggles   core.Toggles
	Intensity float64
}

// Validate checks the intensity range.
func (c Config) Validate() error {
	return core.ValidateIntensity(c.Intensity)
}

// Steps returns the enabled transforms in application order.
func (c Config) Steps() []string {
	return lo.Filter(order[:], func(name string, _ int) bool {
		return c.Toggles.Enabled(name)
	})
}

// Result holds the two artifacts produced for one source image.
type Result struct {
	Original  *core.Image
	Augmented *core.Image
	Applied   []string
}

// Close releases both images.
func (r *Result) Close() {
	if r == nil {
		return
	}
	r.Original.Close()
	r.Augmented.Close()
}

// Pipeline runs transforms. It holds no per-image state and is safe for
// concurrent use as long as every call has its own Rand.
type Pipeline struct {
	logger logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Run copies src as the original artifact, then feeds a second copy through
// every enabled transform in Order. src is never modified.
func (p *Pipeline) Run(src *core.Image, cfg Config, rng algorithms.Rand) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Original: src.Clone(), Applied: make([]string, 0, len(order))}
	current := src.Clone()

	for _, name := range cfg.Steps() {
		start := time.Now()
		next, err := algorithms.Apply(name, current, cfg.Intensity, rng)
		current.Close()
		if err != nil {
			result.Original.Close()
			p.logger.WithFields(logrus.Fields{
				"transform": name,
				"error":     err,
			}).Debug("PIPELINE: Transform failed")
			return nil, err
		}
		current = next
		result.Applied = append(result.Applied, name)

		p.logger.WithFields(logrus.Fields{
			"transform": name,
			"duration":  time.Since(start),
		}).Debug("PIPELINE: Transform applied")
	}

	result.Augmented = current
	return result, nil
}
