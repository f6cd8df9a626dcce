// Enhancement transforms: each blends the colour channels with a degenerate
// image and leaves alpha untouched.
package algorithms

import (
	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
)

// minFactor is the lower bound of randomized enhancement factors.
const minFactor = 0.1

// blend returns deg + factor*(src-deg), clipped and truncated to 8 bits.
func blend(deg, src uint8, factor float64) uint8 {
	d := float64(deg)
	return codec.ClipFloat(d + factor*(float64(src)-d))
}

// enhance applies fn to the colour channels of input and restores its alpha.
func enhance(name string, input *core.Image, fn func(color codec.Array) (codec.Array, error)) (*core.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, transformError(name, err)
	}
	color, alpha := codec.SplitAlpha(codec.ToArray(input))
	out, err := fn(color)
	if err != nil {
		return nil, transformError(name, err)
	}
	img, err := codec.FromArray(codec.MergeAlpha(out, alpha), input.Mode())
	if err != nil {
		return nil, transformError(name, err)
	}
	return img, nil
}

// Contrast scales contrast around the mean luminance by a random factor.
type Contrast struct{}

func NewContrast() *Contrast {
	return &Contrast{}
}

func (c *Contrast) Name() string { return core.Contrast }

func (c *Contrast) Description() string {
	return "Contrast scaled by a factor drawn from [0.1, intensity]"
}

func (c *Contrast) Randomized() bool { return true }

func (c *Contrast) Apply(input *core.Image, intensity float64, rng Rand) (*core.Image, error) {
	factor := uniform(rng, minFactor, intensity)
	return enhance(c.Name(), input, func(color codec.Array) (codec.Array, error) {
		return AdjustContrast(color, factor)
	})
}

// AdjustContrast blends color with a flat gray at its rounded mean luminance.
func AdjustContrast(color codec.Array, factor float64) (codec.Array, error) {
	lum, err := codec.Luminance(color)
	if err != nil {
		return codec.Array{}, err
	}
	sum := 0
	for _, v := range lum {
		sum += int(v)
	}
	mean := uint8(float64(sum)/float64(len(lum)) + 0.5)

	out := color.Clone()
	for i, v := range color.Pix {
		out.Pix[i] = blend(mean, v, factor)
	}
	return out, nil
}

// Brightness scales every colour channel by a random factor.
type Brightness struct{}

func NewBrightness() *Brightness {
	return &Brightness{}
}

func (b *Brightness) Name() string { return core.Brightness }

func (b *Brightness) Description() string {
	return "Brightness scaled by a factor drawn from [0.1, intensity]"
}

func (b *Brightness) Randomized() bool { return true }

func (b *Brightness) Apply(input *core.Image, intensity float64, rng Rand) (*core.Image, error) {
	factor := uniform(rng, minFactor, intensity)
	return enhance(b.Name(), input, func(color codec.Array) (codec.Array, error) {
		return AdjustBrightness(color, factor), nil
	})
}

// AdjustBrightness blends color with black.
func AdjustBrightness(color codec.Array, factor float64) codec.Array {
	out := color.Clone()
	for i, v := range color.Pix {
		out.Pix[i] = blend(0, v, factor)
	}
	return out
}

// Saturation scales colour saturation by the intensity itself.
type Saturation struct{}

func NewSaturation() *Saturation {
	return &Saturation{}
}

func (s *Saturation) Name() string { return core.Saturation }

func (s *Saturation) Description() string {
	return "Colour balance enhanced by the intensity"
}

func (s *Saturation) Randomized() bool { return false }

func (s *Saturation) Apply(input *core.Image, intensity float64, _ Rand) (*core.Image, error) {
	return enhance(s.Name(), input, func(color codec.Array) (codec.Array, error) {
		return AdjustSaturation(color, intensity)
	})
}

// AdjustSaturation blends every pixel with its own luminance.
func AdjustSaturation(color codec.Array, factor float64) (codec.Array, error) {
	lum, err := codec.Luminance(color)
	if err != nil {
		return codec.Array{}, err
	}
	out := color.Clone()
	for i, v := range color.Pix {
		out.Pix[i] = blend(lum[i/color.Channels], v, factor)
	}
	return out, nil
}
