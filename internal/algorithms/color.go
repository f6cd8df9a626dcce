// Per-pixel colour transforms over the array and HSV forms
package algorithms

import (
	"math"

	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
)

// NoiseStdDev is the fixed standard deviation of additive noise.
const NoiseStdDev = 25.0

// HueRing is the size of the hue ring; hue shifts wrap modulo this value.
const HueRing = 255

// Gamma applies out = 255*(in/max)^intensity, max being the brightest channel
// value in the image.
type Gamma struct{}

func NewGamma() *Gamma {
	return &Gamma{}
}

func (g *Gamma) Name() string { return core.Gamma }

func (g *Gamma) Description() string {
	return "Power-law correction normalized by the image's brightest channel"
}

func (g *Gamma) Randomized() bool { return false }

func (g *Gamma) Apply(input *core.Image, intensity float64, _ Rand) (*core.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, transformError(g.Name(), err)
	}
	img, err := codec.FromArray(AdjustGamma(codec.ToArray(input), intensity), input.Mode())
	if err != nil {
		return nil, transformError(g.Name(), err)
	}
	return img, nil
}

// AdjustGamma returns a corrected copy of arr. A fully black array has no
// normalization base and is returned unchanged.
func AdjustGamma(arr codec.Array, exponent float64) codec.Array {
	var peak uint8
	for _, v := range arr.Pix {
		if v > peak {
			peak = v
		}
	}
	out := arr.Clone()
	if peak == 0 {
		return out
	}

	var lut [256]uint8
	for v := 0; v <= int(peak); v++ {
		lut[v] = codec.ClipFloat(math.Round(255 * math.Pow(float64(v)/float64(peak), exponent)))
	}
	for i, v := range arr.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// HueShift rotates hue by intensity*255 on the 255-step ring.
type HueShift struct{}

func NewHueShift() *HueShift {
	return &HueShift{}
}

func (h *HueShift) Name() string { return core.Hue }

func (h *HueShift) Description() string {
	return "Hue rotated by intensity*255 modulo 255"
}

func (h *HueShift) Randomized() bool { return false }

func (h *HueShift) Apply(input *core.Image, intensity float64, _ Rand) (*core.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, transformError(h.Name(), err)
	}
	hsv, alpha, err := codec.ToHSV(input)
	if err != nil {
		return nil, transformError(h.Name(), err)
	}
	hsv.H = ShiftHue(hsv.H, HueOffset(intensity))
	img, err := codec.FromHSV(hsv, alpha, input.Mode())
	if err != nil {
		return nil, transformError(h.Name(), err)
	}
	return img, nil
}

// HueOffset converts an intensity to a whole hue step, truncating.
func HueOffset(intensity float64) int {
	return int(intensity * HueRing)
}

// ShiftHue returns (h + offset) mod HueRing for every value of the plane.
func ShiftHue(h []uint8, offset int) []uint8 {
	out := make([]uint8, len(h))
	for i, v := range h {
		s := (int(v) + offset) % HueRing
		if s < 0 {
			s += HueRing
		}
		out[i] = uint8(s)
	}
	return out
}

// GaussianNoise adds N(0, 25) noise to every channel of every pixel.
type GaussianNoise struct{}

func NewGaussianNoise() *GaussianNoise {
	return &GaussianNoise{}
}

func (n *GaussianNoise) Name() string { return core.Noise }

func (n *GaussianNoise) Description() string {
	return "Zero-mean Gaussian noise with standard deviation 25"
}

func (n *GaussianNoise) Randomized() bool { return true }

func (n *GaussianNoise) Apply(input *core.Image, _ float64, rng Rand) (*core.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, transformError(n.Name(), err)
	}
	img, err := codec.FromArray(AddNoise(codec.ToArray(input), rng), input.Mode())
	if err != nil {
		return nil, transformError(n.Name(), err)
	}
	return img, nil
}

// AddNoise accumulates each sample in a signed int before clipping, so large
// negative draws saturate at 0 instead of wrapping.
func AddNoise(arr codec.Array, rng Rand) codec.Array {
	out := arr.Clone()
	for i, v := range arr.Pix {
		sample := int(math.Round(rng.NormFloat64() * NoiseStdDev))
		out.Pix[i] = codec.Clip(int(v) + sample)
	}
	return out
}
