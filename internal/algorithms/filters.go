// Filter transforms computed by OpenCV
package algorithms

import (
	"image"

	"gocv.io/x/gocv"

	"image-augmentation/internal/core"
)

// GaussianBlur blurs every channel with sigma equal to the intensity.
type GaussianBlur struct{}

// NewGaussianBlur creates the blur transform
func NewGaussianBlur() *GaussianBlur {
	return &GaussianBlur{}
}

func (g *GaussianBlur) Name() string { return core.Blur }

func (g *GaussianBlur) Description() string {
	return "Gaussian blur with radius equal to the intensity"
}

func (g *GaussianBlur) Randomized() bool { return false }

func (g *GaussianBlur) Apply(input *core.Image, intensity float64, _ Rand) (*core.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, transformError(g.Name(), err)
	}

	// A zero kernel size lets OpenCV derive it from sigma.
	output := gocv.NewMat()
	gocv.GaussianBlur(input.Mat(), &output, image.Pt(0, 0), intensity, intensity, gocv.BorderReplicate)

	img, err := core.NewImage(output)
	if err != nil {
		output.Close()
		return nil, transformError(g.Name(), err)
	}
	return img, nil
}
