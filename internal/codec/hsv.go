package codec

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-augmentation/internal/core"
)

// HSV holds hue, saturation and value planes. Hue spans the full 0..255 ring.
type HSV struct {
	Width  int
	Height int
	H      []uint8
	S      []uint8
	V      []uint8
}

// ToHSV converts the colour channels of img to HSV planes. The alpha plane, if
// any, is returned untouched so FromHSV can restore the original mode.
func ToHSV(img *core.Image) (HSV, []uint8, error) {
	color, alpha := SplitAlpha(ToArray(img))

	bgr, err := matFromBytes(color.Height, color.Width, gocv.MatTypeCV8UC3, color.Pix)
	if err != nil {
		return HSV{}, nil, err
	}
	defer bgr.Close()

	hsvMat := gocv.NewMat()
	defer hsvMat.Close()
	if err := gocv.CvtColor(bgr.Mat(), &hsvMat, gocv.ColorBGRToHSVFull); err != nil {
		return HSV{}, nil, fmt.Errorf("hsv conversion failed: %w", err)
	}

	data := hsvMat.ToBytes()
	n := color.Pixels()
	hsv := HSV{
		Width:  color.Width,
		Height: color.Height,
		H:      make([]uint8, n),
		S:      make([]uint8, n),
		V:      make([]uint8, n),
	}
	for i := 0; i < n; i++ {
		hsv.H[i] = data[i*3]
		hsv.S[i] = data[i*3+1]
		hsv.V[i] = data[i*3+2]
	}
	return hsv, alpha, nil
}

// FromHSV converts HSV planes back to an image of the given mode. alpha must be
// non-nil exactly when mode has an alpha channel.
func FromHSV(hsv HSV, alpha []uint8, mode core.Mode) (*core.Image, error) {
	n := hsv.Width * hsv.Height
	if n <= 0 || len(hsv.H) != n || len(hsv.S) != n || len(hsv.V) != n {
		return nil, fmt.Errorf("hsv planes do not match %dx%d", hsv.Width, hsv.Height)
	}
	if mode.HasAlpha() != (alpha != nil) {
		return nil, fmt.Errorf("alpha plane does not match %s mode", mode)
	}
	if alpha != nil && len(alpha) != n {
		return nil, fmt.Errorf("alpha plane holds %d values, want %d", len(alpha), n)
	}

	data := make([]uint8, n*3)
	for i := 0; i < n; i++ {
		data[i*3] = hsv.H[i]
		data[i*3+1] = hsv.S[i]
		data[i*3+2] = hsv.V[i]
	}

	hsvImg, err := matFromBytes(hsv.Height, hsv.Width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return nil, err
	}
	defer hsvImg.Close()

	bgrMat := gocv.NewMat()
	defer bgrMat.Close()
	if err := gocv.CvtColor(hsvImg.Mat(), &bgrMat, gocv.ColorHSVToBGRFull); err != nil {
		return nil, fmt.Errorf("bgr conversion failed: %w", err)
	}

	color := Array{Width: hsv.Width, Height: hsv.Height, Channels: 3, Pix: bgrMat.ToBytes()}
	return FromArray(MergeAlpha(color, alpha), mode)
}
