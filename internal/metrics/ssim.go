package metrics

import (
	"gocv.io/x/gocv"

	"image-augmentation/internal/core"
)

// SSIM is the global structural similarity of the two luminance planes
type SSIM struct{}

func NewSSIM() *SSIM { return &SSIM{} }

func (s *SSIM) Calculate(original, processed *core.Image) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	f1, err := luminance32F(original)
	if err != nil {
		return 0, err
	}
	defer f1.Close()
	f2, err := luminance32F(processed)
	if err != nil {
		return 0, err
	}
	defer f2.Close()

	const c1, c2 = 6.5025, 58.5225

	mu1 := f1.Mean().Val1
	mu2 := f2.Mean().Val1

	f1Sq, f2Sq, f1f2 := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer f1Sq.Close()
	defer f2Sq.Close()
	defer f1f2.Close()

	gocv.Multiply(f1, f1, &f1Sq)
	gocv.Multiply(f2, f2, &f2Sq)
	gocv.Multiply(f1, f2, &f1f2)

	sigma1Sq := f1Sq.Mean().Val1 - mu1*mu1
	sigma2Sq := f2Sq.Mean().Val1 - mu2*mu2
	sigma12 := f1f2.Mean().Val1 - mu1*mu2

	num := (2*mu1*mu2 + c1) * (2*sigma12 + c2)
	den := (mu1*mu1 + mu2*mu2 + c1) * (sigma1Sq + sigma2Sq + c2)
	if den == 0 {
		return 1.0, nil
	}
	return num / den, nil
}

// luminance32F returns the gray plane of img as 32-bit float. Alpha is ignored.
func luminance32F(img *core.Image) (gocv.Mat, error) {
	code := gocv.ColorBGRToGray
	if img.Mode().HasAlpha() {
		code = gocv.ColorBGRAToGray
	}
	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(img.Mat(), &gray, code); err != nil {
		return gocv.Mat{}, err
	}
	f := gocv.NewMat()
	gray.ConvertTo(&f, gocv.MatTypeCV32F)
	return f, nil
}

func (s *SSIM) GetName() string        { return "SSIM" }
func (s *SSIM) GetDescription() string { return "Structural similarity of the luminance planes" }
func (s *SSIM) IsHigherBetter() bool   { return true }
