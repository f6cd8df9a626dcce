// Concrete implementations of quality metrics
package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
)

// maxPSNR caps PSNR for identical images.
const maxPSNR = 100.0

// MSE implements mean squared error over every channel
type MSE struct{}

// NewMSE creates a new MSE metric
func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed *core.Image) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}
	return meanSquaredError(original.Mat(), processed.Mat())
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) GetDescription() string {
	return "Mean squared error across all channels"
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// meanSquaredError compares in 64-bit float so differences cannot saturate.
func meanSquaredError(orig, proc gocv.Mat) (float64, error) {
	origFloat := gocv.NewMat()
	defer origFloat.Close()
	procFloat := gocv.NewMat()
	defer procFloat.Close()

	orig.ConvertTo(&origFloat, gocv.MatTypeCV64F)
	proc.ConvertTo(&procFloat, gocv.MatTypeCV64F)

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.Subtract(origFloat, procFloat, &diff); err != nil {
		return 0, fmt.Errorf("subtract failed: %w", err)
	}

	samples := float64(orig.Total() * orig.Channels())
	if samples == 0 {
		return 0, fmt.Errorf("empty images")
	}
	norm := gocv.Norm(diff, gocv.NormL2)
	return norm * norm / samples, nil
}

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed *core.Image) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}
	mse, err := meanSquaredError(original.Mat(), processed.Mat())
	if err != nil {
		return 0, err
	}
	return psnrFromMSE(mse), nil
}

func psnrFromMSE(mse float64) float64 {
	if mse < 1e-15 {
		return maxPSNR
	}
	psnr := 20*math.Log10(255.0) - 10*math.Log10(mse)
	if math.IsInf(psnr, 0) || math.IsNaN(psnr) || psnr > maxPSNR {
		return maxPSNR
	}
	if psnr < 0 {
		return 0
	}
	return psnr
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetDescription() string {
	return "Peak Signal-to-Noise Ratio in dB, capped at 100"
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

// ChangedRatio is the fraction of channel values that differ
type ChangedRatio struct{}

func NewChangedRatio() *ChangedRatio {
	return &ChangedRatio{}
}

func (c *ChangedRatio) Calculate(original, processed *core.Image) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}
	a, b := codec.ToArray(original), codec.ToArray(processed)
	changed := 0
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			changed++
		}
	}
	return float64(changed) / float64(len(a.Pix)), nil
}

func (c *ChangedRatio) GetName() string {
	return "Changed ratio"
}

func (c *ChangedRatio) GetDescription() string {
	return "Fraction of channel values changed by augmentation"
}

func (c *ChangedRatio) IsHigherBetter() bool {
	return false
}
