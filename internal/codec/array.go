// Array form of images for per-channel arithmetic
package codec

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-augmentation/internal/core"
)

// Array is interleaved 8-bit channel data in BGR(A) order, row-major.
type Array struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewArray allocates a zeroed array.
func NewArray(width, height, channels int) Array {
	return Array{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Pixels returns the number of pixels.
func (a Array) Pixels() int {
	return a.Width * a.Height
}

// Clone returns a deep copy.
func (a Array) Clone() Array {
	out := a
	out.Pix = append([]uint8(nil), a.Pix...)
	return out
}

func (a Array) validate() error {
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("invalid array dimensions: %dx%d", a.Width, a.Height)
	}
	if len(a.Pix) != a.Width*a.Height*a.Channels {
		return fmt.Errorf("array holds %d bytes, want %d", len(a.Pix), a.Width*a.Height*a.Channels)
	}
	return nil
}

// ToArray copies the image's pixel data out of native memory.
func ToArray(img *core.Image) Array {
	mat := img.Mat()
	return Array{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Pix:      mat.ToBytes(),
	}
}

// FromArray builds an image of the given mode from arr. The array is copied.
func FromArray(arr Array, mode core.Mode) (*core.Image, error) {
	if err := arr.validate(); err != nil {
		return nil, err
	}
	if arr.Channels != mode.Channels() {
		return nil, fmt.Errorf("%d channels cannot form a %s image", arr.Channels, mode)
	}
	return matFromBytes(arr.Height, arr.Width, mode.MatType(), arr.Pix)
}

// matFromBytes wraps a byte slice. NewMatFromBytes shares the slice with native
// code, so the result is cloned to own its data.
func matFromBytes(rows, cols int, mt gocv.MatType, data []uint8) (*core.Image, error) {
	shared, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix: %w", err)
	}
	defer shared.Close()

	img, err := core.NewImage(shared.Clone())
	if err != nil {
		return nil, err
	}
	return img, nil
}

// SplitAlpha separates the colour channels from the alpha plane. For opaque
// arrays the alpha plane is nil and color is a copy of arr.
func SplitAlpha(arr Array) (color Array, alpha []uint8) {
	if arr.Channels != 4 {
		return arr.Clone(), nil
	}
	n := arr.Pixels()
	color = NewArray(arr.Width, arr.Height, 3)
	alpha = make([]uint8, n)
	for i := 0; i < n; i++ {
		copy(color.Pix[i*3:i*3+3], arr.Pix[i*4:i*4+3])
		alpha[i] = arr.Pix[i*4+3]
	}
	return color, alpha
}

// MergeAlpha is the inverse of SplitAlpha. A nil alpha returns a copy of color.
func MergeAlpha(color Array, alpha []uint8) Array {
	if alpha == nil {
		return color.Clone()
	}
	n := color.Pixels()
	out := NewArray(color.Width, color.Height, 4)
	for i := 0; i < n; i++ {
		copy(out.Pix[i*4:i*4+3], color.Pix[i*3:i*3+3])
		out.Pix[i*4+3] = alpha[i]
	}
	return out
}

// Luminance returns the ITU-R 601-2 grayscale plane of a 3-channel array.
func Luminance(color Array) ([]uint8, error) {
	if color.Channels != 3 {
		return nil, fmt.Errorf("luminance needs 3 channels, got %d", color.Channels)
	}
	img, err := matFromBytes(color.Height, color.Width, gocv.MatTypeCV8UC3, color.Pix)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(img.Mat(), &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("grayscale conversion failed: %w", err)
	}
	return gray.ToBytes(), nil
}

// Clip saturates v into the 8-bit range.
func Clip(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ClipFloat saturates v into the 8-bit range, truncating the fraction.
func ClipFloat(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
