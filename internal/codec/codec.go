// Package codec converts between encoded image bytes, gocv matrices and the
// array and HSV forms the transforms compute on.
package codec

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"

	"image-augmentation/internal/core"
)

// Format is an output container format.
type Format int

const (
	// FormatPNG is lossless and keeps alpha.
	FormatPNG Format = iota
	// FormatJPEG is lossy and opaque only.
	FormatJPEG
)

func (f Format) String() string {
	if f == FormatJPEG {
		return "jpeg"
	}
	return "png"
}

// DefaultJPEGQuality is used when no valid quality is configured.
const DefaultJPEGQuality = 75

// FormatFor applies the save policy: alpha images are always PNG, opaque
// images are JPEG for .jpg/.jpeg destinations and PNG for everything else.
func FormatFor(mode core.Mode, destination string) Format {
	if mode.HasAlpha() {
		return FormatPNG
	}
	lower := strings.ToLower(destination)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return FormatJPEG
	}
	return FormatPNG
}

// Decode turns encoded PNG, JPEG or BMP bytes into an 8-bit BGR or BGRA image.
func Decode(data []byte) (*core.Image, error) {
	if len(data) == 0 {
		return nil, &core.DecodeError{Err: fmt.Errorf("no data")}
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		mat.Close()
		return nil, &core.DecodeError{Err: err}
	}
	if mat.Empty() {
		mat.Close()
		return nil, &core.DecodeError{Err: fmt.Errorf("unsupported or corrupt raster")}
	}

	normalized, err := normalize(mat)
	if err != nil {
		return nil, &core.DecodeError{Err: err}
	}

	img, err := core.NewImage(normalized)
	if err != nil {
		normalized.Close()
		return nil, &core.DecodeError{Err: err}
	}
	return img, nil
}

// normalize converts a decoded matrix to 8-bit depth with 3 or 4 channels. It
// takes ownership of mat.
func normalize(mat gocv.Mat) (gocv.Mat, error) {
	depth := mat.Type() & 7
	if depth != gocv.MatTypeCV8U {
		if depth != gocv.MatTypeCV16U {
			mat.Close()
			return gocv.NewMat(), fmt.Errorf("unsupported sample depth: %v", mat.Type())
		}
		scaled := gocv.NewMat()
		mat.ConvertToWithParams(&scaled, gocv.MatTypeCV8U, 1.0/257.0, 0)
		mat.Close()
		mat = scaled
	}

	switch mat.Channels() {
	case 3, 4:
		return mat, nil
	case 1:
		bgr := gocv.NewMat()
		err := gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
		mat.Close()
		if err != nil {
			bgr.Close()
			return gocv.NewMat(), fmt.Errorf("gray promotion failed: %w", err)
		}
		return bgr, nil
	default:
		channels := mat.Channels()
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported number of channels: %d", channels)
	}
}

// Encoder writes images in a container format.
type Encoder struct {
	JPEGQuality int
}

// NewEncoder returns an encoder; quality outside 1..100 falls back to the default.
func NewEncoder(jpegQuality int) *Encoder {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Encoder{JPEGQuality: jpegQuality}
}

// Encode serializes img. JPEG requests for alpha images are refused; callers
// pick the format with FormatFor.
func (e *Encoder) Encode(img *core.Image, format Format) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	switch format {
	case FormatJPEG:
		if img.Mode().HasAlpha() {
			return nil, fmt.Errorf("jpeg cannot carry alpha")
		}
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, img.Mat(), []int{gocv.IMWriteJpegQuality, e.JPEGQuality})
	default:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, img.Mat())
	}
	if err != nil {
		return nil, fmt.Errorf("%s encoding failed: %w", format, err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
