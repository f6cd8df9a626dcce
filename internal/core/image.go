// Core image data structure shared by the codec, transforms and pipeline
package core

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Mode is the colour mode family of an image.
type Mode int

const (
	// ModeOpaque is a 3-channel BGR image.
	ModeOpaque Mode = iota
	// ModeAlpha is a 4-channel BGRA image.
	ModeAlpha
)

func (m Mode) String() string {
	switch m {
	case ModeOpaque:
		return "opaque"
	case ModeAlpha:
		return "alpha"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Channels returns the number of interleaved channels of the mode.
func (m Mode) Channels() int {
	if m == ModeAlpha {
		return 4
	}
	return 3
}

// HasAlpha reports whether the mode carries an alpha channel.
func (m Mode) HasAlpha() bool {
	return m == ModeAlpha
}

// ModeForChannels maps an 8-bit channel count to its mode.
func ModeForChannels(channels int) (Mode, error) {
	switch channels {
	case 3:
		return ModeOpaque, nil
	case 4:
		return ModeAlpha, nil
	default:
		return 0, fmt.Errorf("unsupported number of channels: %d", channels)
	}
}

// MatType returns the 8-bit OpenCV matrix type of the mode.
func (m Mode) MatType() gocv.MatType {
	if m == ModeAlpha {
		return gocv.MatTypeCV8UC4
	}
	return gocv.MatTypeCV8UC3
}

// Image owns a decoded 8-bit raster. The zero value is not usable; build images
// with NewImage.
type Image struct {
	mat    gocv.Mat
	mode   Mode
	closed bool
}

// NewImage takes ownership of mat. The matrix must be 8-bit with 3 or 4 channels.
func NewImage(mat gocv.Mat) (*Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot wrap empty matrix")
	}
	mode, err := ModeForChannels(mat.Channels())
	if err != nil {
		return nil, err
	}
	if mat.Type() != mode.MatType() {
		return nil, fmt.Errorf("unsupported matrix type: %v", mat.Type())
	}
	return &Image{mat: mat, mode: mode}, nil
}

// Mat returns the underlying matrix. It stays owned by the image.
func (img *Image) Mat() gocv.Mat {
	return img.mat
}

func (img *Image) Mode() Mode {
	return img.mode
}

func (img *Image) Width() int {
	return img.mat.Cols()
}

func (img *Image) Height() int {
	return img.mat.Rows()
}

func (img *Image) Channels() int {
	return img.mat.Channels()
}

// Clone returns an independent deep copy.
func (img *Image) Clone() *Image {
	return &Image{mat: img.mat.Clone(), mode: img.mode}
}

// Close releases the native matrix. Closing twice is safe.
func (img *Image) Close() {
	if img == nil || img.closed {
		return
	}
	img.mat.Close()
	img.closed = true
}

// Validate reports a TransformError for images no transform can work on.
func (img *Image) Validate() error {
	if img == nil || img.closed || img.mat.Empty() {
		return &TransformError{Err: fmt.Errorf("image is empty")}
	}
	if img.Width() <= 0 || img.Height() <= 0 {
		return &TransformError{Err: fmt.Errorf("invalid dimensions: %dx%d", img.Width(), img.Height())}
	}
	return nil
}
