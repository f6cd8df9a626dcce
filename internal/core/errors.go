package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks configuration that aborts a whole batch.
	ErrValidation = errors.New("augment: invalid configuration")

	// ErrDecode marks source bytes that are not a supported raster.
	ErrDecode = errors.New("augment: decode failed")

	// ErrTransform marks image content a transform cannot work on.
	ErrTransform = errors.New("augment: transform failed")

	// ErrIO marks artifacts that could not be read or persisted.
	ErrIO = errors.New("augment: i/o failed")
)

// ValidationError is returned before any image is touched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DecodeError wraps a failure to turn bytes into an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// TransformError wraps a failure inside a transform.
type TransformError struct {
	Transform string
	Err       error
}

func (e *TransformError) Error() string {
	if e.Transform == "" {
		return fmt.Sprintf("transform: %v", e.Err)
	}
	return fmt.Sprintf("transform %s: %v", e.Transform, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func (e *TransformError) Is(target error) bool { return target == ErrTransform }

// IOError wraps a failure to read a source or write an artifact.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
