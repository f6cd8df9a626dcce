// Image discovery, loading and saving on the local file system
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"image-augmentation/internal/batch"
	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
)

// OriginalPrefix marks the unmodified copies written next to the sources.
const OriginalPrefix = "original_"

// AugmentedSuffix is appended to the stem of augmented copies.
const AugmentedSuffix = "_augmented"

var supportedFormats = []string{".png", ".jpg", ".jpeg", ".bmp"}

// IsSupportedImageFormat reports whether name has an accepted extension.
func IsSupportedImageFormat(name string) bool {
	return lo.Contains(supportedFormats, strings.ToLower(filepath.Ext(name)))
}

// OriginalName is the file name of the unmodified copy of name.
func OriginalName(name string) string {
	return OriginalPrefix + name
}

// AugmentedName is the file name of the augmented copy of name.
func AugmentedName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + AugmentedSuffix + ext
}

// ImageStore reads sources from SourceDir and writes originals back into it,
// augmented copies into OutputDir.
type ImageStore struct {
	SourceDir string
	OutputDir string
	encoder   *codec.Encoder
	logger    logrus.FieldLogger
}

func NewImageStore(sourceDir, outputDir string, encoder *codec.Encoder, logger logrus.FieldLogger) *ImageStore {
	return &ImageStore{
		SourceDir: sourceDir,
		OutputDir: outputDir,
		encoder:   encoder,
		logger:    logger,
	}
}

// EnsureDirs creates the source and output directories when missing.
func (s *ImageStore) EnsureDirs() error {
	for _, dir := range []string{s.SourceDir, s.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &core.IOError{Path: dir, Err: err}
		}
	}
	return nil
}

// Discover lists supported images in the source directory, sorted by name.
// Directories and copies written by earlier runs are skipped.
func (s *ImageStore) Discover() ([]batch.Item, error) {
	entries, err := os.ReadDir(s.SourceDir)
	if err != nil {
		return nil, &core.IOError{Path: s.SourceDir, Err: err}
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, OriginalPrefix) {
			return "", false
		}
		return name, IsSupportedImageFormat(name)
	})
	sort.Strings(names)

	items := lo.Map(names, func(name string, _ int) batch.Item {
		return batch.Item{Name: name, Path: filepath.Join(s.SourceDir, name)}
	})

	if len(items) == 0 {
		s.logger.WithField("dir", s.SourceDir).Warn("IO: No images found")
	} else {
		s.logger.WithFields(logrus.Fields{
			"dir":    s.SourceDir,
			"images": names,
		}).Info("IO: Found images")
	}
	return items, nil
}

// Load reads the bytes of item.
func (s *ImageStore) Load(item batch.Item) ([]byte, error) {
	s.logger.WithField("filepath", item.Path).Debug("IO: Loading image")

	if !IsSupportedImageFormat(item.Path) {
		return nil, &core.IOError{Path: item.Path, Err: fmt.Errorf("unsupported image format")}
	}
	data, err := os.ReadFile(item.Path)
	if err != nil {
		return nil, &core.IOError{Path: item.Path, Err: err}
	}
	return data, nil
}

// Destination returns where an artifact of the given kind is written.
func (s *ImageStore) Destination(item batch.Item, kind batch.ArtifactKind) string {
	if kind == batch.KindAugmented {
		return filepath.Join(s.OutputDir, AugmentedName(item.Name))
	}
	return filepath.Join(s.SourceDir, OriginalName(item.Name))
}

// Save encodes the artifact per the save policy and writes it atomically.
func (s *ImageStore) Save(artifact batch.Artifact) error {
	path := s.Destination(artifact.Item, artifact.Kind)
	format := codec.FormatFor(artifact.Image.Mode(), path)

	data, err := s.encoder.Encode(artifact.Image, format)
	if err != nil {
		return &core.IOError{Path: path, Err: err}
	}
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"filepath": path,
		"kind":     artifact.Kind.String(),
		"format":   format.String(),
		"width":    artifact.Image.Width(),
		"height":   artifact.Image.Height(),
		"channels": artifact.Image.Channels(),
	}).Debug("IO: Image saved")
	return nil
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &core.IOError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &core.IOError{Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &core.IOError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &core.IOError{Path: path, Err: err}
	}
	return nil
}
