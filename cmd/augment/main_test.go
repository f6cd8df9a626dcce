package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-augmentation/internal/codec"
	"image-augmentation/internal/config"
	"image-augmentation/internal/core"
)

func writeSource(t *testing.T, path string, mode core.Mode) {
	t.Helper()
	arr := codec.NewArray(10, 10, mode.Channels())
	for i := range arr.Pix {
		arr.Pix[i] = uint8((i*17 + 3) % 256)
	}
	img, err := codec.FromArray(arr, mode)
	require.NoError(t, err)
	defer img.Close()

	format := codec.FormatFor(mode, path)
	data, err := codec.NewEncoder(95).Encode(img, format)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRunWritesBothCopies(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "images")
	out := filepath.Join(root, "augmented")
	require.NoError(t, os.MkdirAll(src, 0o755))
	writeSource(t, filepath.Join(src, "photo.jpg"), core.ModeOpaque)
	writeSource(t, filepath.Join(src, "sprite.png"), core.ModeAlpha)

	err := execute(t,
		"--source-dir", src,
		"--output-dir", out,
		"--all",
		"-i", "2",
		"--seed", "5",
		"--log-level", "error",
	)
	require.NoError(t, err)

	for _, path := range []string{
		filepath.Join(src, "original_photo.jpg"),
		filepath.Join(src, "original_sprite.png"),
		filepath.Join(out, "photo_augmented.jpg"),
		filepath.Join(out, "sprite_augmented.png"),
	} {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		img, err := codec.Decode(data)
		require.NoError(t, err, path)
		assert.Equal(t, 10, img.Width(), path)
		assert.Equal(t, 10, img.Height(), path)
		img.Close()
	}
}

func TestRunRejectsIntensityBeforeIO(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "images")
	out := filepath.Join(root, "augmented")
	require.NoError(t, os.MkdirAll(src, 0o755))
	writeSource(t, filepath.Join(src, "a.png"), core.ModeOpaque)

	err := execute(t, "--source-dir", src, "--output-dir", out, "--gamma", "-i", "6.0", "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output directory must not be created")
	_, statErr = os.Stat(filepath.Join(src, "original_a.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunFailsWhenEveryImageFails(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "images")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.png"), []byte("garbage"), 0o644))

	err := execute(t, "--source-dir", src, "--output-dir", filepath.Join(root, "out"), "--blur", "--log-level", "error")
	assert.Error(t, err)
}

func TestRunEmptySourceDirSucceeds(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "images")
	out := filepath.Join(root, "out")

	err := execute(t, "--source-dir", src, "--output-dir", out, "--log-level", "error")
	require.NoError(t, err)

	assert.DirExists(t, src)
	assert.DirExists(t, out)
}

func TestInitLogger(t *testing.T) {
	logger, err := initLogger(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = initLogger(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = initLogger(config.LogConfig{Level: "loud", Format: "text"})
	assert.ErrorIs(t, err, core.ErrValidation)
}
