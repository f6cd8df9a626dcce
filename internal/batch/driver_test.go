package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
	"image-augmentation/internal/pipeline"
)

type memoryLoader struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int
}

func (l *memoryLoader) Load(item Item) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	data, ok := l.files[item.Path]
	if !ok {
		return nil, fmt.Errorf("no such file")
	}
	return data, nil
}

type saved struct {
	mode core.Mode
	arr  codec.Array
}

type memorySink struct {
	mu      sync.Mutex
	saved   map[string]saved
	failFor string
}

func newMemorySink() *memorySink {
	return &memorySink{saved: make(map[string]saved)}
}

func (s *memorySink) Save(a Artifact) error {
	if a.Item.Name == s.failFor && a.Kind == KindAugmented {
		return &core.IOError{Path: a.Item.Name, Err: errors.New("disk full")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[a.Kind.String()+"/"+a.Item.Name] = saved{mode: a.Image.Mode(), arr: codec.ToArray(a.Image)}
	return nil
}

func encodePNG(t *testing.T, width, height int, mode core.Mode) ([]byte, codec.Array) {
	t.Helper()
	arr := codec.NewArray(width, height, mode.Channels())
	for i := range arr.Pix {
		arr.Pix[i] = uint8((i*31 + 5) % 256)
	}
	img, err := codec.FromArray(arr, mode)
	require.NoError(t, err)
	defer img.Close()
	data, err := codec.NewEncoder(0).Encode(img, codec.FormatPNG)
	require.NoError(t, err)
	return data, arr
}

func newLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestRunAbortsOnInvalidIntensity(t *testing.T) {
	data, _ := encodePNG(t, 4, 4, core.ModeOpaque)
	loader := &memoryLoader{files: map[string][]byte{"a.png": data}}
	sink := newMemorySink()

	driver := NewDriver(loader, sink, newLogger(), Options{
		Pipeline: pipeline.Config{Toggles: core.AllToggles(), Intensity: 6.0},
	})
	summary, err := driver.Run(context.Background(), []Item{{Name: "a.png", Path: "a.png"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Nil(t, summary)
	assert.Zero(t, loader.calls, "nothing may be loaded")
	assert.Empty(t, sink.saved)
}

func TestRunContrastScenario(t *testing.T) {
	data, arr := encodePNG(t, 10, 10, core.ModeOpaque)
	loader := &memoryLoader{files: map[string][]byte{"a.png": data}}
	sink := newMemorySink()

	driver := NewDriver(loader, sink, newLogger(), Options{
		Pipeline: pipeline.Config{Toggles: core.Toggles{Contrast: true}, Intensity: 2.0},
		Seed:     42,
	})
	summary, err := driver.Run(context.Background(), []Item{{Name: "a.png", Path: "a.png"}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, []string{"contrast"}, summary.Results[0].Applied)
	assert.Contains(t, summary.Results[0].Metrics, "psnr")

	original := sink.saved["original/a.png"]
	augmented := sink.saved["augmented/a.png"]
	assert.Equal(t, arr, original.arr)
	assert.Equal(t, core.ModeOpaque, augmented.mode)
	assert.Equal(t, 10, augmented.arr.Width)
	assert.Equal(t, 10, augmented.arr.Height)
	assert.NotEqual(t, arr, augmented.arr)
}

func TestRunIsolatesFailures(t *testing.T) {
	good, _ := encodePNG(t, 5, 5, core.ModeOpaque)
	loader := &memoryLoader{files: map[string][]byte{
		"good.png":    good,
		"broken.png":  []byte("not an image"),
		"full.png":    good,
		"another.png": good,
	}}
	sink := newMemorySink()
	sink.failFor = "full.png"

	items := []Item{
		{Name: "broken.png", Path: "broken.png"},
		{Name: "missing.png", Path: "missing.png"},
		{Name: "good.png", Path: "good.png"},
		{Name: "full.png", Path: "full.png"},
		{Name: "another.png", Path: "another.png"},
	}
	driver := NewDriver(loader, sink, newLogger(), Options{
		Pipeline: pipeline.Config{Toggles: core.Toggles{Blur: true}, Intensity: 1},
	})
	summary, err := driver.Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 3, summary.Failed)
	assert.False(t, summary.AllFailed())

	results := summary.Results
	require.Len(t, results, len(items))
	for i, item := range items {
		assert.Equal(t, item, results[i].Item, "results keep input order")
	}
	assert.True(t, errors.Is(results[0].Err, core.ErrDecode))
	var de *core.DecodeError
	require.True(t, errors.As(results[0].Err, &de))
	assert.Equal(t, "broken.png", de.Name)
	assert.True(t, errors.Is(results[1].Err, core.ErrIO))
	assert.NoError(t, results[2].Err)
	assert.True(t, errors.Is(results[3].Err, core.ErrIO))
	assert.NoError(t, results[4].Err)

	assert.Contains(t, sink.saved, "augmented/good.png")
	assert.Contains(t, sink.saved, "augmented/another.png")
}

func TestRunAlphaWithNoiseKeepsChannels(t *testing.T) {
	data, _ := encodePNG(t, 6, 6, core.ModeAlpha)
	loader := &memoryLoader{files: map[string][]byte{"sprite.png": data}}
	sink := newMemorySink()

	driver := NewDriver(loader, sink, newLogger(), Options{
		Pipeline: pipeline.Config{Toggles: core.Toggles{Noise: true}, Intensity: 1},
	})
	summary, err := driver.Run(context.Background(), []Item{{Name: "sprite.png", Path: "sprite.png"}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)

	augmented := sink.saved["augmented/sprite.png"]
	assert.Equal(t, core.ModeAlpha, augmented.mode)
	assert.Equal(t, 4, augmented.arr.Channels)
}

func TestRunConcurrentMatchesSequentialWithSeed(t *testing.T) {
	files := make(map[string][]byte)
	var items []Item
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("img%d.png", i)
		files[name], _ = encodePNG(t, 7, 5, core.ModeOpaque)
		items = append(items, Item{Name: name, Path: name})
	}
	cfg := pipeline.Config{Toggles: core.AllToggles(), Intensity: 1.5}

	run := func(workers int) *memorySink {
		sink := newMemorySink()
		driver := NewDriver(&memoryLoader{files: files}, sink, newLogger(), Options{
			Pipeline: cfg,
			Workers:  workers,
			Seed:     9,
		})
		summary, err := driver.Run(context.Background(), items)
		require.NoError(t, err)
		require.Equal(t, len(items), summary.Processed)
		return sink
	}

	sequential := run(1)
	concurrent := run(4)
	assert.Equal(t, sequential.saved, concurrent.saved)
}

func TestRunStopsBetweenItemsWhenCancelled(t *testing.T) {
	data, _ := encodePNG(t, 3, 3, core.ModeOpaque)
	loader := &memoryLoader{files: map[string][]byte{"a.png": data, "b.png": data}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := NewDriver(loader, newMemorySink(), newLogger(), Options{
		Pipeline: pipeline.Config{Intensity: 1},
	})
	summary, err := driver.Run(ctx, []Item{{Name: "a.png", Path: "a.png"}, {Name: "b.png", Path: "b.png"}})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.AllFailed())
	assert.Zero(t, loader.calls)
}
