// Package batch drives the augmentation pipeline over a set of source images.
package batch

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"image-augmentation/internal/algorithms"
	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
	"image-augmentation/internal/metrics"
	"image-augmentation/internal/pipeline"
)

// Item is one source image as supplied by the caller.
type Item struct {
	Name string
	Path string
}

// ArtifactKind tells the sink which of the two outputs it receives.
type ArtifactKind int

const (
	KindOriginal ArtifactKind = iota
	KindAugmented
)

func (k ArtifactKind) String() string {
	if k == KindAugmented {
		return "augmented"
	}
	return "original"
}

// Artifact is an image to persist for an item. The image stays owned by the
// driver and is only valid during Save.
type Artifact struct {
	Item  Item
	Kind  ArtifactKind
	Image *core.Image
}

// Loader reads the encoded bytes of an item.
type Loader interface {
	Load(item Item) ([]byte, error)
}

// Sink persists artifacts. Save is called concurrently for different items
// when more than one worker is configured.
type Sink interface {
	Save(artifact Artifact) error
}

// Options configure a Driver.
type Options struct {
	Pipeline pipeline.Config
	// Workers bounds concurrent items; values below 1 mean sequential.
	Workers int
	// Seed makes random draws repeatable per item when non-zero.
	Seed uint64
}

// ItemResult is the outcome for one item.
type ItemResult struct {
	Item     Item
	Applied  []string
	Metrics  metrics.Report
	Duration time.Duration
	Err      error
}

// Summary collects per-item results in input order.
type Summary struct {
	Results   []ItemResult
	Processed int
	Failed    int
}

// AllFailed reports whether there were items and none succeeded.
func (s *Summary) AllFailed() bool {
	return len(s.Results) > 0 && s.Processed == 0
}

// Driver runs the pipeline for every item and hands results to a Sink.
type Driver struct {
	loader    Loader
	sink      Sink
	pipeline  *pipeline.Pipeline
	evaluator *metrics.Evaluator
	logger    logrus.FieldLogger
	opts      Options
}

func NewDriver(loader Loader, sink Sink, logger logrus.FieldLogger, opts Options) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Driver{
		loader:    loader,
		sink:      sink,
		pipeline:  pipeline.New(logger),
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
		opts:      opts,
	}
}

// Run validates the configuration, then processes every item. A ValidationError
// is returned before any item is loaded. Per-item failures are recorded in the
// summary and never stop the batch. Cancellation is honoured between items.
func (d *Driver) Run(ctx context.Context, items []Item) (*Summary, error) {
	if err := d.opts.Pipeline.Validate(); err != nil {
		d.logger.WithError(err).Error("BATCH: Invalid configuration, nothing processed")
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"items":     len(items),
		"workers":   d.opts.Workers,
		"intensity": d.opts.Pipeline.Intensity,
		"steps":     d.opts.Pipeline.Steps(),
	}).Info("BATCH: Starting")

	results := make([]ItemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, item := range items {
		if gctx.Err() != nil {
			results[i] = ItemResult{Item: item, Err: gctx.Err()}
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = ItemResult{Item: item, Err: gctx.Err()}
				return nil
			}
			results[i] = d.process(item, d.randFor(i))
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{Results: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Processed++
		}
	}

	d.logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
	}).Info("BATCH: Finished")

	return summary, ctx.Err()
}

// randFor gives every item its own source so workers never share one.
func (d *Driver) randFor(index int) algorithms.Rand {
	if d.opts.Seed != 0 {
		return rand.New(rand.NewPCG(d.opts.Seed, uint64(index)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (d *Driver) process(item Item, rng algorithms.Rand) (result ItemResult) {
	start := time.Now()
	result.Item = item
	log := d.logger.WithField("image", item.Name)

	defer func() {
		result.Duration = time.Since(start)
	}()

	data, err := d.loader.Load(item)
	if err != nil {
		result.Err = asIOError(item.Path, err)
		log.WithError(result.Err).Error("BATCH: Failed to read image")
		return result
	}

	img, err := codec.Decode(data)
	if err != nil {
		var de *core.DecodeError
		if errors.As(err, &de) && de.Name == "" {
			de.Name = item.Name
		}
		result.Err = err
		log.WithError(err).Error("BATCH: Failed to decode image")
		return result
	}
	defer img.Close()

	out, err := d.pipeline.Run(img, d.opts.Pipeline, rng)
	if err != nil {
		result.Err = err
		log.WithError(err).Error("BATCH: Failed to augment image")
		return result
	}
	defer out.Close()

	result.Applied = out.Applied
	result.Metrics = d.evaluator.GenerateReport(out.Original, out.Augmented)

	errOriginal := d.sink.Save(Artifact{Item: item, Kind: KindOriginal, Image: out.Original})
	errAugmented := d.sink.Save(Artifact{Item: item, Kind: KindAugmented, Image: out.Augmented})
	if err := errors.Join(errOriginal, errAugmented); err != nil {
		result.Err = asIOError(item.Path, err)
		log.WithError(result.Err).Error("BATCH: Failed to save artifacts")
		return result
	}

	log.WithFields(logrus.Fields{
		"width":    img.Width(),
		"height":   img.Height(),
		"mode":     img.Mode().String(),
		"applied":  out.Applied,
		"psnr":     result.Metrics["psnr"],
		"duration": time.Since(start),
	}).Info("BATCH: Processed and saved")

	return result
}

func asIOError(path string, err error) error {
	if errors.Is(err, core.ErrIO) {
		return err
	}
	return &core.IOError{Path: path, Err: err}
}
