// Batch image augmentation
// Writes an unmodified and a randomly augmented copy of every source image.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"image-augmentation/internal/batch"
	"image-augmentation/internal/codec"
	"image-augmentation/internal/config"
	"image-augmentation/internal/core"
	imageio "image-augmentation/internal/io"
)

const (
	AppName    = "augment"
	AppVersion = "1.0.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFile string
	var debugMode bool

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Write randomly augmented copies of every image in a folder",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			if all, _ := cmd.Flags().GetBool("all"); all {
				cfg.EnableAll()
			}
			if debugMode {
				cfg.Log.Level = "debug"
			}

			logger, err := initLogger(cfg.Log)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "configuration file (yaml, toml or json)")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose logging")
	config.RegisterFlags(flags)
	cobra.CheckErr(config.BindFlags(v, flags))

	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"source_dir": cfg.SourceDir,
		"output_dir": cfg.OutputDir,
	}).Info("Starting image augmentation")

	// Intensity and the rest of the configuration are checked before any I/O.
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("Invalid settings, no images processed")
		return err
	}
	pipelineCfg, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}

	store := imageio.NewImageStore(cfg.SourceDir, cfg.OutputDir, codec.NewEncoder(cfg.JPEGQuality), logger)
	if err := store.EnsureDirs(); err != nil {
		logger.WithError(err).Error("Failed to prepare directories")
		return err
	}
	items, err := store.Discover()
	if err != nil {
		logger.WithError(err).Error("Failed to load images")
		return err
	}

	driver := batch.NewDriver(store, store, logger, batch.Options{
		Pipeline: pipelineCfg,
		Workers:  cfg.Workers,
		Seed:     cfg.Seed,
	})
	summary, err := driver.Run(ctx, items)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			logger.WithError(err).Error("Invalid settings, no images processed")
		} else {
			logger.WithError(err).Warn("Batch interrupted")
		}
		return err
	}
	if summary.AllFailed() {
		err := fmt.Errorf("all %d images failed", summary.Failed)
		logger.WithError(err).Error("Nothing augmented")
		return err
	}

	logger.Info("Image augmentation finished")
	return nil
}

// initLogger initializes the logger with the configured level and format
func initLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, &core.ValidationError{Field: "log.level", Err: err}
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   level == logrus.DebugLevel,
		})
	}
	if level == logrus.DebugLevel {
		logger.Debug("Debug logging enabled")
	}
	return logger, nil
}
