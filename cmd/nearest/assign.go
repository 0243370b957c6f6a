package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/internal/conv"
	"github.com/hupe1980/nearest/pointio"
	"github.com/hupe1980/nearest/prommetrics"
	"github.com/hupe1980/nearest/resource"
)

var errEligibleWithReverse = errors.New("--eligible cannot be combined with --reverse-out")

type assignFlags struct {
	sources         string
	targets         string
	out             string
	reverseOut      string
	compression     string
	workers         int
	eligible        []int
	metricsTextfile string
}

func newAssignCmd(a *app) *cobra.Command {
	var f assignFlags

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign every source point to its nearest target point",
		Long: `Assign loads a source and a target point set and writes, for every source,
the index of the nearest target by Euclidean distance. Ties go to the lower
target index. The result is an index file with one int32 per source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				a.cfg.Workers = f.workers
			}
			if cmd.Flags().Changed("compression") {
				a.cfg.Compression = f.compression
			}
			if err := ValidateConfig(&a.cfg); err != nil {
				return err
			}
			return runAssign(cmd, a, f)
		},
	}

	cmd.Flags().StringVar(&f.sources, "sources", "", "source point set location (required)")
	cmd.Flags().StringVar(&f.targets, "targets", "", "target point set location (required)")
	cmd.Flags().StringVar(&f.out, "out", "", "index file location (required)")
	cmd.Flags().StringVar(&f.reverseOut, "reverse-out", "", "also assign targets to sources and write the indices here")
	cmd.Flags().StringVar(&f.compression, "compression", "", "index file compression: none, lz4, zstd (overrides NEAREST_COMPRESSION)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "goroutines per call, 0 for GOMAXPROCS (overrides NEAREST_WORKERS)")
	cmd.Flags().IntSliceVar(&f.eligible, "eligible", nil, "restrict candidates to these target indices")
	cmd.Flags().StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")

	for _, name := range []string{"sources", "targets", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runAssign(cmd *cobra.Command, a *app, f assignFlags) error {
	ctx := cmd.Context()
	if len(f.eligible) > 0 && f.reverseOut != "" {
		return errEligibleWithReverse
	}

	compression, err := pointio.ParseCompression(a.cfg.Compression)
	if err != nil {
		return err
	}
	eligible, err := eligibleBitmap(f.eligible)
	if err != nil {
		return err
	}

	rc := resource.NewController(a.cfg.Resources)
	opts := []nearest.Option{
		nearest.WithLogger(a.logger),
		nearest.WithResourceController(rc),
		nearest.WithParallelThreshold(a.cfg.ParallelThreshold),
	}
	if a.cfg.Workers > 0 {
		opts = append(opts, nearest.WithParallelism(a.cfg.Workers))
	}

	var reg *prometheus.Registry
	if f.metricsTextfile != "" {
		reg = prometheus.NewRegistry()
		collector, err := prommetrics.New(reg)
		if err != nil {
			return err
		}
		if err := collector.WatchResources(rc); err != nil {
			return err
		}
		opts = append(opts, nearest.WithMetricsCollector(collector))
	}

	start := time.Now()
	sources, err := loadPoints(ctx, a, f.sources, rc)
	if err != nil {
		return err
	}
	targets, err := loadPoints(ctx, a, f.targets, rc)
	if err != nil {
		return err
	}
	a.logger.Info("point sets loaded",
		"sources", len(sources),
		"targets", len(targets),
		"duration", time.Since(start),
	)

	assigner := nearest.New(opts...)

	var indices, reverse []int
	if f.reverseOut != "" {
		indices, reverse, err = assigner.AssignMutual(ctx, sources, targets)
	} else {
		var assignOpts []nearest.AssignOption
		if eligible != nil {
			assignOpts = append(assignOpts, nearest.WithEligibleTargets(eligible))
		}
		indices, err = assigner.Assign(ctx, sources, targets, assignOpts...)
	}
	if err != nil {
		return err
	}

	if err := saveIndices(ctx, a, f.out, indices, compression); err != nil {
		return err
	}
	if f.reverseOut != "" {
		if err := saveIndices(ctx, a, f.reverseOut, reverse, compression); err != nil {
			return err
		}
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(f.metricsTextfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	a.logger.Info("run completed", "duration", time.Since(start))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "assigned %d sources to %d targets -> %s\n", len(sources), len(targets), f.out)
	return err
}

func eligibleBitmap(indices []int) (*roaring.Bitmap, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	bm := roaring.New()
	for _, i := range indices {
		v, err := conv.IntToUint32(i)
		if err != nil {
			return nil, fmt.Errorf("--eligible %d: %w", i, nearest.ErrInvalidInput)
		}
		bm.Add(v)
	}
	return bm, nil
}

func loadPoints(ctx context.Context, a *app, uri string, rc *resource.Controller) ([]nearest.Point3, error) {
	store, name, err := Resolve(ctx, uri, a.cfg)
	if err != nil {
		return nil, err
	}
	points, err := pointio.Load(ctx, store, name, rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	return points, nil
}

func saveIndices(ctx context.Context, a *app, uri string, indices []int, c pointio.Compression) error {
	store, name, err := Resolve(ctx, uri, a.cfg)
	if err != nil {
		return err
	}
	if err := pointio.SaveIndices(ctx, store, name, indices, c); err != nil {
		return fmt.Errorf("save %s: %w", uri, err)
	}
	return nil
}
