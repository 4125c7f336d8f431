package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"tex-mesh-exporter/internal/batch"
	"tex-mesh-exporter/internal/bmd"
	"tex-mesh-exporter/internal/config"
	"tex-mesh-exporter/internal/exporter"
	"tex-mesh-exporter/internal/logging"
	"tex-mesh-exporter/internal/texture"
	"tex-mesh-exporter/internal/watch"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to export.yaml")
	srcDir := flag.String("src", "", "Source directory (default: .)")
	outputDir := flag.String("out", "", "Output directory (default: <src>/export)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	rangePolicy := flag.String("range", "", "Out-of-range mesh values: strict, clamp or wrap (default: strict)")
	maxSize := flag.Int("max-size", 0, "Downsample textures so no side exceeds this")
	compress := flag.Bool("compress", false, "LZ4-frame every output (.lz4 suffix)")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")
	testN := flag.Int("test", 0, "Export only the first N files for testing")
	watchMode := flag.Bool("watch", false, "Keep running and re-export changed sources")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [source files...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		SourceDir:   *srcDir,
		OutputDir:   *outputDir,
		Workers:     *workers,
		MaxSize:     *maxSize,
		RangePolicy: *rangePolicy,
		Compress:    *compress,
		LogLevel:    *logLevel,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	batchCfg, err := newBatchConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	jobs, err := collectJobs(cfg, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(jobs) {
		jobs = jobs[:*testN]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(jobs) == 0 && !*watchMode {
		fmt.Println("Nothing to export.")
		os.Exit(0)
	}

	fmt.Printf("Exporters: %v\n", batchCfg.Registry.Extensions())
	fmt.Printf("Files: %d, Workers: %d, Range: %s\n", len(jobs), cfg.Workers, cfg.RangePolicy)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(ctx, batchCfg, jobs)
	elapsed := time.Since(start)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	failed := report(results)

	if len(results) > 0 {
		manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			logging.Warn("manifest not written", "err", err)
		} else if err := batch.WriteManifest(manifestPath, cfg.SourceDir, cfg.OutputDir, results); err != nil {
			logging.Warn("manifest not written", "err", err)
		} else {
			fmt.Printf("Manifest: %s\n", manifestPath)
		}
	}

	if *watchMode {
		if err := runWatch(ctx, cfg, batchCfg, jobs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func newBatchConfig(cfg config.Config) (batch.Config, error) {
	meshOpts, err := cfg.MeshOptions()
	if err != nil {
		return batch.Config{}, err
	}
	matte, err := cfg.MatteColor()
	if err != nil {
		return batch.Config{}, err
	}
	keys, err := cfg.Keys()
	if err != nil {
		return batch.Config{}, err
	}

	bc := batch.Config{
		Registry: exporter.NewDefault(exporter.Options{
			Mesh:           meshOpts,
			Matte:          matte,
			MaxTextureSize: cfg.MaxTextureSize,
		}),
		Keys:     keys,
		BMD:      bmd.Options{BindPose: cfg.BMDBindPose},
		Compress: cfg.Compress,
		Workers:  cfg.Workers,
		Progress: os.Stderr,
	}
	if !cfg.SkipTextures {
		idx := texture.BuildIndex(cfg.SourceDir)
		logging.Info("textures indexed", "count", idx.Len())
		bc.Textures = texture.NewCache(idx)
	}
	return bc, nil
}

// collectJobs uses explicit file arguments when given, otherwise scans the source dir.
func collectJobs(cfg config.Config, args []string) ([]batch.Job, error) {
	if len(args) == 0 {
		return batch.Scan(cfg.SourceDir, cfg.OutputDir)
	}

	jobs := make([]batch.Job, 0, len(args))
	for _, arg := range args {
		job, ok := batch.NewJob(cfg.SourceDir, cfg.OutputDir, arg)
		if !ok {
			return nil, fmt.Errorf("%s: no exporter for this file type", arg)
		}
		jobs = append(jobs, job)
	}
	if err := batch.Deconflict(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// report prints the summary and returns the number of failures.
func report(results []batch.Result) int {
	var errors []batch.Result
	for _, r := range results {
		if !r.Success {
			errors = append(errors, r)
		}
	}

	fmt.Printf("Exported: %d/%d\n", len(results)-len(errors), len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(errors))
		limit := min(20, len(errors))
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Source, e.Error)
		}
	}
	return len(errors)
}

// runWatch re-exports changed sources. Files from the initial run keep the
// output names they were given there.
func runWatch(ctx context.Context, cfg config.Config, bc batch.Config, jobs []batch.Job) error {
	known := make(map[string]batch.Job, len(jobs))
	for _, j := range jobs {
		known[filepath.Clean(j.Source)] = j
	}
	accept := func(path string) bool {
		_, ok := batch.NewJob(cfg.SourceDir, cfg.OutputDir, path)
		return ok
	}
	changed := func(path string) {
		job, ok := known[filepath.Clean(path)]
		if !ok {
			job, _ = batch.NewJob(cfg.SourceDir, cfg.OutputDir, path)
		}
		if r := batch.Process(bc, job); r.Success {
			logging.Info("re-exported", "source", path, "output", r.Output)
		} else {
			logging.Error("export failed", "source", path, "err", r.Error)
		}
	}

	w, err := watch.New(cfg.SourceDir, cfg.OutputDir, accept, changed)
	if err != nil {
		return err
	}
	logging.Info("watching for changes", "dir", cfg.SourceDir)
	return w.Run(ctx)
}
