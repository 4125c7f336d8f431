package batch

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"tex-mesh-exporter/internal/bmd"
	"tex-mesh-exporter/internal/crypto"
	"tex-mesh-exporter/internal/exporter"
	"tex-mesh-exporter/internal/logging"
	"tex-mesh-exporter/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Registry *exporter.Registry
	Textures texture.Resolver // nil disables exporting textures referenced by models
	Keys     crypto.Keys
	BMD      bmd.Options
	Compress bool
	Workers  int
	Progress io.Writer // progress bar destination, nil for none
}

// Result holds the outcome of processing one job.
type Result struct {
	Source   string `json:"source"`
	Output   string `json:"output,omitempty"`
	Kind     Kind   `json:"kind"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Vertices int    `json:"vertices,omitempty"`
	Indices  int    `json:"indices,omitempty"`
	Meshes   int    `json:"meshes,omitempty"`
	Texture  string `json:"texture,omitempty"` // .tex written for the mesh's texture
	TexError string `json:"texture_error,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Run processes all jobs using a worker pool. Jobs not started before ctx is
// cancelled are reported as failed with the context error.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)

	progress := cfg.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("exporting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(jobs[idx], err.Error())
				} else {
					results[idx] = Process(cfg, jobs[idx])
				}
				bar.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	return results
}

// Process converts a single job.
func Process(cfg Config, job Job) Result {
	switch job.Kind {
	case KindTexture:
		return processTexture(cfg, job)
	case KindMesh:
		return processModel(cfg, job)
	}
	return failed(job, "unknown job kind "+string(job.Kind))
}

func processTexture(cfg Config, job Job) Result {
	img, err := texture.Load(job.Source)
	if err != nil {
		return failed(job, err.Error())
	}

	out, err := exporter.ExportFile(cfg.Registry, exporter.Asset{Image: img}, job.Output, cfg.Compress)
	if err != nil {
		return failed(job, err.Error())
	}

	b := img.Bounds()
	logging.Debug("texture exported", "source", job.Source, "output", out)
	return Result{
		Source:  job.Source,
		Output:  out,
		Kind:    job.Kind,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Success: true,
	}
}

func processModel(cfg Config, job Job) Result {
	m, err := LoadModel(job.Source, cfg.Keys, cfg.BMD)
	if err != nil {
		return failed(job, err.Error())
	}
	mesh, err := m.Primary()
	if err != nil {
		return failed(job, err.Error())
	}

	out, err := exporter.ExportFile(cfg.Registry, exporter.Asset{Model: m}, job.Output, cfg.Compress)
	if err != nil {
		return failed(job, err.Error())
	}

	res := Result{
		Source:   job.Source,
		Output:   out,
		Kind:     job.Kind,
		Vertices: len(mesh.Positions),
		Indices:  len(mesh.Indices),
		Meshes:   len(m.Meshes),
		Success:  true,
	}

	if cfg.Textures != nil && mesh.Texture != "" {
		if tex, err := exportReferencedTexture(cfg, job, mesh.Texture); err != nil {
			res.TexError = err.Error()
		} else {
			res.Texture = tex
		}
	}
	logging.Debug("mesh exported", "source", job.Source, "output", out, "vertices", res.Vertices)
	return res
}

// exportReferencedTexture writes the mesh's texture next to the .mesh file.
// Failures are logged and returned but do not fail the mesh.
func exportReferencedTexture(cfg Config, job Job, ref string) (string, error) {
	path, img, err := cfg.Textures.Resolve(ref)
	switch {
	case errors.Is(err, texture.ErrNotFound):
		logging.Warn("referenced texture not found", "model", job.Source, "texture", ref)
		return "", err
	case err != nil:
		logging.Warn("referenced texture cannot be loaded", "model", job.Source, "texture", path, "err", err)
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dst := filepath.Join(filepath.Dir(job.Output), stem+exporter.TextureExt)
	out, err := exporter.ExportFile(cfg.Registry, exporter.Asset{Image: img}, dst, cfg.Compress)
	if err != nil {
		logging.Warn("referenced texture not exported", "model", job.Source, "texture", path, "err", err)
		return "", err
	}
	return out, nil
}

func failed(job Job, msg string) Result {
	return Result{
		Source: job.Source,
		Output: job.Output,
		Kind:   job.Kind,
		Error:  msg,
	}
}
