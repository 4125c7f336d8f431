package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"tex-mesh-exporter/internal/bmd"
	"tex-mesh-exporter/internal/crypto"
	"tex-mesh-exporter/internal/exporter"
	"tex-mesh-exporter/internal/logging"
	"tex-mesh-exporter/internal/model"
	"tex-mesh-exporter/internal/obj"
	"tex-mesh-exporter/internal/texture"
)

// Kind is what a job produces.
type Kind string

const (
	KindTexture Kind = "texture"
	KindMesh    Kind = "mesh"
)

// Job converts one source file.
type Job struct {
	Source string // source file
	Output string // destination, .tex or .mesh
	Kind   Kind
}

// IsModel reports whether path is a model source.
func IsModel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmd", ".obj":
		return true
	}
	return false
}

// NewJob maps a source file under srcDir to its output under outDir,
// keeping the relative directory layout.
func NewJob(srcDir, outDir, path string) (Job, bool) {
	var kind Kind
	var ext string
	switch {
	case IsModel(path):
		kind, ext = KindMesh, exporter.MeshExt
	case texture.IsImage(path):
		kind, ext = KindTexture, exporter.TextureExt
	default:
		return Job{}, false
	}

	rel, err := filepath.Rel(srcDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	out := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
	return Job{Source: path, Output: out, Kind: kind}, true
}

// Scan walks srcDir and returns one job per convertible file, sorted by source.
// Anything under outDir is skipped unless outDir is srcDir itself.
func Scan(srcDir, outDir string) ([]Job, error) {
	absSrc, _ := filepath.Abs(srcDir)
	absOut, _ := filepath.Abs(outDir)

	var jobs []Job
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == absOut && abs != absSrc {
				return filepath.SkipDir
			}
			return nil
		}
		if job, ok := NewJob(srcDir, outDir, path); ok {
			jobs = append(jobs, job)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", srcDir, err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Source < jobs[j].Source })
	if err := Deconflict(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Deconflict renames outputs claimed by more than one source so that each
// keeps its source extension: a.png and a.jpg export to a.png.tex and a.jpg.tex.
// Outputs still shared after renaming are an error.
func Deconflict(jobs []Job) error {
	claims := make(map[string]int, len(jobs))
	for _, j := range jobs {
		claims[filepath.Clean(j.Output)]++
	}
	for i, j := range jobs {
		if claims[filepath.Clean(j.Output)] < 2 {
			continue
		}
		ext := filepath.Ext(j.Output)
		jobs[i].Output = strings.TrimSuffix(j.Output, ext) + strings.ToLower(filepath.Ext(j.Source)) + ext
		logging.Warn("output shared by several sources, keeping the source extension",
			"source", j.Source, "output", jobs[i].Output)
	}

	owner := make(map[string]string, len(jobs))
	for _, j := range jobs {
		key := filepath.Clean(j.Output)
		if other, ok := owner[key]; ok {
			return fmt.Errorf("batch: %s and %s both export to %s", other, j.Source, j.Output)
		}
		owner[key] = j.Source
	}
	return nil
}

// LoadModel reads a .bmd or .obj model.
func LoadModel(path string, keys crypto.Keys, opts bmd.Options) (*model.Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmd":
		return bmd.Parse(path, keys, opts)
	case ".obj":
		return obj.ParseFile(path)
	}
	return nil, fmt.Errorf("batch: %s is not a model", path)
}
