package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Manifest is written next to the exported files.
type Manifest struct {
	SourceDir string   `json:"source_dir"`
	OutputDir string   `json:"output_dir"`
	Exported  int      `json:"exported"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// WriteManifest writes manifest.json with paths relative to the output directory.
func WriteManifest(path, srcDir, outDir string, results []Result) error {
	m := Manifest{SourceDir: srcDir, OutputDir: outDir, Results: make([]Result, len(results))}
	for i, r := range results {
		if r.Success {
			m.Exported++
		} else {
			m.Failed++
		}
		r.Source = relTo(srcDir, r.Source)
		r.Output = relTo(outDir, r.Output)
		r.Texture = relTo(outDir, r.Texture)
		m.Results[i] = r
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func relTo(base, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
