package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// OZT files take priority over OZJ for the same stem (alpha channel).
type Index struct {
	entries map[string]string // stem.lower() -> full path
}

// BuildIndex walks dir and records every loadable image.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !IsImage(path) {
			return nil
		}
		idx.Add(path)
		return nil
	})
	return idx
}

// Add records path under its stem unless a better candidate is already present.
func (idx *Index) Add(path string) {
	stem := stemOf(path)
	existing, exists := idx.entries[stem]
	if !exists || (isExt(path, ".ozt") && isExt(existing, ".ozj")) {
		idx.entries[stem] = path
	}
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Directory prefixes and extensions in texName are ignored.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if texName == "" {
		return "", false
	}
	path, ok := idx.entries[stemOf(strings.ReplaceAll(texName, "\\", "/"))]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
