package exporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// CompressedExt is appended to outputs written with Options.Compress.
const CompressedExt = ".lz4"

// ExportFile encodes asset with the handler for dst's extension and writes it
// atomically: the file only appears once the whole encoding succeeded.
// When compress is set the output is LZ4-framed and ".lz4" is appended to dst.
// It returns the path actually written.
func ExportFile(r *Registry, asset Asset, dst string, compress bool) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(filepath.Ext(dst), asset, &buf); err != nil {
		return "", err
	}

	data := buf.Bytes()
	if compress {
		var zbuf bytes.Buffer
		zw := lz4.NewWriter(&zbuf)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return "", fmt.Errorf("exporter: lz4: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return "", fmt.Errorf("exporter: lz4: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("exporter: lz4: %w", err)
		}
		data = zbuf.Bytes()
		dst += CompressedExt
	}

	if err := writeAtomic(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

func writeAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("exporter: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("exporter: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("exporter: write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exporter: write %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("exporter: %w", err)
	}
	return nil
}

type lz4File struct {
	io.Reader
	f *os.File
}

func (z *lz4File) Close() error { return z.f.Close() }

// OpenExported opens an exported file for reading, undoing LZ4 framing when
// the name ends in ".lz4".
func OpenExported(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), CompressedExt) {
		return &lz4File{Reader: lz4.NewReader(f), f: f}, nil
	}
	return f, nil
}

// FormatExt returns the format extension of path, looking through a ".lz4" suffix.
func FormatExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), CompressedExt) {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return NormalizeExt(filepath.Ext(path))
}
