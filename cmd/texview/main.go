package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"tex-mesh-exporter/internal/exporter"
	"tex-mesh-exporter/internal/texfmt"
)

// texview converts exported .tex files back into viewable images.
func main() {
	format := flag.String("format", "png", "Output format: png, webp or tga")
	outDir := flag.String("out", "", "Output directory (default: next to the input)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file.tex [file.tex.lz4 ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	errors := 0
	for _, src := range flag.Args() {
		dst, err := convert(src, *outDir, *format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR %s: %v\n", src, err)
			errors++
			continue
		}
		fmt.Printf("OK  %s -> %s\n", src, dst)
	}
	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
}

func convert(src, outDir, format string) (string, error) {
	if ext := exporter.FormatExt(src); ext != exporter.TextureExt {
		return "", fmt.Errorf("not a %s file", exporter.TextureExt)
	}
	rc, err := exporter.OpenExported(src)
	if err != nil {
		return "", err
	}
	tex, err := texfmt.Read(rc)
	rc.Close()
	if err != nil {
		return "", err
	}

	dst := outputPath(src, outDir, format)
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Printf("    %dx%d, %d bytes\n", tex.Width, tex.Height, texfmt.Size(tex.Width, tex.Height))
	if err := encode(f, tex.Image(), format); err != nil {
		return "", err
	}
	return dst, f.Close()
}

// outputPath swaps the trailing .tex (or .tex.lz4) of src for the preview format.
func outputPath(src, outDir, format string) string {
	base := filepath.Base(src)
	if strings.EqualFold(filepath.Ext(base), exporter.CompressedExt) {
		base = base[:len(base)-len(exporter.CompressedExt)]
	}
	stem := base[:len(base)-len(filepath.Ext(base))]
	if outDir == "" {
		outDir = filepath.Dir(src)
	}
	return filepath.Join(outDir, stem+"."+format)
}

func encode(f *os.File, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(f, img)
	case "webp":
		return nativewebp.Encode(f, img, nil)
	case "tga":
		return tga.Encode(f, img)
	}
	return fmt.Errorf("unknown format %q", format)
}
