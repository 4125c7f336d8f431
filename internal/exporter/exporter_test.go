package exporter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"tex-mesh-exporter/internal/meshfmt"
	"tex-mesh-exporter/internal/model"
	"tex-mesh-exporter/internal/pixfmt"
	"tex-mesh-exporter/internal/texfmt"
)

func testModel() *model.Model {
	return &model.Model{Name: "tri", Meshes: []model.Mesh{
		{Name: "first", Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Indices: []uint32{0, 1, 2}},
		{Name: "ignored", Positions: []mgl32.Vec3{{9, 9, 9}}},
	}}
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	return img
}

type noopHandler struct{}

func (noopHandler) Name() string { return "noop" }

func TestRegistry(t *testing.T) {
	r := NewDefault(Options{})
	if got := r.Extensions(); len(got) != 2 || got[0] != ".mesh" || got[1] != ".tex" {
		t.Errorf("default extensions should be [.mesh .tex], got %v", got)
	}

	h, ok := r.Lookup("TEX")
	if !ok || h.Name() != "Texture" {
		t.Errorf("TEX should resolve to the Texture handler, got %v %v", h, ok)
	}
	if h, ok := r.Lookup(".mesh"); !ok || h.Name() != "Mesh" {
		t.Errorf(".mesh should resolve to the Mesh handler, got %v %v", h, ok)
	}

	if err := r.Register(".Tex", &TextureWriter{}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("re-registering .tex should fail with ErrDuplicate, got %v", err)
	}
	if err := r.Register(".x", noopHandler{}); err == nil {
		t.Error("handler without a write method should be rejected")
	}
	if err := r.Register("", &MeshWriter{}); err == nil {
		t.Error("empty extension should be rejected")
	}
}

func TestWriteDispatch(t *testing.T) {
	r := NewDefault(Options{})

	var buf bytes.Buffer
	if err := r.Write(".mesh", Asset{Model: testModel()}, &buf); err != nil {
		t.Fatal(err)
	}
	d, err := meshfmt.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Positions) != 3 || len(d.Indices) != 3 {
		t.Errorf("only the first mesh should be written, got %d positions", len(d.Positions))
	}

	buf.Reset()
	if err := r.Write(".tex", Asset{Image: testImage()}, &buf); err != nil {
		t.Fatal(err)
	}
	tex, err := texfmt.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 2 || !bytes.Equal(tex.Pix[:3], []byte{1, 2, 3}) {
		t.Errorf("unexpected texture %dx%d %v", tex.Width, tex.Height, tex.Pix[:3])
	}

	if err := r.Write(".tex", Asset{Model: testModel()}, io.Discard); !errors.Is(err, ErrWrongKind) {
		t.Errorf("model to .tex should fail with ErrWrongKind, got %v", err)
	}
	if err := r.Write(".png", Asset{Image: testImage()}, io.Discard); !errors.Is(err, ErrNoHandler) {
		t.Errorf(".png should fail with ErrNoHandler, got %v", err)
	}
	if err := r.Write(".mesh", Asset{Model: &model.Model{}}, io.Discard); err == nil {
		t.Error("model without meshes should fail")
	}
}

func TestTextureWriterFit(t *testing.T) {
	r := NewDefault(Options{MaxTextureSize: 1})
	var buf bytes.Buffer
	if err := r.Write(".tex", Asset{Image: testImage()}, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != texfmt.Size(1, 1) {
		t.Errorf("2x2 fitted to 1 should encode as 1x1, got %d bytes", buf.Len())
	}
}

func TestTextureWriterFitAnyImage(t *testing.T) {
	r := NewDefault(Options{MaxTextureSize: 2})
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	var buf bytes.Buffer
	if err := r.Write(".tex", Asset{Image: src}, &buf); err != nil {
		t.Fatal(err)
	}
	tex, err := texfmt.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 2 || tex.Height != 1 {
		t.Errorf("4x2 RGBA fitted to 2 should be 2x1, got %dx%d", tex.Width, tex.Height)
	}
}

func TestWriteRaw(t *testing.T) {
	r := NewDefault(Options{})

	var buf bytes.Buffer
	raw := &Raw{Pixels: []byte{3, 2, 1, 6, 5, 4}, Width: 2, Height: 1, Format: pixfmt.BGR8}
	if err := r.Write(".tex", Asset{Raw: raw}, &buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{2, 0, 1, 0, 1, 2, 3, 4, 5, 6}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("raw BGR8 should encode as % x, got % x", want, buf.Bytes())
	}

	tests := []struct {
		name  string
		raw   *Raw
		cause error
	}{
		{"short buffer", &Raw{Pixels: make([]byte, 5), Width: 2, Height: 1, Format: pixfmt.RGBA8}, pixfmt.ErrShortBuffer},
		{"unknown format", &Raw{Pixels: make([]byte, 8), Width: 2, Height: 1}, pixfmt.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		buf.Reset()
		err := r.Write(".tex", Asset{Raw: tt.raw}, &buf)
		if !errors.Is(err, texfmt.ErrPixelConversion) || !errors.Is(err, tt.cause) {
			t.Errorf("%s: error should wrap ErrPixelConversion and %v, got %v", tt.name, tt.cause, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: failed conversion wrote %d bytes", tt.name, buf.Len())
		}
	}
}

// Packed NRGBA takes the raw path; a matte or a sub-image falls back to
// compositing. Both must agree on the output.
func TestTextureWriterPaths(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	if _, ok := rawOf(img, nil); !ok {
		t.Error("packed NRGBA without matte should use the raw path")
	}
	if _, ok := rawOf(img, &color.NRGBA{A: 255}); ok {
		t.Error("matte needs compositing, raw path should be refused")
	}
	sub := img.SubImage(image.Rect(1, 1, 2, 2))
	if _, ok := rawOf(sub, nil); ok {
		t.Error("sub-image off the origin should not use the raw path")
	}

	encode := func(opts Options, src image.Image) *texfmt.Texture {
		t.Helper()
		var buf bytes.Buffer
		if err := NewDefault(opts).Write(".tex", Asset{Image: src}, &buf); err != nil {
			t.Fatal(err)
		}
		tex, err := texfmt.Decode(buf.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		return tex
	}

	plain := encode(Options{}, img)
	if !bytes.Equal(plain.Pix[:3], []byte{200, 100, 50}) {
		t.Errorf("alpha should be dropped keeping straight colour, got %v", plain.Pix[:3])
	}
	matted := encode(Options{Matte: &color.NRGBA{A: 255}}, img)
	if matted.Pix[0] != 100 || !bytes.Equal(matted.Pix[9:12], []byte{10, 20, 30}) {
		t.Errorf("black matte should halve the translucent pixel and keep opaque ones, got %v", matted.Pix)
	}
	if got := encode(Options{}, sub); !bytes.Equal(got.Pix, []byte{10, 20, 30}) {
		t.Errorf("sub-image should encode its own pixel, got %v", got.Pix)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	if got := encode(Options{}, gray); !bytes.Equal(got.Pix, []byte{77, 77, 77}) {
		t.Errorf("gray should expand to RGB, got %v", got.Pix)
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	r := NewDefault(Options{})

	dst := filepath.Join(dir, "out", "tri.mesh")
	got, err := ExportFile(r, Asset{Model: testModel()}, dst, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != dst {
		t.Errorf("written path should be %s, got %s", dst, got)
	}
	rc, err := OpenExported(got)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != meshfmt.Size(3, 3) {
		t.Errorf("mesh file should be %d bytes, got %d", meshfmt.Size(3, 3), len(data))
	}

	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != 1 {
		t.Errorf("temp files should be cleaned up, found %d entries", len(entries))
	}
}

func TestExportFileCompressed(t *testing.T) {
	dir := t.TempDir()
	r := NewDefault(Options{})

	got, err := ExportFile(r, Asset{Image: testImage()}, filepath.Join(dir, "crate.tex"), true)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "crate.tex.lz4" {
		t.Errorf("compressed output should end in .tex.lz4, got %s", got)
	}
	if FormatExt(got) != ".tex" {
		t.Errorf("format of %s should be .tex, got %s", got, FormatExt(got))
	}

	rc, err := OpenExported(got)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	tex, err := texfmt.Read(rc)
	if err != nil {
		t.Fatalf("decompressed texture should decode: %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Errorf("decompressed texture should be 2x2, got %dx%d", tex.Width, tex.Height)
	}
}

func TestExportFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	r := NewDefault(Options{})
	bad := &model.Model{Meshes: []model.Mesh{{Positions: []mgl32.Vec3{{-5, 0, 0}}}}}

	dst := filepath.Join(dir, "bad.mesh")
	if _, err := ExportFile(r, Asset{Model: bad}, dst, false); !errors.Is(err, meshfmt.ErrValueOutOfRange) {
		t.Fatalf("negative coordinate should fail strict export, got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("failed export must not leave a file")
	}
}
