package exporter

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"tex-mesh-exporter/internal/logging"
	"tex-mesh-exporter/internal/meshfmt"
	"tex-mesh-exporter/internal/model"
	"tex-mesh-exporter/internal/pixfmt"
	"tex-mesh-exporter/internal/texfmt"
	"tex-mesh-exporter/internal/texture"
)

const (
	TextureExt = ".tex"
	MeshExt    = ".mesh"
)

// Options configures the default handlers.
type Options struct {
	Mesh           meshfmt.Options
	Matte          *color.NRGBA // nil drops alpha
	MaxTextureSize int          // 0 keeps source size
}

// NewDefault returns a registry with the Texture (.tex) and Mesh (.mesh) handlers.
func NewDefault(opts Options) *Registry {
	r := NewRegistry()
	// Fresh registry, cannot collide.
	_ = r.Register(TextureExt, &TextureWriter{Matte: opts.Matte, MaxSize: opts.MaxTextureSize})
	_ = r.Register(MeshExt, &MeshWriter{Options: opts.Mesh})
	return r
}

// TextureWriter writes .tex files.
type TextureWriter struct {
	Matte   *color.NRGBA
	MaxSize int
}

func (*TextureWriter) Name() string { return "Texture" }

// WriteTexture fits img to MaxSize, then encodes it. Images whose memory
// layout pixfmt reads directly go through WriteRaw.
func (tw *TextureWriter) WriteTexture(img image.Image, w io.Writer) error {
	if b := img.Bounds(); tw.MaxSize > 0 && (b.Dx() > tw.MaxSize || b.Dy() > tw.MaxSize) {
		img = texture.Fit(texture.ToNRGBA(img), tw.MaxSize)
	}
	if raw, ok := rawOf(img, tw.Matte); ok {
		return tw.WriteRaw(raw, w)
	}

	data, err := texfmt.EncodeImage(img, tw.Matte)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteRaw converts raw to RGB8. Alpha, if any, is dropped.
func (tw *TextureWriter) WriteRaw(raw *Raw, w io.Writer) error {
	return texfmt.Write(w, raw.Pixels, raw.Width, raw.Height, raw.Format)
}

// rawOf returns img's pixel buffer when it is tightly packed at the origin.
// NRGBA only qualifies without a matte, since the matte needs compositing.
func rawOf(img image.Image, matte *color.NRGBA) (*Raw, bool) {
	var (
		pix    []byte
		stride int
		bpp    int
		format pixfmt.Format
	)
	switch m := img.(type) {
	case *image.NRGBA:
		if matte != nil {
			return nil, false
		}
		pix, stride, bpp, format = m.Pix, m.Stride, 4, pixfmt.RGBA8
	case *image.Gray:
		pix, stride, bpp, format = m.Pix, m.Stride, 1, pixfmt.Gray8
	default:
		return nil, false
	}

	b := img.Bounds()
	if b.Min != (image.Point{}) || stride != b.Dx()*bpp {
		return nil, false
	}
	return &Raw{Pixels: pix, Width: b.Dx(), Height: b.Dy(), Format: format}, true
}

// MeshWriter writes the first mesh of a model as a .mesh file.
type MeshWriter struct {
	Options meshfmt.Options
}

func (*MeshWriter) Name() string { return "Mesh" }

func (mw *MeshWriter) WriteModel(m *model.Model, w io.Writer) error {
	mesh, err := m.Primary()
	if err != nil {
		return err
	}
	if extra := len(m.Meshes) - 1; extra > 0 {
		logging.Warn("only the first mesh is exported", "model", m.Name, "ignored", extra)
	}

	if err := meshfmt.Write(w, mesh, mw.Options); err != nil {
		return fmt.Errorf("%s: %w", mesh.Name, err)
	}
	return nil
}
