// Package exporter maps output file extensions to the encoders that write them.
package exporter

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"strings"
	"sync"

	"tex-mesh-exporter/internal/model"
	"tex-mesh-exporter/internal/pixfmt"
)

var (
	ErrDuplicate = errors.New("exporter: extension already registered")
	ErrNoHandler = errors.New("exporter: no handler for extension")
	ErrWrongKind = errors.New("exporter: handler cannot write this asset")
)

// Handler is implemented by every registered writer.
type Handler interface {
	Name() string
}

// TextureHandler writes a decoded image or a raw pixel buffer.
type TextureHandler interface {
	Handler
	WriteTexture(img image.Image, w io.Writer) error
	WriteRaw(raw *Raw, w io.Writer) error
}

// ModelHandler writes a model.
type ModelHandler interface {
	Handler
	WriteModel(m *model.Model, w io.Writer) error
}

// Raw is an uncompressed pixel buffer, width*height pixels in Format.
type Raw struct {
	Pixels []byte
	Width  int
	Height int
	Format pixfmt.Format
}

// Asset is the data handed to a handler. Exactly one field is set.
type Asset struct {
	Image image.Image
	Raw   *Raw
	Model *model.Model
}

// Registry is safe for concurrent lookups.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// NormalizeExt lower-cases ext and makes sure it starts with a dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func (r *Registry) Register(ext string, h Handler) error {
	ext = NormalizeExt(ext)
	if ext == "" {
		return fmt.Errorf("exporter: empty extension")
	}
	switch h.(type) {
	case TextureHandler, ModelHandler:
	default:
		return fmt.Errorf("exporter: %s handler %q writes neither textures nor models", ext, h.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.handlers[ext]; ok {
		return fmt.Errorf("%w: %s (%s)", ErrDuplicate, ext, old.Name())
	}
	r.handlers[ext] = h
	return nil
}

func (r *Registry) Lookup(ext string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[NormalizeExt(ext)]
	return h, ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.handlers))
	for ext := range r.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Write dispatches asset to the handler registered for ext.
func (r *Registry) Write(ext string, asset Asset, w io.Writer) error {
	h, ok := r.Lookup(ext)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, ext)
	}

	switch h := h.(type) {
	case TextureHandler:
		switch {
		case asset.Raw != nil:
			return h.WriteRaw(asset.Raw, w)
		case asset.Image != nil:
			return h.WriteTexture(asset.Image, w)
		}
	case ModelHandler:
		if asset.Model != nil {
			return h.WriteModel(asset.Model, w)
		}
	}
	return fmt.Errorf("%w: %s (%s)", ErrWrongKind, ext, h.Name())
}
