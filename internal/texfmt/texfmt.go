// Package texfmt reads and writes .tex textures: a uint16 width, a uint16 height
// and width*height packed RGB8 pixels, all little-endian.
package texfmt

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"tex-mesh-exporter/internal/binio"
	"tex-mesh-exporter/internal/pixfmt"
)

const (
	HeaderSize = 4
	MaxSide    = 0xFFFF
)

var (
	ErrInvalidDimensions = errors.New("tex: invalid dimensions")
	ErrPixelConversion   = errors.New("tex: pixel conversion failed")
	ErrTruncated         = errors.New("tex: truncated data")
	ErrTrailingData      = errors.New("tex: trailing data")
)

// Texture is a decoded .tex file.
type Texture struct {
	Width  int
	Height int
	Pix    []byte // RGB8, row-major
}

// Size returns the encoded length of a width x height texture.
func Size(width, height int) int {
	return HeaderSize + 3*width*height
}

func checkDimensions(width, height int) error {
	if width < 0 || width > MaxSide || height < 0 || height > MaxSide {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidDimensions, width, height, MaxSide)
	}
	return nil
}

// Encode converts pixels from src to RGB8 and returns the complete .tex bytes.
func Encode(pixels []byte, width, height int, src pixfmt.Format) ([]byte, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	rgb, err := pixfmt.Convert(pixels, width, height, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPixelConversion, err)
	}
	return encodeRGB(rgb, width, height)
}

// EncodeImage encodes any decoded image. A non-nil matte is blended under
// translucent pixels; otherwise alpha is dropped.
func EncodeImage(img image.Image, matte *color.NRGBA) ([]byte, error) {
	b := img.Bounds()
	if err := checkDimensions(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return encodeRGB(pixfmt.FromImage(img, matte), b.Dx(), b.Dy())
}

func encodeRGB(rgb []byte, width, height int) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, Size(width, height)))
	bw := binio.NewWriter(buf)
	bw.WriteUint16(uint16(width))
	bw.WriteUint16(uint16(height))
	bw.WriteBytes(rgb)
	if bw.Err != nil {
		return nil, fmt.Errorf("tex: write: %w", bw.Err)
	}
	return buf.Bytes(), nil
}

// Write encodes into memory first so w never sees a partial texture.
func Write(w io.Writer, pixels []byte, width, height int, src pixfmt.Format) error {
	data, err := Encode(pixels, width, height, src)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode parses a complete .tex file.
func Decode(data []byte) (*Texture, error) {
	r := binio.NewReader(data)
	w := int(r.ReadUint16())
	h := int(r.ReadUint16())
	if r.Err != nil {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}

	pix := r.ReadBytes(3 * w * h)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, have %d", ErrTruncated, w, h, Size(w, h), len(data))
	}
	if r.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after pixel data", ErrTrailingData, r.Remaining())
	}

	return &Texture{Width: w, Height: h, Pix: append([]byte(nil), pix...)}, nil
}

// Read decodes a .tex stream.
func Read(r io.Reader) (*Texture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tex: read: %w", err)
	}
	return Decode(data)
}

// Image returns an opaque RGBA copy of the texture.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for i := 0; i < t.Width*t.Height; i++ {
		copy(img.Pix[i*4:i*4+3], t.Pix[i*3:i*3+3])
		img.Pix[i*4+3] = 0xFF
	}
	return img
}
