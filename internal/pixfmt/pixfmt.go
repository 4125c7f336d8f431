package pixfmt

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("pixfmt: unsupported pixel format")
	ErrShortBuffer       = errors.New("pixfmt: buffer too small for dimensions")
)

// Format describes the layout of a raw pixel buffer.
type Format int

const (
	Unknown Format = iota
	RGB8
	RGBA8
	BGR8
	BGRA8
	Gray8
	GrayA8
	RGB565 // little-endian 5-6-5
)

var formatNames = map[Format]string{
	RGB8:   "r8g8b8",
	RGBA8:  "r8g8b8a8",
	BGR8:   "b8g8r8",
	BGRA8:  "b8g8r8a8",
	Gray8:  "l8",
	GrayA8: "l8a8",
	RGB565: "r5g6b5",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// BytesPerPixel returns 0 for unknown formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB8, BGR8:
		return 3
	case RGBA8, BGRA8:
		return 4
	case Gray8:
		return 1
	case GrayA8, RGB565:
		return 2
	}
	return 0
}

// Convert repacks width*height pixels of buf into tightly packed RGB8.
// Alpha is discarded. Bytes past the image are ignored.
func Convert(buf []byte, width, height int, src Format) ([]byte, error) {
	bpp := src.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, src)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("pixfmt: negative dimensions %dx%d", width, height)
	}

	n := width * height
	if len(buf) < n*bpp {
		return nil, fmt.Errorf("%w: %dx%d %v needs %d bytes, have %d",
			ErrShortBuffer, width, height, src, n*bpp, len(buf))
	}

	out := make([]byte, n*3)
	switch src {
	case RGB8:
		copy(out, buf[:n*3])
	case RGBA8:
		for i := 0; i < n; i++ {
			copy(out[i*3:i*3+3], buf[i*4:i*4+3])
		}
	case BGR8, BGRA8:
		for i := 0; i < n; i++ {
			s := buf[i*bpp:]
			out[i*3] = s[2]
			out[i*3+1] = s[1]
			out[i*3+2] = s[0]
		}
	case Gray8, GrayA8:
		for i := 0; i < n; i++ {
			l := buf[i*bpp]
			out[i*3] = l
			out[i*3+1] = l
			out[i*3+2] = l
		}
	case RGB565:
		for i := 0; i < n; i++ {
			p := uint16(buf[i*2]) | uint16(buf[i*2+1])<<8
			out[i*3] = expand5(uint8(p >> 11))
			out[i*3+1] = expand6(uint8(p>>5) & 0x3F)
			out[i*3+2] = expand5(uint8(p) & 0x1F)
		}
	}
	return out, nil
}

func expand5(v uint8) uint8 { return v<<3 | v>>2 }
func expand6(v uint8) uint8 { return v<<2 | v>>4 }
