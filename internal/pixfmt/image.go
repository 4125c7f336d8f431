package pixfmt

import (
	"image"
	"image/color"
)

// FromImage packs img into RGB8, row-major, top to bottom.
// With a nil matte the alpha channel is dropped and the straight (unpremultiplied)
// color is kept; otherwise pixels are composited over the matte color.
func FromImage(img image.Image, matte *color.NRGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*3)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				put(out[(y*w+x)*3:], row[x*4], row[x*4+1], row[x*4+2], row[x*4+3], matte)
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				o := (y*w + x) * 3
				out[o], out[o+1], out[o+2] = row[x], row[x], row[x]
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				put(out[(y*w+x)*3:], c.R, c.G, c.B, c.A, matte)
			}
		}
	}
	return out
}

func put(dst []byte, r, g, b, a uint8, matte *color.NRGBA) {
	if matte == nil || a == 0xFF {
		dst[0], dst[1], dst[2] = r, g, b
		return
	}
	dst[0] = blend(r, matte.R, a)
	dst[1] = blend(g, matte.G, a)
	dst[2] = blend(b, matte.B, a)
}

func blend(c, m, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + uint32(m)*uint32(0xFF-a) + 127) / 0xFF)
}
