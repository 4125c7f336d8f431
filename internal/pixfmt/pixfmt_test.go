package pixfmt

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		src  Format
		in   []byte
		want []byte
	}{
		{"rgb8", RGB8, []byte{1, 2, 3, 4, 5, 6}, []byte{1, 2, 3, 4, 5, 6}},
		{"rgba8", RGBA8, []byte{1, 2, 3, 9, 4, 5, 6, 9}, []byte{1, 2, 3, 4, 5, 6}},
		{"bgr8", BGR8, []byte{3, 2, 1, 6, 5, 4}, []byte{1, 2, 3, 4, 5, 6}},
		{"bgra8", BGRA8, []byte{3, 2, 1, 0, 6, 5, 4, 0}, []byte{1, 2, 3, 4, 5, 6}},
		{"gray8", Gray8, []byte{7, 8}, []byte{7, 7, 7, 8, 8, 8}},
		{"graya8", GrayA8, []byte{7, 0, 8, 0}, []byte{7, 7, 7, 8, 8, 8}},
		{"rgb565", RGB565, []byte{0x00, 0xF8, 0xFF, 0xFF}, []byte{0xFF, 0, 0, 0xFF, 0xFF, 0xFF}},
		{"trailing bytes ignored", RGB8, []byte{1, 2, 3, 4, 5, 6, 7}, []byte{1, 2, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, 2, 1, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("converted bytes should be %v but were %v", tt.want, got)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := Convert([]byte{1, 2, 3}, 2, 1, RGB8); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer should fail with ErrShortBuffer, got %v", err)
	}
	if _, err := Convert(nil, 0, 0, Unknown); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unknown format should fail with ErrUnsupportedFormat, got %v", err)
	}
	if out, err := Convert(nil, 0, 0, RGBA8); err != nil || len(out) != 0 {
		t.Errorf("empty image should convert to nothing, got %v, %v", out, err)
	}
}

func TestFormatNames(t *testing.T) {
	if RGBA8.String() != "r8g8b8a8" || RGB565.String() != "r5g6b5" {
		t.Errorf("unexpected names %v %v", RGBA8, RGB565)
	}
	if Unknown.BytesPerPixel() != 0 || Unknown.String() != "Format(0)" {
		t.Errorf("unknown format should have no size and a numeric name, got %d %q", Unknown.BytesPerPixel(), Unknown)
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	got := FromImage(img, nil)
	want := []byte{10, 20, 30, 200, 100, 50}
	if !bytes.Equal(got, want) {
		t.Errorf("alpha should be dropped: want %v, got %v", want, got)
	}

	matte := &color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	got = FromImage(img, matte)
	want = []byte{10, 20, 30, 255, 255, 255}
	if !bytes.Equal(got, want) {
		t.Errorf("transparent pixel should take the matte: want %v, got %v", want, got)
	}
}

func TestFromImageSubImageAndGeneric(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 3))
	rgba.Set(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	sub := rgba.SubImage(image.Rect(1, 1, 2, 2))

	got := FromImage(sub, nil)
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("sub-image pixel should be 1,2,3, got %v", got)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 42
	if got := FromImage(gray, nil); !bytes.Equal(got, []byte{42, 42, 42}) {
		t.Errorf("gray pixel should expand to 42,42,42, got %v", got)
	}
}
