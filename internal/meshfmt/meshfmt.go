// Package meshfmt reads and writes .mesh files:
//
//	uint16 vertexCount
//	uint16 indexCount
//	vertexCount x (uint16 x, uint16 y, uint16 z)
//	indexCount  x uint16
//
// Coordinates are truncated toward zero before being stored.
package meshfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"

	"tex-mesh-exporter/internal/binio"
	"tex-mesh-exporter/internal/model"
)

const (
	HeaderSize = 4
	MaxCount   = 0xFFFF
)

var (
	ErrInvalidDimensions = errors.New("mesh: invalid dimensions")
	ErrValueOutOfRange   = errors.New("mesh: value out of range")
	ErrTruncated         = errors.New("mesh: truncated data")
	ErrTrailingData      = errors.New("mesh: trailing data")
)

// RangePolicy decides what happens to a truncated value that uint16 cannot hold.
type RangePolicy int

const (
	RangeStrict RangePolicy = iota // reject with ErrValueOutOfRange
	RangeClamp                     // clip into 0..65535, NaN becomes 0
	RangeWrap                      // keep the low 16 bits of the integer
)

func (p RangePolicy) String() string {
	switch p {
	case RangeStrict:
		return "strict"
	case RangeClamp:
		return "clamp"
	case RangeWrap:
		return "wrap"
	}
	return fmt.Sprintf("RangePolicy(%d)", int(p))
}

func ParseRangePolicy(s string) (RangePolicy, error) {
	switch s {
	case "", "strict":
		return RangeStrict, nil
	case "clamp":
		return RangeClamp, nil
	case "wrap":
		return RangeWrap, nil
	}
	return RangeStrict, fmt.Errorf("mesh: unknown range policy %q", s)
}

type Options struct {
	Range RangePolicy
}

// ValueError identifies the element that could not be stored.
type ValueError struct {
	Field string // "position" or "index"
	Index int    // element number
	Axis  int    // 0..2 for positions
	Value float64
}

func (e *ValueError) Error() string {
	if e.Field == "index" {
		return fmt.Sprintf("mesh: index %d = %g does not fit uint16", e.Index, e.Value)
	}
	return fmt.Sprintf("mesh: position %d axis %c = %g does not fit uint16", e.Index, "xyz"[e.Axis], e.Value)
}

func (e *ValueError) Unwrap() error { return ErrValueOutOfRange }

// Size returns the encoded length for n positions and m indices.
func Size(n, m int) int {
	return HeaderSize + 6*n + 2*m
}

// Encode returns the complete .mesh bytes for one mesh.
func Encode(mesh *model.Mesh, opts Options) ([]byte, error) {
	n, m := len(mesh.Positions), len(mesh.Indices)
	if n > MaxCount || m > MaxCount {
		return nil, fmt.Errorf("%w: %d positions, %d indices (max %d each)", ErrInvalidDimensions, n, m, MaxCount)
	}

	buf := bytes.NewBuffer(make([]byte, 0, Size(n, m)))
	bw := binio.NewWriter(buf)
	bw.WriteUint16(uint16(n))
	bw.WriteUint16(uint16(m))

	for i, p := range mesh.Positions {
		for axis := 0; axis < 3; axis++ {
			v, err := quantize(p[axis], opts.Range)
			if err != nil {
				return nil, &ValueError{Field: "position", Index: i, Axis: axis, Value: float64(p[axis])}
			}
			bw.WriteUint16(v)
		}
	}

	for i, idx := range mesh.Indices {
		if idx > MaxCount {
			switch opts.Range {
			case RangeStrict:
				return nil, &ValueError{Field: "index", Index: i, Value: float64(idx)}
			case RangeClamp:
				idx = MaxCount
			}
		}
		bw.WriteUint16(uint16(idx))
	}

	if bw.Err != nil {
		return nil, fmt.Errorf("mesh: write: %w", bw.Err)
	}
	return buf.Bytes(), nil
}

// quantize truncates toward zero and fits the result into uint16 under policy.
func quantize(f float32, policy RangePolicy) (uint16, error) {
	t := math32.Trunc(f)
	if t >= 0 && t <= MaxCount {
		return uint16(t), nil
	}

	switch policy {
	case RangeClamp:
		if t > MaxCount {
			return MaxCount, nil
		}
		return 0, nil
	case RangeWrap:
		if math32.IsNaN(t) || math32.IsInf(t, 0) {
			return 0, nil
		}
		return uint16(int64(t)), nil
	}
	return 0, ErrValueOutOfRange
}

// Write encodes into memory first so w never sees a partial mesh.
func Write(w io.Writer, mesh *model.Mesh, opts Options) error {
	data, err := Encode(mesh, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decoded is the integer content of a .mesh file.
type Decoded struct {
	Positions [][3]uint16
	Indices   []uint16
}

// Decode parses a complete .mesh file.
func Decode(data []byte) (*Decoded, error) {
	r := binio.NewReader(data)
	n := int(r.ReadUint16())
	m := int(r.ReadUint16())
	if r.Err != nil {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}
	if want := Size(n, m); len(data) < want {
		return nil, fmt.Errorf("%w: %d positions and %d indices need %d bytes, have %d", ErrTruncated, n, m, want, len(data))
	} else if len(data) > want {
		return nil, fmt.Errorf("%w: %d bytes after indices", ErrTrailingData, len(data)-want)
	}

	d := &Decoded{
		Positions: make([][3]uint16, n),
		Indices:   make([]uint16, m),
	}
	for i := range d.Positions {
		d.Positions[i] = [3]uint16{r.ReadUint16(), r.ReadUint16(), r.ReadUint16()}
	}
	for i := range d.Indices {
		d.Indices[i] = r.ReadUint16()
	}
	return d, r.Err
}

// Read decodes a .mesh stream.
func Read(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mesh: read: %w", err)
	}
	return Decode(data)
}
