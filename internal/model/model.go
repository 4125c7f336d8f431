package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is one triangle list: positions plus indices into them.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Indices   []uint32
	Texture   string // texture reference from the source file, may be empty
}

// Model is the mesh collection produced by a model source.
type Model struct {
	Name   string
	Meshes []Mesh
}

// Primary returns the first mesh, the only one the .mesh format carries.
func (m *Model) Primary() (*Mesh, error) {
	if m == nil || len(m.Meshes) == 0 {
		return nil, fmt.Errorf("model: %q has no meshes", m.name())
	}
	return &m.Meshes[0], nil
}

func (m *Model) name() string {
	if m == nil {
		return ""
	}
	return m.Name
}

// Validate reports the first index that does not reference a position.
func (m *Mesh) Validate() error {
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("model: mesh %q index %d = %d, only %d positions", m.Name, i, idx, len(m.Positions))
		}
	}
	return nil
}

// Bounds returns the axis-aligned min and max of all positions.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	min, max = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return
}
