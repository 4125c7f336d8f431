package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPrimary(t *testing.T) {
	var empty *Model
	if _, err := empty.Primary(); err == nil {
		t.Error("nil model should have no primary mesh")
	}

	m := &Model{Name: "crate", Meshes: []Mesh{{Name: "a"}, {Name: "b"}}}
	p, err := m.Primary()
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "a" {
		t.Errorf("primary mesh should be the first, got %q", p.Name)
	}
}

func TestValidate(t *testing.T) {
	m := Mesh{Positions: make([]mgl32.Vec3, 3), Indices: []uint32{0, 1, 2}}
	if err := m.Validate(); err != nil {
		t.Errorf("valid mesh reported %v", err)
	}
	m.Indices = append(m.Indices, 3)
	if err := m.Validate(); err == nil {
		t.Error("index 3 with 3 positions should be rejected")
	}
}

func TestBounds(t *testing.T) {
	m := Mesh{Positions: []mgl32.Vec3{{1, -2, 3}, {-4, 5, 0}, {2, 2, 9}}}
	min, max := m.Bounds()
	if min != (mgl32.Vec3{-4, -2, 0}) || max != (mgl32.Vec3{2, 5, 9}) {
		t.Errorf("bounds should be (-4,-2,0)..(2,5,9), got %v..%v", min, max)
	}
}
