// Package obj reads the geometry of Wavefront OBJ files.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"tex-mesh-exporter/internal/model"
)

// Parse reads positions and faces. Each "o" or "g" statement starts a new mesh;
// faces are fan-triangulated and positions are renumbered per mesh.
func Parse(r io.Reader, name string) (*model.Model, error) {
	p := &parser{m: &model.Model{Name: name}}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := p.line(fields[0], fields[1:]); err != nil {
			return nil, fmt.Errorf("obj: %s line %d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("obj: %s: %w", name, err)
	}

	p.flush()
	return p.m, nil
}

// ParseFile parses an .obj file; the model is named after the file stem.
func ParseFile(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj: open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

type parser struct {
	m         *model.Model
	positions []mgl32.Vec3 // file-global
	cur       *model.Mesh
	local     map[int]uint32 // global position -> index in cur
}

func (p *parser) line(ident string, val []string) error {
	switch ident {
	case "v":
		if len(val) < 3 {
			return fmt.Errorf("vertex needs 3 coordinates, got %d", len(val))
		}
		var v mgl32.Vec3
		for k := 0; k < 3; k++ {
			f, err := strconv.ParseFloat(val[k], 32)
			if err != nil {
				return fmt.Errorf("vertex coordinate %q: %w", val[k], err)
			}
			v[k] = float32(f)
		}
		p.positions = append(p.positions, v)
	case "o", "g":
		p.flush()
		p.begin(strings.Join(val, " "))
	case "usemtl":
		p.mesh().Texture = strings.Join(val, " ")
	case "f":
		if len(val) < 3 {
			return fmt.Errorf("face needs 3 vertices, got %d", len(val))
		}
		corners := make([]uint32, len(val))
		for i, s := range val {
			idx, err := p.resolve(s)
			if err != nil {
				return err
			}
			corners[i] = idx
		}
		mesh := p.mesh()
		for i := 1; i+1 < len(corners); i++ {
			mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
		}
	}
	return nil
}

// resolve maps a "v", "v/vt", "v//vn" or "v/vt/vn" reference to a local index.
func (p *parser) resolve(ref string) (uint32, error) {
	pos, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("face vertex %q: %w", ref, err)
	}

	// OBJ indices start at 1; negative values count back from the last vertex.
	g := n - 1
	if n < 0 {
		g = len(p.positions) + n
	}
	if n == 0 || g < 0 || g >= len(p.positions) {
		return 0, fmt.Errorf("face vertex %q out of range (%d vertices)", ref, len(p.positions))
	}

	mesh := p.mesh()
	if idx, ok := p.local[g]; ok {
		return idx, nil
	}
	idx := uint32(len(mesh.Positions))
	mesh.Positions = append(mesh.Positions, p.positions[g])
	p.local[g] = idx
	return idx, nil
}

func (p *parser) begin(name string) {
	if name == "" {
		name = fmt.Sprintf("%s.%d", p.m.Name, len(p.m.Meshes))
	}
	p.cur = &model.Mesh{Name: name}
	p.local = make(map[int]uint32)
}

func (p *parser) mesh() *model.Mesh {
	if p.cur == nil {
		p.begin(p.m.Name)
	}
	return p.cur
}

// flush keeps the current mesh if it has any faces.
func (p *parser) flush() {
	if p.cur != nil && len(p.cur.Indices) > 0 {
		p.m.Meshes = append(p.m.Meshes, *p.cur)
	}
	p.cur = nil
}
