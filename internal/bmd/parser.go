package bmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"tex-mesh-exporter/internal/binio"
	"tex-mesh-exporter/internal/crypto"
	"tex-mesh-exporter/internal/model"
)

var (
	ErrNoLEAKey = errors.New("bmd: v15 file needs an LEA key")
	ErrShort    = errors.New("bmd: unexpected end of data")
)

// maxMeshes guards against garbage counts from undecryptable files.
const maxMeshes = 100

// Parse reads a BMD file and returns its meshes as a model.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func Parse(path string, keys crypto.Keys, opts Options) (*model.Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := ParseBytes(raw, name, keys, opts)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return m, nil
}

// ParseBytes parses an in-memory BMD file.
func ParseBytes(raw []byte, name string, keys crypto.Keys, opts Options) (*model.Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header")
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		hr := binio.NewReader(raw[4:])
		size := int(hr.ReadUint32())
		body := hr.ReadBytes(size)
		if hr.Err != nil {
			return nil, fmt.Errorf("bmd: truncated v%d data", version)
		}
		if version == 12 {
			data = crypto.DecryptXOR(body, keys.XOR)
			break
		}
		if !keys.HasLEA {
			return nil, ErrNoLEAKey
		}
		var err error
		if data, err = crypto.DecryptLEA(body, keys.LEA); err != nil {
			return nil, fmt.Errorf("bmd: v15: %w", err)
		}
	default:
		data = raw[4:]
	}

	r := binio.NewReader(data)
	meshes, bones, err := parse(r)
	if err != nil {
		return nil, err
	}
	if opts.BindPose {
		if r.Err != nil {
			return nil, fmt.Errorf("bmd: bones: %w", ErrShort)
		}
		applyBindPose(meshes, bones)
	}
	return toModel(name, meshes)
}

// readStr reads a fixed-size, NUL-padded string field.
func readStr(r *binio.Reader, n int) string {
	s := r.ReadBytes(n)
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func readBool(r *binio.Reader) bool {
	b := r.ReadBytes(1)
	return b != nil && b[0] > 0
}

func parse(r *binio.Reader) ([]rawMesh, []Bone, error) {
	_ = readStr(r, 32) // model name
	meshCount := int(r.ReadUint16())
	boneCount := int(r.ReadUint16())
	actionCount := int(r.ReadUint16())

	if meshCount > maxMeshes {
		return nil, nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	meshes := make([]rawMesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		nv := int(r.ReadInt16())
		nn := int(r.ReadInt16())
		ntc := int(r.ReadInt16())
		nt := int(r.ReadInt16())
		_ = r.ReadInt16() // texture index
		if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
			return nil, nil, fmt.Errorf("bmd: mesh %d has negative counts", i)
		}

		// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
		verts := make([][3]float32, nv)
		nodes := make([]int16, nv)
		for j := 0; j < nv && r.Err == nil; j++ {
			nodes[j] = r.ReadInt16()
			_ = r.ReadInt16() // padding
			verts[j] = [3]float32{r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()}
		}

		// Normals (20 bytes) and texcoords (8 bytes) are not part of the export.
		r.ReadBytes(nn*20 + ntc*8)

		// Triangles: 64 bytes each, polygon:u8 then four i16 vertex indices.
		tris := make([]triangle, 0, nt)
		for j := 0; j < nt; j++ {
			rec := r.ReadBytes(64)
			if rec == nil {
				break
			}
			tr := binio.NewReader(rec[2:10])
			tris = append(tris, triangle{
				polygon: int(rec[0]),
				vi:      [4]int16{tr.ReadInt16(), tr.ReadInt16(), tr.ReadInt16(), tr.ReadInt16()},
			})
		}

		texPath := strings.ReplaceAll(readStr(r, 32), "\\", "/")

		if r.Err != nil {
			return nil, nil, fmt.Errorf("bmd: mesh %d at offset %d: %w", i, r.Offset(), ErrShort)
		}
		meshes = append(meshes, rawMesh{
			verts:   verts,
			nodes:   nodes,
			tris:    tris,
			texPath: texPath,
		})
	}

	actionKeys := make([]int, actionCount)
	for a := 0; a < actionCount; a++ {
		numKeys := int(r.ReadInt16())
		if readBool(r) { // lock position
			r.ReadBytes(numKeys * 12) // float32 x,y,z per key
		}
		actionKeys[a] = numKeys
	}

	bones := make([]Bone, 0, boneCount)
	for b := 0; b < boneCount && r.Err == nil; b++ {
		if readBool(r) { // dummy
			bones = append(bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		_ = readStr(r, 32) // bone name
		parent := int(r.ReadInt16())

		var bindPos, bindRot [3]float32
		for a, numKeys := range actionKeys {
			if numKeys <= 0 {
				continue
			}
			// Positions then rotations: numKeys x (x, y, z) float32 each.
			for k := 0; k < numKeys; k++ {
				v := [3]float32{r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()}
				if a == 0 && k == 0 {
					bindPos = v
				}
			}
			for k := 0; k < numKeys; k++ {
				v := [3]float32{r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()}
				if a == 0 && k == 0 {
					bindRot = v
				}
			}
		}

		bones = append(bones, Bone{
			Parent:       parent,
			BindPosition: bindPos,
			BindRotation: bindRot,
		})
	}

	return meshes, bones, nil
}

// toModel triangulates every sub-mesh into a flat index list.
func toModel(name string, meshes []rawMesh) (*model.Model, error) {
	m := &model.Model{Name: name, Meshes: make([]model.Mesh, 0, len(meshes))}
	for i, raw := range meshes {
		mesh := model.Mesh{
			Name:      fmt.Sprintf("%s.%d", name, i),
			Positions: make([]mgl32.Vec3, len(raw.verts)),
			Indices:   make([]uint32, 0, len(raw.tris)*3),
			Texture:   raw.texPath,
		}
		for j, v := range raw.verts {
			mesh.Positions[j] = mgl32.Vec3(v)
		}

		for j, t := range raw.tris {
			corners := []int{0, 1, 2}
			if t.polygon == 4 {
				corners = []int{0, 1, 2, 0, 2, 3}
			}
			for _, c := range corners {
				vi := int(t.vi[c])
				if vi < 0 || vi >= len(raw.verts) {
					return nil, fmt.Errorf("bmd: mesh %d triangle %d references vertex %d of %d", i, j, vi, len(raw.verts))
				}
				mesh.Indices = append(mesh.Indices, uint32(vi))
			}
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	return m, nil
}
