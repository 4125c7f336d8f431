package bmd

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// eulerToQuat converts Euler XYZ radians the way the BMD animation data expects.
func eulerToQuat(rx, ry, rz float32) mgl32.Quat {
	cx, sx := math32.Cos(rx*0.5), math32.Sin(rx*0.5)
	cy, sy := math32.Cos(ry*0.5), math32.Sin(ry*0.5)
	cz, sz := math32.Cos(rz*0.5), math32.Sin(rz*0.5)

	return mgl32.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl32.Vec3{
			sx*cy*cz - cx*sy*sz,
			cx*sy*cz + sx*cy*sz,
			cx*cy*sz - sx*sy*cz,
		},
	}
}

// worldMatrices computes each bone's bind-pose world transform (action 0, key 0).
func worldMatrices(bones []Bone) []mgl32.Mat4 {
	worlds := make([]mgl32.Mat4, len(bones))
	for i := range worlds {
		worlds[i] = mgl32.Ident4()
	}

	for i, bone := range bones {
		if bone.IsDummy {
			continue
		}

		rot := eulerToQuat(bone.BindRotation[0], bone.BindRotation[1], bone.BindRotation[2]).Mat4()
		p := bone.BindPosition
		local := mgl32.Translate3D(p[0], p[1], p[2]).Mul4(rot)

		// Parents always precede children in the file.
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = worlds[bone.Parent].Mul4(local)
		} else {
			worlds[i] = local
		}
	}
	return worlds
}

// applyBindPose moves vertices in place. Rigid skinning: one bone per vertex.
func applyBindPose(meshes []rawMesh, bones []Bone) {
	if len(bones) == 0 {
		return
	}

	worlds := worldMatrices(bones)
	identity := true
	for _, w := range worlds {
		if !w.ApproxEqual(mgl32.Ident4()) {
			identity = false
			break
		}
	}
	if identity {
		return
	}

	for mi := range meshes {
		mesh := &meshes[mi]
		for vi, v := range mesh.verts {
			bone := int(mesh.nodes[vi])
			if bone < 0 || bone >= len(worlds) {
				continue
			}
			t := worlds[bone].Mul4x1(mgl32.Vec3(v).Vec4(1))
			mesh.verts[vi] = [3]float32{t[0], t[1], t[2]}
		}
	}
}
