package bmd

// triangle holds polygon type and index quads into vertex/normal/texcoord arrays.
// polygon == 4 means quad (two triangles: 0-1-2 and 0-2-3).
type triangle struct {
	polygon int
	vi      [4]int16
}

// rawMesh is one sub-mesh as stored in the file, before triangulation.
type rawMesh struct {
	verts   [][3]float32
	nodes   []int16 // bone index per vertex
	tris    []triangle
	texPath string
}

// Bone holds bind-pose data for one bone in the skeleton hierarchy.
type Bone struct {
	Parent       int
	IsDummy      bool
	BindPosition [3]float32
	BindRotation [3]float32 // Euler XYZ radians
}

// Options controls how a BMD file becomes a model.
type Options struct {
	// BindPose moves every vertex by its bone's bind-pose transform.
	BindPose bool
}
