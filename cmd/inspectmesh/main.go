package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tex-mesh-exporter/internal/batch"
	"tex-mesh-exporter/internal/bmd"
	"tex-mesh-exporter/internal/config"
	"tex-mesh-exporter/internal/exporter"
	"tex-mesh-exporter/internal/meshfmt"
	"tex-mesh-exporter/internal/model"
)

// inspectmesh prints what an exported .mesh holds, or what a model source
// would export, so the two can be compared side by side.
func main() {
	configFile := flag.String("config", "", "Path to export.yaml (for BMD keys)")
	check := flag.Bool("check", false, "Validate indices and report values the strict range policy rejects")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file.mesh|file.bmd|file.obj ...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	failures := 0
	for _, arg := range flag.Args() {
		var err error
		if exporter.FormatExt(arg) == exporter.MeshExt {
			err = inspectExported(arg)
		} else {
			err = inspectSource(arg, cfg, *check)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR %s: %v\n", arg, err)
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func inspectExported(path string) error {
	rc, err := exporter.OpenExported(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	d, err := meshfmt.Read(rc)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== %s (%d bytes) ===\n", path, meshfmt.Size(len(d.Positions), len(d.Indices)))
	fmt.Printf("  vertices=%d indices=%d triangles=%d\n", len(d.Positions), len(d.Indices), len(d.Indices)/3)

	if len(d.Positions) > 0 {
		lo, hi := d.Positions[0], d.Positions[0]
		for _, p := range d.Positions[1:] {
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
		fmt.Printf("  X=[%d..%d] Y=[%d..%d] Z=[%d..%d]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	}

	bad := 0
	for _, idx := range d.Indices {
		if int(idx) >= len(d.Positions) {
			bad++
		}
	}
	if bad > 0 {
		fmt.Printf("  WARNING: %d indices reference missing vertices\n", bad)
	}
	if len(d.Indices)%3 != 0 {
		fmt.Printf("  WARNING: index count is not a multiple of 3\n")
	}
	return nil
}

func inspectSource(path string, cfg config.Config, check bool) error {
	if !batch.IsModel(path) {
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	keys, err := cfg.Keys()
	if err != nil {
		return err
	}
	m, err := batch.LoadModel(path, keys, bmd.Options{BindPose: cfg.BMDBindPose})
	if err != nil {
		return err
	}

	fmt.Printf("\n=== %s (meshes=%d) ===\n", path, len(m.Meshes))
	for i := range m.Meshes {
		printMesh(i, &m.Meshes[i], check)
	}
	if len(m.Meshes) > 1 {
		fmt.Printf("  only Mesh[0] is exported\n")
	}
	return nil
}

func printMesh(i int, mesh *model.Mesh, check bool) {
	lo, hi := mesh.Bounds()
	tex := mesh.Texture
	if tex == "" {
		tex = "-"
	}
	fmt.Printf("  Mesh[%d] %s: verts=%d indices=%d tex=%s\n", i, mesh.Name, len(mesh.Positions), len(mesh.Indices), tex)
	fmt.Printf("    X=[%.1f..%.1f] Y=[%.1f..%.1f] Z=[%.1f..%.1f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])

	if !check {
		return
	}
	if err := mesh.Validate(); err != nil {
		fmt.Printf("    INVALID: %v\n", err)
	}
	if _, err := meshfmt.Encode(mesh, meshfmt.Options{Range: meshfmt.RangeStrict}); err != nil {
		fmt.Printf("    strict export fails: %v\n", strings.TrimPrefix(err.Error(), "mesh: "))
	} else {
		fmt.Printf("    strict export OK (%d bytes)\n", meshfmt.Size(len(mesh.Positions), len(mesh.Indices)))
	}
}
