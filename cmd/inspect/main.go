package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"pose-studio/internal/glb"
	"pose-studio/internal/joint"
	"pose-studio/internal/scene"
	"pose-studio/internal/skin"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: inspect model.glb [more.glb ...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
		fmt.Println()
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	root, err := glb.Load(path)
	if err != nil {
		return err
	}

	bones := root.Bones()
	meshes := root.Meshes()
	fmt.Printf("%s (%s)\n", path, humanize.IBytes(uint64(info.Size())))
	fmt.Printf("Meshes: %d, Bones: %d\n", len(meshes), len(bones))

	known := 0
	for _, b := range bones {
		if joint.Parse(b.Name).Valid() {
			known++
		}
	}
	if len(bones) > 0 {
		fmt.Printf("  Posable joints: %d/%d bones (%d joints defined)\n", known, len(bones), joint.Count)
	}

	for i, n := range meshes {
		g := n.Mesh.Geometry
		tris := 0
		g.Triangles(func(_, _, _ int) { tris++ })
		fmt.Printf("  Mesh[%d] %q: verts=%d, tris=%d", i, n.Name, g.VertexCount(), tris)
		switch {
		case n.Mesh.Skinned() && g.HasSkinAttributes():
			fmt.Printf(", skinned (%d joints)\n", len(n.Mesh.Skin.Joints))
		case n.Mesh.Skinned():
			fmt.Printf(", skinned but MISSING joint indices/weights\n")
		default:
			fmt.Printf(", static\n")
		}
	}

	printBounds("Bounds", root)

	baked, rep := skin.Bake(root, nil)
	if len(rep.Baked) == 0 {
		fmt.Println("Bake: nothing to bake")
		return nil
	}
	fmt.Printf("Bake: %d baked, %d skipped %v\n", len(rep.Baked), len(rep.Skipped), rep.Skipped)
	printBounds("Baked bounds", skin.ExportGroup(baked))
	return nil
}

func printBounds(label string, root *scene.Node) {
	lo, hi, ok := scene.WorldBounds(root)
	if !ok {
		fmt.Printf("%s: empty\n", label)
		return
	}
	fmt.Printf("%s: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", label, lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	fmt.Printf("  Size: %.3f x %.3f x %.3f\n", hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2])
}
