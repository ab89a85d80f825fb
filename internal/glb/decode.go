package glb

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"pose-studio/internal/mathutil"
	"pose-studio/internal/scene"
)

// ErrEmpty is returned for a document with no nodes.
var ErrEmpty = errors.New("glb: document has no nodes")

// ErrMalformed is returned when the document's buffers or indices are
// inconsistent.
var ErrMalformed = errors.New("glb: malformed document")

// Decode parses a binary glTF file, or a self-contained JSON glTF, into a
// scene graph. Nodes referenced by a skin become bones; each skinned mesh
// is bound with its world matrix at load time as the bind matrix.
func Decode(data []byte) (*scene.Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("glb: decode: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument converts a decoded document into a scene graph. A malformed
// document is reported as an error, never a panic.
func FromDocument(doc *gltf.Document) (root *scene.Node, err error) {
	defer func() {
		if p := recover(); p != nil {
			root, err = nil, fmt.Errorf("%w: %v", ErrMalformed, p)
		}
	}()
	if len(doc.Nodes) == 0 {
		return nil, ErrEmpty
	}
	r := &reader{
		doc:   doc,
		nodes: make([]*scene.Node, len(doc.Nodes)),
		bones: make(map[int]bool),
	}
	for _, s := range doc.Skins {
		for _, j := range s.Joints {
			r.bones[j] = true
		}
	}

	root = scene.NewGroup("scene")
	for _, idx := range r.roots() {
		n, err := r.node(idx, 0)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	root.UpdateWorld()

	if err := r.bind(); err != nil {
		return nil, err
	}
	return root, nil
}

type reader struct {
	doc   *gltf.Document
	nodes []*scene.Node
	bones map[int]bool
	// meshes holds skinned mesh nodes awaiting their skin.
	meshes []pending
}

type pending struct {
	skin  int
	nodes []*scene.Node
}

func (r *reader) roots() []int {
	if len(r.doc.Scenes) > 0 {
		s := 0
		if ref(r.doc.Scene, len(r.doc.Scenes)) {
			s = *r.doc.Scene
		}
		return r.doc.Scenes[s].Nodes
	}
	child := make([]bool, len(r.doc.Nodes))
	for _, n := range r.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var out []int
	for i, c := range child {
		if !c {
			out = append(out, i)
		}
	}
	return out
}

func (r *reader) node(idx, depth int) (*scene.Node, error) {
	if idx < 0 || idx >= len(r.doc.Nodes) {
		return nil, fmt.Errorf("glb: node index %d out of range", idx)
	}
	if depth > len(r.doc.Nodes) {
		return nil, fmt.Errorf("glb: node %d: cyclic hierarchy", idx)
	}
	if r.nodes[idx] != nil {
		return nil, fmt.Errorf("glb: node %d has more than one parent", idx)
	}
	gn := r.doc.Nodes[idx]

	var n *scene.Node
	if r.bones[idx] {
		n = scene.NewBone(gn.Name)
	} else {
		n = scene.NewGroup(gn.Name)
	}
	setTransform(n, gn)
	r.nodes[idx] = n

	if gn.Mesh != nil {
		meshNodes, err := r.mesh(n, *gn.Mesh)
		if err != nil {
			return nil, fmt.Errorf("glb: node %q: %w", gn.Name, err)
		}
		if gn.Skin != nil {
			r.meshes = append(r.meshes, pending{skin: *gn.Skin, nodes: meshNodes})
		}
	}
	for _, c := range gn.Children {
		cn, err := r.node(c, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(cn)
	}
	return n, nil
}

func setTransform(n *scene.Node, gn *gltf.Node) {
	var zero [16]float64
	if gn.Matrix != zero {
		m := mathutil.Mat4FromColumnMajor(gn.Matrix)
		if !m.IsIdentity() {
			n.SetTransform(m)
			return
		}
	}
	n.Position = gn.Translation
	if q := mathutil.Quat(gn.Rotation); q != (mathutil.Quat{}) {
		n.Rotation = mathutil.EulerFromMat3(mathutil.QuatToMat3(q.Normalize()))
	}
	if s := mathutil.Vec3(gn.Scale); s != (mathutil.Vec3{}) {
		n.Scale = s
	}
}

// mesh attaches the primitives of mesh mi to n. A single primitive is
// carried by n itself; several become child mesh nodes.
func (r *reader) mesh(n *scene.Node, mi int) ([]*scene.Node, error) {
	if mi < 0 || mi >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", mi)
	}
	gm := r.doc.Meshes[mi]
	var out []*scene.Node
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		m, err := r.primitive(prim)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		out = append(out, scene.NewMesh(meshName(n.Name, gm.Name, pi, len(gm.Primitives)), m))
	}
	if len(out) == 1 {
		n.Kind = scene.KindMesh
		n.Mesh = out[0].Mesh
		return []*scene.Node{n}, nil
	}
	n.Add(out...)
	return out, nil
}

func meshName(node, mesh string, i, total int) string {
	name := node
	if name == "" {
		name = mesh
	}
	if total > 1 {
		return fmt.Sprintf("%s_%d", name, i)
	}
	return name
}

// ref reports whether the optional index i points into a list of length n.
func ref(i *int, n int) bool {
	return i != nil && *i >= 0 && *i < n
}

func (r *reader) accessor(prim *gltf.Primitive, attr string) (*gltf.Accessor, bool) {
	idx, ok := prim.Attributes[attr]
	if !ok || idx < 0 || idx >= len(r.doc.Accessors) {
		return nil, false
	}
	return r.doc.Accessors[idx], true
}

func (r *reader) primitive(prim *gltf.Primitive) (*scene.Mesh, error) {
	acr, ok := r.accessor(prim, attrPosition)
	if !ok {
		return nil, errors.New("missing POSITION")
	}
	g := &scene.Geometry{}
	var err error
	if g.Positions, err = modeler.ReadPosition(r.doc, acr, nil); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	if acr, ok := r.accessor(prim, attrNormal); ok {
		if g.Normals, err = modeler.ReadNormal(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}
	if acr, ok := r.accessor(prim, attrTexcoord); ok {
		if g.UVs, err = modeler.ReadTextureCoord(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
	}
	if acr, ok := r.accessor(prim, attrJoints); ok {
		if g.Joints, err = modeler.ReadJoints(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read joints: %w", err)
		}
	}
	if acr, ok := r.accessor(prim, attrWeights); ok {
		if g.Weights, err = modeler.ReadWeights(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read weights: %w", err)
		}
	}
	if ref(prim.Indices, len(r.doc.Accessors)) {
		if g.Indices, err = modeler.ReadIndices(r.doc, r.doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	}
	if len(g.Normals) != len(g.Positions) {
		g.ComputeVertexNormals()
	}

	m := &scene.Mesh{Geometry: g, Material: scene.DefaultMaterial()}
	if ref(prim.Material, len(r.doc.Materials)) {
		m.Material = material(r.doc.Materials[*prim.Material])
	}
	return m, nil
}

func material(gm *gltf.Material) *scene.Material {
	m := &scene.Material{
		Name:        gm.Name,
		Color:       [4]float64{1, 1, 1, 1},
		Roughness:   1,
		Metalness:   1,
		DoubleSided: gm.DoubleSided,
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.Color = *pbr.BaseColorFactor
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = *pbr.RoughnessFactor
		}
		if pbr.MetallicFactor != nil {
			m.Metalness = *pbr.MetallicFactor
		}
	}
	return m
}

// bind creates the skins once the hierarchy and world matrices exist.
func (r *reader) bind() error {
	for _, p := range r.meshes {
		if p.skin < 0 || p.skin >= len(r.doc.Skins) {
			return fmt.Errorf("glb: skin index %d out of range", p.skin)
		}
		gs := r.doc.Skins[p.skin]
		joints := make([]*scene.Node, len(gs.Joints))
		for i, j := range gs.Joints {
			if j >= 0 && j < len(r.nodes) {
				joints[i] = r.nodes[j]
			}
		}
		var ibm []mathutil.Mat4
		if ref(gs.InverseBindMatrices, len(r.doc.Accessors)) {
			raw, err := modeler.ReadAccessor(r.doc, r.doc.Accessors[*gs.InverseBindMatrices], nil)
			if err != nil {
				return fmt.Errorf("glb: skin %q: read inverse bind matrices: %w", gs.Name, err)
			}
			mats, ok := raw.([][4][4]float32)
			if !ok {
				return fmt.Errorf("glb: skin %q: inverse bind matrices have type %T", gs.Name, raw)
			}
			for _, m := range mats {
				ibm = append(ibm, fromColumns(m))
			}
		}
		for _, n := range p.nodes {
			n.Mesh.Skin = scene.NewSkin(joints, ibm, n.World())
		}
	}
	return nil
}
