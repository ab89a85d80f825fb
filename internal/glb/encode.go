// Package glb converts scene graphs to and from binary glTF.
package glb

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"pose-studio/internal/mathutil"
	"pose-studio/internal/scene"
)

const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"
	attrTexcoord = "TEXCOORD_0"
	attrJoints   = "JOINTS_0"
	attrWeights  = "WEIGHTS_0"
)

// Magic is the first four bytes of every binary glTF file.
var Magic = []byte("glTF")

// Encode serialises root and its subtree as a binary glTF file. Skinned
// meshes keep their skin; baked output has none.
func Encode(root *scene.Node) ([]byte, error) {
	doc := Document(root)
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("glb: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Document builds the glTF document for root without serialising it.
func Document(root *scene.Node) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "pose-studio"

	w := &writer{doc: doc, index: make(map[*scene.Node]int), materials: make(map[*scene.Material]int)}
	rootIdx := w.node(root)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, rootIdx)
	w.skins()
	return doc
}

type writer struct {
	doc       *gltf.Document
	index     map[*scene.Node]int
	materials map[*scene.Material]int
	skinned   []*scene.Node
}

func (w *writer) node(n *scene.Node) int {
	gn := &gltf.Node{Name: n.Name}
	if n.Matrix != nil {
		gn.Matrix = n.Matrix.ColumnMajor()
	} else {
		q := mathutil.EulerToQuat(n.Rotation[0], n.Rotation[1], n.Rotation[2])
		gn.Translation = n.Position
		gn.Rotation = q
		gn.Scale = n.Scale
	}

	idx := len(w.doc.Nodes)
	w.doc.Nodes = append(w.doc.Nodes, gn)
	w.index[n] = idx

	if n.Mesh != nil && n.Mesh.Geometry.VertexCount() > 0 {
		gn.Mesh = gltf.Index(w.mesh(n))
		if n.Mesh.Skinned() && n.Mesh.Geometry.HasSkinAttributes() {
			w.skinned = append(w.skinned, n)
		}
	}
	for _, c := range n.Children {
		ci := w.node(c)
		gn.Children = append(gn.Children, ci)
	}
	return idx
}

func (w *writer) mesh(n *scene.Node) int {
	g := n.Mesh.Geometry
	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{},
		Mode:       gltf.PrimitiveTriangles,
	}
	prim.Attributes[attrPosition] = modeler.WritePosition(w.doc, g.Positions)
	if len(g.Normals) == len(g.Positions) {
		prim.Attributes[attrNormal] = modeler.WriteNormal(w.doc, g.Normals)
	}
	if len(g.UVs) == len(g.Positions) {
		prim.Attributes[attrTexcoord] = modeler.WriteTextureCoord(w.doc, g.UVs)
	}
	if n.Mesh.Skinned() && g.HasSkinAttributes() {
		prim.Attributes[attrJoints] = modeler.WriteJoints(w.doc, g.Joints)
		prim.Attributes[attrWeights] = modeler.WriteWeights(w.doc, g.Weights)
	}
	if len(g.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(w.doc, g.Indices))
	}
	if m := n.Mesh.Material; m != nil {
		prim.Material = gltf.Index(w.material(m))
	}

	w.doc.Meshes = append(w.doc.Meshes, &gltf.Mesh{Name: n.Name, Primitives: []*gltf.Primitive{prim}})
	return len(w.doc.Meshes) - 1
}

func (w *writer) material(m *scene.Material) int {
	if idx, ok := w.materials[m]; ok {
		return idx
	}
	gm := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.DoubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{m.Color[0], m.Color[1], m.Color[2], m.Color[3]},
			MetallicFactor:  gltf.Float(m.Metalness),
			RoughnessFactor: gltf.Float(m.Roughness),
		},
	}
	if m.Color[3] < 1 {
		gm.AlphaMode = gltf.AlphaBlend
	}
	w.doc.Materials = append(w.doc.Materials, gm)
	idx := len(w.doc.Materials) - 1
	w.materials[m] = idx
	return idx
}

// skins writes one skin per skinned mesh once every node has an index.
// Joints outside the exported subtree are dropped from the skin.
func (w *writer) skins() {
	for _, n := range w.skinned {
		s := n.Mesh.Skin
		gs := &gltf.Skin{Name: n.Name}
		ibm := make([][4][4]float32, 0, len(s.Joints))
		for i, j := range s.Joints {
			ji, ok := w.index[j]
			if !ok {
				ji = w.index[n]
			}
			gs.Joints = append(gs.Joints, ji)
			m := mathutil.Mat4Identity()
			if i < len(s.InverseBind) {
				m = s.InverseBind[i]
			}
			ibm = append(ibm, toColumns(m))
		}
		if len(ibm) > 0 {
			gs.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(w.doc, gltf.TargetNone, ibm))
		}
		w.doc.Skins = append(w.doc.Skins, gs)
		w.doc.Nodes[w.index[n]].Skin = gltf.Index(len(w.doc.Skins) - 1)
	}
}

// toColumns lays m out as glTF stores a mat4: four columns.
func toColumns(m mathutil.Mat4) [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c][r] = float32(m[r*4+c])
		}
	}
	return out
}

func fromColumns(a [4][4]float32) mathutil.Mat4 {
	var m mathutil.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[r*4+c] = float64(a[c][r])
		}
	}
	return m
}
