// Package scene is a minimal scene graph: transform nodes, bones and meshes
// with world matrix resolution. It is the model the rig is posed on and the
// shape handed to the exporter.
package scene

import (
	"pose-studio/internal/mathutil"
)

// Kind classifies a node.
type Kind int

const (
	KindGroup Kind = iota
	KindBone
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindBone:
		return "bone"
	case KindMesh:
		return "mesh"
	}
	return "group"
}

// Node is one element of the scene tree. Its local transform is
// Position × EulerXYZ(Rotation) × Scale unless Matrix is set.
type Node struct {
	Name     string
	Kind     Kind
	Position mathutil.Vec3
	Rotation mathutil.Vec3 // Euler XYZ, radians
	Scale    mathutil.Vec3
	Matrix   *mathutil.Mat4
	Mesh     *Mesh

	Parent   *Node
	Children []*Node

	world mathutil.Mat4
}

func newNode(name string, kind Kind) *Node {
	return &Node{
		Name:  name,
		Kind:  kind,
		Scale: mathutil.Vec3{1, 1, 1},
		world: mathutil.Mat4Identity(),
	}
}

// NewGroup returns an empty transform node.
func NewGroup(name string) *Node { return newNode(name, KindGroup) }

// NewBone returns a joint node.
func NewBone(name string) *Node { return newNode(name, KindBone) }

// NewMesh returns a node carrying m.
func NewMesh(name string, m *Mesh) *Node {
	n := newNode(name, KindMesh)
	n.Mesh = m
	return n
}

// Add attaches children to n, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.Parent != nil {
			c.Parent.Remove(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Remove detaches child from n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// LocalMatrix returns the node's transform relative to its parent.
func (n *Node) LocalMatrix() mathutil.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return mathutil.Compose(n.Position, mathutil.EulerXYZ(n.Rotation), n.Scale)
}

// SetTransform replaces the local TRS with the decomposition of m.
func (n *Node) SetTransform(m mathutil.Mat4) {
	t, r, s := m.Decompose()
	n.Position = t
	n.Rotation = mathutil.EulerFromMat3(r)
	n.Scale = s
	n.Matrix = nil
}

// UpdateWorld recomputes world matrices for n and its whole subtree.
// The parent's cached world matrix is trusted as current.
func (n *Node) UpdateWorld() {
	local := n.LocalMatrix()
	if n.Parent != nil {
		n.world = mathutil.Mat4Mul(n.Parent.world, local)
	} else {
		n.world = local
	}
	for _, c := range n.Children {
		c.UpdateWorld()
	}
}

// World returns the world matrix cached by the last UpdateWorld.
func (n *Node) World() mathutil.Mat4 {
	return n.world
}

// Traverse visits n and its descendants depth-first, parents first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// Find returns the first node named name, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Bones returns every bone node in traversal order.
func (n *Node) Bones() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) {
		if c.Kind == KindBone {
			out = append(out, c)
		}
	})
	return out
}

// Meshes returns every node carrying a mesh in traversal order.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) {
		if c.Mesh != nil {
			out = append(out, c)
		}
	})
	return out
}

// Clone deep-copies the subtree. Geometry and materials are copied, and skin
// joint references are remapped onto the cloned bones so the copy can be
// posed independently. The clone has no parent.
func (n *Node) Clone() *Node {
	mapping := make(map[*Node]*Node)
	root := n.cloneTree(mapping)
	root.Traverse(func(c *Node) {
		if c.Mesh == nil || c.Mesh.Skin == nil {
			return
		}
		s := c.Mesh.Skin
		joints := make([]*Node, len(s.Joints))
		for i, j := range s.Joints {
			if m, ok := mapping[j]; ok {
				joints[i] = m
			} else {
				joints[i] = j
			}
		}
		c.Mesh.Skin = &Skin{
			Joints:            joints,
			InverseBind:       append([]mathutil.Mat4(nil), s.InverseBind...),
			BindMatrix:        s.BindMatrix,
			BindMatrixInverse: s.BindMatrixInverse,
		}
	})
	return root
}

func (n *Node) cloneTree(mapping map[*Node]*Node) *Node {
	c := &Node{
		Name:     n.Name,
		Kind:     n.Kind,
		Position: n.Position,
		Rotation: n.Rotation,
		Scale:    n.Scale,
		world:    n.world,
	}
	if n.Matrix != nil {
		m := *n.Matrix
		c.Matrix = &m
	}
	if n.Mesh != nil {
		c.Mesh = &Mesh{
			Geometry: n.Mesh.Geometry.Clone(),
			Material: n.Mesh.Material.Clone(),
			Skin:     n.Mesh.Skin,
		}
	}
	mapping[n] = c
	for _, ch := range n.Children {
		cc := ch.cloneTree(mapping)
		cc.Parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}
