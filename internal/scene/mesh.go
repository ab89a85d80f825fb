package scene

import "pose-studio/internal/mathutil"

// Mesh binds geometry to a material and, for skinned meshes, a skin.
type Mesh struct {
	Geometry *Geometry
	Material *Material
	Skin     *Skin
}

// Skinned reports whether the mesh is deformed by a skeleton.
func (m *Mesh) Skinned() bool {
	return m != nil && m.Skin != nil
}

// Material is a metallic-roughness surface description.
type Material struct {
	Name        string
	Color       [4]float64 // linear RGBA
	Roughness   float64
	Metalness   float64
	DoubleSided bool
}

// DefaultMaterial is the neutral grey used for primitives.
func DefaultMaterial() *Material {
	return &Material{Name: "default", Color: [4]float64{0.533, 0.533, 0.533, 1}, Roughness: 0.8}
}

// Clone returns a copy; nil stays nil.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Skin holds the joint binding of a skinned mesh.
type Skin struct {
	Joints      []*Node
	InverseBind []mathutil.Mat4

	// BindMatrix maps mesh-local positions into bind space; it is the mesh's
	// world matrix at the time the skin was bound.
	BindMatrix        mathutil.Mat4
	BindMatrixInverse mathutil.Mat4
}

// NewSkin binds joints with their inverse bind matrices. Missing inverse
// bind matrices default to identity.
func NewSkin(joints []*Node, inverseBind []mathutil.Mat4, bind mathutil.Mat4) *Skin {
	ibm := make([]mathutil.Mat4, len(joints))
	for i := range ibm {
		if i < len(inverseBind) {
			ibm[i] = inverseBind[i]
		} else {
			ibm[i] = mathutil.Mat4Identity()
		}
	}
	return &Skin{
		Joints:            joints,
		InverseBind:       ibm,
		BindMatrix:        bind,
		BindMatrixInverse: bind.Inverse(),
	}
}

// JointMatrix returns jointWorld × inverseBind for joint i. ok is false for
// an index outside the skin or an unbound joint.
func (s *Skin) JointMatrix(i int) (mathutil.Mat4, bool) {
	if i < 0 || i >= len(s.Joints) || s.Joints[i] == nil {
		return mathutil.Mat4{}, false
	}
	ibm := mathutil.Mat4Identity()
	if i < len(s.InverseBind) {
		ibm = s.InverseBind[i]
	}
	return mathutil.Mat4Mul(s.Joints[i].World(), ibm), true
}
