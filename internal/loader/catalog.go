package loader

import (
	"path/filepath"

	"pose-studio/internal/joint"
	"pose-studio/internal/rig"
	"pose-studio/internal/scene"
)

// Categories of catalogue entries.
const (
	CategoryBuiltIn = "built-in"
	CategoryBody    = "body"
	CategoryCustom  = "custom"
)

// Model is a built-in catalogue entry. It is either a file under the
// catalogue directory or built procedurally.
type Model struct {
	ID        string
	Name      string
	Path      string
	Thumbnail string
	Category  string

	build func() *scene.Node
}

// Procedural reports whether the model is generated rather than loaded.
func (m Model) Procedural() bool { return m.build != nil }

// Catalog lists the built-in models of one feature.
type Catalog struct {
	dir    string
	models []Model
}

// NewCatalog returns a catalogue resolving relative paths against dir.
func NewCatalog(dir string, models ...Model) *Catalog {
	return &Catalog{dir: dir, models: models}
}

// PoseModels is the pose creator's catalogue: the rigged human file and the
// procedural mannequin.
func PoseModels(dir string, corr joint.CorrectionOffsets) *Catalog {
	return NewCatalog(dir,
		Model{ID: "rigged-human", Name: "Rigged Human", Path: "rigged-human.glb", Category: CategoryBuiltIn},
		Model{ID: "mannequin", Name: "Mannequin", Category: CategoryBuiltIn, build: func() *scene.Node {
			return rig.Mannequin(corr)
		}},
	)
}

// LightModels is the light reference catalogue.
func LightModels(dir string) *Catalog {
	return NewCatalog(dir,
		Model{ID: "male-body", Name: "Male Body", Path: "human-base.glb", Category: CategoryBody},
		Model{ID: "female-body", Name: "Female Body", Path: "female-body.glb", Thumbnail: "thumbnails/female-body.png", Category: CategoryBody},
	)
}

// Lookup returns the built-in model with id.
func (c *Catalog) Lookup(id string) (Model, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// All returns the built-in models in display order.
func (c *Catalog) All() []Model {
	return append([]Model(nil), c.models...)
}

// Default returns the first built-in model.
func (c *Catalog) Default() Model {
	if len(c.models) == 0 {
		return Model{}
	}
	return c.models[0]
}

// File returns the absolute path of m's file.
func (c *Catalog) File(m Model) string {
	if filepath.IsAbs(m.Path) {
		return m.Path
	}
	return filepath.Join(c.dir, m.Path)
}
