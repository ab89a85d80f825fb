// Package studio wires the pose creator and light reference sessions:
// persisted state, model selection and loading, posing, thumbnails and
// export.
package studio

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"pose-studio/internal/joint"
	"pose-studio/internal/modelstore"
	"pose-studio/internal/state"
)

var (
	ErrNoModel         = errors.New("studio: no model loaded")
	ErrPoseNotFound    = errors.New("studio: saved pose not found")
	ErrPresetNotFound  = errors.New("studio: preset not found")
	ErrModelNotFound   = errors.New("studio: model not found")
	ErrBuiltInModel    = errors.New("studio: built-in models cannot be removed")
	ErrNothingToExport = errors.New("studio: model has no skinned meshes to export")
	ErrExportBusy      = errors.New("studio: export already running")
	ErrNothingToRetry  = errors.New("studio: no failed export to retry")
)

// Deps are the collaborators shared by both sessions.
type Deps struct {
	KV     state.KV
	Models *modelstore.Store
	Log    *zap.Logger

	// ModelsDir holds the built-in model files.
	ModelsDir   string
	Corrections joint.CorrectionOffsets

	ThumbnailSize int
	Supersample   int

	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Corrections == nil {
		d.Corrections = joint.DefaultCorrections()
	}
	if d.ThumbnailSize <= 0 {
		d.ThumbnailSize = 128
	}
	if d.Supersample <= 0 {
		d.Supersample = 2
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// ModelInfo describes a selectable model, built in or custom.
type ModelInfo struct {
	ID        string
	Name      string
	Category  string
	Thumbnail string
	Size      int64
	Source    string
	Custom    bool
}
