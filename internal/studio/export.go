package studio

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pose-studio/internal/glb"
	"pose-studio/internal/loader"
	"pose-studio/internal/raster"
	"pose-studio/internal/scene"
	"pose-studio/internal/skin"
	"pose-studio/internal/state"
)

// ExportStatus is the state of the session's export.
type ExportStatus int

const (
	ExportIdle ExportStatus = iota
	Exporting
	ExportDone
	ExportFailed
)

func (s ExportStatus) String() string {
	switch s {
	case ExportIdle:
		return "idle"
	case Exporting:
		return "exporting"
	case ExportDone:
		return "done"
	case ExportFailed:
		return "failed"
	}
	return fmt.Sprintf("ExportStatus(%d)", int(s))
}

// DefaultExportName names exports when the user gives none.
const DefaultExportName = "posed-model"

// Export is a finished export: the binary glTF bytes and what was baked.
type Export struct {
	Name   string
	Data   []byte
	Report skin.Report
	// Path is set by ExportToFile.
	Path string
	// Model is set by SaveToLightReference.
	Model *state.CustomModel

	root *scene.Node
}

type exportOp func(context.Context) (Export, error)

type exportState struct {
	status ExportStatus
	err    error
	last   Export
	retry  exportOp
}

// ExportStatus returns the export state and, when failed, its error.
func (pc *PoseCreator) ExportStatus() (ExportStatus, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.export.status, pc.export.err
}

// LastExport returns the most recent successful export.
func (pc *PoseCreator) LastExport() Export {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.export.last
}

// ResetExport returns a finished or failed export to idle.
func (pc *PoseCreator) ResetExport() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.export.status != Exporting {
		pc.export.status = ExportIdle
		pc.export.err = nil
	}
}

// Export bakes the current pose on a copy of the loaded model and encodes
// it as binary glTF under the fixed export orientation.
func (pc *PoseCreator) Export(ctx context.Context, name string) (Export, error) {
	return pc.run(ctx, func(ctx context.Context) (Export, error) {
		return pc.encode(ctx, name)
	})
}

// ExportToFile exports and writes <name>-<unix millis>.glb into dir.
func (pc *PoseCreator) ExportToFile(ctx context.Context, dir, name string) (Export, error) {
	return pc.run(ctx, func(ctx context.Context) (Export, error) {
		out, err := pc.encode(ctx, name)
		if err != nil {
			return out, err
		}
		out.Path = filepath.Join(dir, fmt.Sprintf("%s-%d.glb", glb.Slug(out.Name, DefaultExportName), pc.deps.Now().UnixMilli()))
		if err := glb.WriteFile(out.Path, out.Data); err != nil {
			return out, err
		}
		pc.deps.Log.Info("pose exported", zap.String("path", out.Path), zap.Int("bytes", len(out.Data)))
		return out, nil
	})
}

// SaveToLightReference exports, stores the bytes in the model store and
// registers them as a custom light reference model.
func (pc *PoseCreator) SaveToLightReference(ctx context.Context, lr *LightReference, name string) (Export, error) {
	if name == "" {
		name = fmt.Sprintf("Custom Pose %d", pc.deps.Now().UnixMilli())
	}
	return pc.run(ctx, func(ctx context.Context) (Export, error) {
		out, err := pc.encode(ctx, name)
		if err != nil {
			return out, err
		}
		id := "posed-" + uuid.NewString()
		if err := pc.deps.Models.Save(ctx, id, out.Data); err != nil {
			return out, err
		}
		rec := state.CustomModel{
			ID:       id,
			Name:     name,
			Size:     int64(len(out.Data)),
			Category: loader.CategoryCustom,
			Source:   state.SourcePoseCreator,
			AddedAt:  pc.deps.Now(),
		}
		if webp, err := raster.Thumbnail(out.root, pc.deps.ThumbnailSize, pc.deps.Supersample); err == nil {
			rec.Thumbnail = raster.DataURL(webp)
		} else {
			pc.deps.Log.Warn("model thumbnail skipped", zap.String("model", id), zap.Error(err))
		}
		if err := lr.AddCustomModel(ctx, rec); err != nil {
			if derr := pc.deps.Models.Delete(ctx, id); derr != nil {
				pc.deps.Log.Warn("exported model left in store", zap.String("model", id), zap.Error(derr))
			}
			return out, err
		}
		out.Model = &rec
		return out, nil
	})
}

// Retry reruns the last failed export.
func (pc *PoseCreator) Retry(ctx context.Context) (Export, error) {
	pc.mu.Lock()
	if pc.export.status != ExportFailed || pc.export.retry == nil {
		pc.mu.Unlock()
		return Export{}, ErrNothingToRetry
	}
	op := pc.export.retry
	pc.mu.Unlock()
	return pc.run(ctx, op)
}

func (pc *PoseCreator) run(ctx context.Context, op exportOp) (Export, error) {
	pc.mu.Lock()
	if pc.export.status == Exporting {
		pc.mu.Unlock()
		return Export{}, ErrExportBusy
	}
	pc.export.status = Exporting
	pc.export.err = nil
	pc.export.retry = op
	pc.mu.Unlock()

	out, err := op(ctx)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if err != nil {
		pc.export.status = ExportFailed
		pc.export.err = err
		pc.deps.Log.Error("export failed", zap.String("name", out.Name), zap.Error(err))
		return Export{}, err
	}
	pc.export.status = ExportDone
	pc.export.last = out
	return out, nil
}

func (pc *PoseCreator) encode(ctx context.Context, name string) (Export, error) {
	if name == "" {
		name = DefaultExportName
	}
	out := Export{Name: name}
	root, rep, err := pc.bake(pc.Pose())
	out.Report = rep
	if err != nil {
		return out, err
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	data, err := glb.Encode(root)
	if err != nil {
		return out, err
	}
	out.Data = data
	out.root = root
	return out, nil
}
