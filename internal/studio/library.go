package studio

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pose-studio/internal/glb"
	"pose-studio/internal/loader"
	"pose-studio/internal/raster"
	"pose-studio/internal/state"
)

// library is the model catalogue of one session: built-ins, persisted
// custom models, the selected model and its view transform.
type library struct {
	deps      Deps
	catalog   *loader.Catalog
	loader    *loader.Loader
	defaultID string

	customKey    state.Key[[]state.CustomModel]
	selectedKey  state.Key[string]
	transformKey state.Key[state.ModelTransform]

	mu        sync.Mutex
	custom    []state.CustomModel
	selected  string
	transform state.ModelTransform
}

func newLibrary(d Deps, catalog *loader.Catalog, defaultID string,
	custom state.Key[[]state.CustomModel], selected state.Key[string], transform state.Key[state.ModelTransform]) *library {
	return &library{
		deps:         d,
		catalog:      catalog,
		loader:       loader.New(catalog, d.Models, d.Log),
		defaultID:    defaultID,
		customKey:    custom,
		selectedKey:  selected,
		transformKey: transform,
		selected:     defaultID,
		transform:    state.DefaultModelTransform(),
	}
}

func (l *library) restore(ctx context.Context) {
	loaded := l.customKey.Load(ctx, l.deps.KV, l.deps.Log)
	n := len(loaded)
	custom := l.pruneMissing(ctx, loaded)
	if len(custom) != n {
		if err := l.customKey.Save(ctx, l.deps.KV, custom); err != nil {
			l.deps.Log.Warn("state write failed", zap.String("key", l.customKey.Name), zap.Error(err))
		}
	}
	selected := l.selectedKey.Load(ctx, l.deps.KV, l.deps.Log)
	transform := l.transformKey.Load(ctx, l.deps.KV, l.deps.Log)

	l.mu.Lock()
	l.custom = custom
	l.transform = transform
	l.selected = l.modelByIDLocked(selected).ID
	id := l.selected
	l.mu.Unlock()

	l.loader.Select(id)
}

// pruneMissing drops custom records whose model bytes are no longer
// stored. On a store error the records are kept.
func (l *library) pruneMissing(ctx context.Context, custom []state.CustomModel) []state.CustomModel {
	if len(custom) == 0 {
		return custom
	}
	ids, err := l.deps.Models.IDs(ctx)
	if err != nil {
		l.deps.Log.Warn("custom model check failed", zap.Error(err))
		return custom
	}
	kept := slices.DeleteFunc(custom, func(c state.CustomModel) bool {
		if slices.Contains(ids, c.ID) {
			return false
		}
		l.deps.Log.Warn("custom model bytes missing, dropping record", zap.String("model", c.ID))
		return true
	})
	return kept
}

func (l *library) persist(ctx context.Context) error {
	l.mu.Lock()
	custom := slices.Clone(l.custom)
	selected := l.selected
	transform := l.transform
	l.mu.Unlock()

	if err := l.customKey.Save(ctx, l.deps.KV, custom); err != nil {
		return err
	}
	if err := l.selectedKey.Save(ctx, l.deps.KV, selected); err != nil {
		return err
	}
	return l.transformKey.Save(ctx, l.deps.KV, transform)
}

// Models lists the built-in models followed by custom ones in insertion order.
func (l *library) Models() []ModelInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ModelInfo
	for _, m := range l.catalog.All() {
		out = append(out, builtinInfo(m))
	}
	for _, c := range l.custom {
		out = append(out, customInfo(c))
	}
	return out
}

// ModelByID resolves id against built-ins then custom models, falling back
// to the session's default model.
func (l *library) ModelByID(id string) ModelInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modelByIDLocked(id)
}

func (l *library) modelByIDLocked(id string) ModelInfo {
	if m, ok := l.catalog.Lookup(id); ok {
		return builtinInfo(m)
	}
	for _, c := range l.custom {
		if c.ID == id {
			return customInfo(c)
		}
	}
	m, _ := l.catalog.Lookup(l.defaultID)
	return builtinInfo(m)
}

// Selected returns the selected model.
func (l *library) Selected() ModelInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modelByIDLocked(l.selected)
}

// SelectModel selects id (or the default model when id is unknown),
// persists the choice and starts loading it.
func (l *library) SelectModel(ctx context.Context, id string) (ModelInfo, error) {
	l.mu.Lock()
	info := l.modelByIDLocked(id)
	l.selected = info.ID
	l.mu.Unlock()

	l.loader.Select(info.ID)
	if err := l.selectedKey.Save(ctx, l.deps.KV, info.ID); err != nil {
		return info, err
	}
	return info, nil
}

// ImportModel validates and stores an uploaded model file, registers it as a
// custom model and returns the record. The thumbnail is best effort.
func (l *library) ImportModel(ctx context.Context, filename string, data []byte) (state.CustomModel, error) {
	id, err := l.deps.Models.Import(ctx, filename, data)
	if err != nil {
		return state.CustomModel{}, err
	}
	rec := state.CustomModel{
		ID:        id,
		Name:      strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Thumbnail: l.thumbnailOf(id, data),
		Size:      int64(len(data)),
		Category:  loader.CategoryCustom,
		Source:    state.SourceUpload,
		AddedAt:   l.deps.Now(),
	}
	if err := l.AddCustomModel(ctx, rec); err != nil {
		return state.CustomModel{}, err
	}
	return rec, nil
}

// AddCustomModel registers an already stored model. The record's category
// is forced to custom and AddedAt defaults to now.
func (l *library) AddCustomModel(ctx context.Context, rec state.CustomModel) error {
	rec.Category = loader.CategoryCustom
	if rec.AddedAt.IsZero() {
		rec.AddedAt = l.deps.Now()
	}

	l.mu.Lock()
	l.custom = slices.DeleteFunc(l.custom, func(c state.CustomModel) bool { return c.ID == rec.ID })
	l.custom = append(l.custom, rec)
	custom := slices.Clone(l.custom)
	l.mu.Unlock()

	return l.customKey.Save(ctx, l.deps.KV, custom)
}

// RemoveModel deletes a custom model and its stored bytes. Removing the
// selected model selects the default one.
func (l *library) RemoveModel(ctx context.Context, id string) error {
	if _, ok := l.catalog.Lookup(id); ok {
		return ErrBuiltInModel
	}

	l.mu.Lock()
	i := slices.IndexFunc(l.custom, func(c state.CustomModel) bool { return c.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	l.custom = slices.Delete(l.custom, i, i+1)
	custom := slices.Clone(l.custom)
	reselect := l.selected == id
	l.mu.Unlock()

	if err := l.deps.Models.Delete(ctx, id); err != nil {
		return err
	}
	if err := l.customKey.Save(ctx, l.deps.KV, custom); err != nil {
		return err
	}
	if reselect {
		_, err := l.SelectModel(ctx, l.defaultID)
		return err
	}
	return nil
}

// ModelTransform returns the view transform of the model.
func (l *library) ModelTransform() state.ModelTransform {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transform
}

// SetModelTransform stores t; a non-positive scale becomes 1.
func (l *library) SetModelTransform(ctx context.Context, t state.ModelTransform) error {
	if t.Scale <= 0 {
		t.Scale = 1
	}
	l.mu.Lock()
	l.transform = t
	l.mu.Unlock()
	return l.transformKey.Save(ctx, l.deps.KV, t)
}

// Current returns the latest loaded model.
func (l *library) Current() (loader.Result, bool) {
	return l.loader.Current()
}

// WaitLoaded blocks until pending loads finish.
func (l *library) WaitLoaded() {
	l.loader.Wait()
}

// Close stops loading.
func (l *library) Close() {
	l.loader.Close()
}

func (l *library) thumbnailOf(id string, data []byte) string {
	root, err := glb.Decode(data)
	if err != nil {
		l.deps.Log.Warn("model thumbnail skipped", zap.String("model", id), zap.Error(err))
		return ""
	}
	webp, err := raster.Thumbnail(root, l.deps.ThumbnailSize, l.deps.Supersample)
	if err != nil {
		l.deps.Log.Warn("model thumbnail skipped", zap.String("model", id), zap.Error(err))
		return ""
	}
	return raster.DataURL(webp)
}

func builtinInfo(m loader.Model) ModelInfo {
	return ModelInfo{ID: m.ID, Name: m.Name, Category: m.Category, Thumbnail: m.Thumbnail}
}

func customInfo(c state.CustomModel) ModelInfo {
	return ModelInfo{
		ID:        c.ID,
		Name:      c.Name,
		Category:  c.Category,
		Thumbnail: c.Thumbnail,
		Size:      c.Size,
		Source:    c.Source,
		Custom:    true,
	}
}
