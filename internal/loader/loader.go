// Package loader loads models asynchronously with last-selection-wins
// semantics. Each request captures a generation number; results from a
// superseded request are discarded, and every ephemeral URL taken for a
// request is released whatever the outcome.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"pose-studio/internal/glb"
	"pose-studio/internal/modelstore"
	"pose-studio/internal/scene"
)

// ErrUnknownModel is returned for an id that is neither built in nor stored.
var ErrUnknownModel = errors.New("loader: unknown model")

// Result is the outcome of one load. On failure Root is the placeholder
// figure and Fallback is set.
type Result struct {
	ID         string
	Generation uint64
	Root       *scene.Node
	Fallback   bool
	Err        error
}

// Loader is safe for concurrent use.
type Loader struct {
	catalog *Catalog
	models  *modelstore.Store
	log     *zap.Logger

	wg conc.WaitGroup

	mu      sync.Mutex
	gen     uint64
	target  string
	cancel  context.CancelFunc
	current *Result
	onLoad  func(Result)
	closed  bool
}

// New returns a loader over catalog and the custom model store.
func New(catalog *Catalog, models *modelstore.Store, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{catalog: catalog, models: models, log: log}
}

// OnLoad registers fn to receive every accepted (non-stale) result. It is
// called from the loading goroutine.
func (l *Loader) OnLoad(fn func(Result)) {
	l.mu.Lock()
	l.onLoad = fn
	l.mu.Unlock()
}

// Select makes id the target and starts loading it, cancelling any load in
// flight. It returns the request's generation, or 0 after Close.
func (l *Loader) Select(id string) uint64 {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.target = id
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Go(func() {
		defer cancel()
		l.run(ctx, gen, id)
	})
	return gen
}

// Target returns the most recently selected id.
func (l *Loader) Target() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// Current returns the latest accepted result.
func (l *Loader) Current() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return Result{}, false
	}
	return *l.current, true
}

// Wait blocks until every started load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels any load in flight and waits for it; its result is
// discarded. Select is a no-op afterwards.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Loader) run(ctx context.Context, gen uint64, id string) {
	root, err := l.Fetch(ctx, id)
	res := Result{ID: id, Generation: gen, Root: root, Err: err}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		l.log.Debug("discarding stale model load", zap.String("model", id), zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		res.Root = scene.Placeholder()
		res.Fallback = true
	}
	l.current = &res
	notify := l.onLoad
	l.mu.Unlock()

	if err != nil {
		l.log.Warn("model load failed, using placeholder", zap.String("model", id), zap.Error(err))
	} else {
		l.log.Debug("model loaded", zap.String("model", id), zap.Int("meshes", len(root.Meshes())))
	}
	if notify != nil {
		notify(res)
	}
}

// Fetch loads id synchronously: procedural and file built-ins from the
// catalogue, anything else from the model store through an ephemeral URL
// that is revoked before returning.
func (l *Loader) Fetch(ctx context.Context, id string) (*scene.Node, error) {
	if m, ok := l.catalog.Lookup(id); ok {
		if m.Procedural() {
			return m.build(), nil
		}
		return l.decode(ctx, l.catalog.File(m))
	}
	if l.models == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	data, err := l.models.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	url := l.models.CreateEphemeralURL(data)
	defer l.models.Revoke(url)
	return l.decode(ctx, url)
}

func (l *Loader) decode(ctx context.Context, url string) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(url, modelstore.URLScheme) {
		return glb.Load(url)
	}
	data, err := l.models.Open(url)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	root, err := glb.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return root, nil
}
