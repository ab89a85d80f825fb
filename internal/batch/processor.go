// Package batch bakes many poses of one rig to GLB files in parallel.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"pose-studio/internal/compose"
	"pose-studio/internal/glb"
	"pose-studio/internal/joint"
	"pose-studio/internal/pose"
	"pose-studio/internal/raster"
	"pose-studio/internal/scene"
	"pose-studio/internal/skin"
	"pose-studio/internal/state"
)

// Config holds all shared resources for a batch run.
type Config struct {
	// Rig is the loaded model; each job poses its own clone.
	Rig         *scene.Node
	Corrections joint.CorrectionOffsets
	OutputDir   string

	// ThumbnailSize > 0 also writes <slug>.webp next to each model.
	ThumbnailSize int
	Supersample   int
	Workers       int

	Log *zap.Logger
}

// Job is one pose to export.
type Job struct {
	Name string
	Pose pose.Pose
}

// Result holds the outcome of one job. Paths are relative to OutputDir.
type Result struct {
	Name      string
	Model     string
	Thumbnail string
	Baked     int
	Skipped   []string
	Success   bool
	Error     string
}

// PresetJobs returns one job per built-in preset.
func PresetJobs() []Job {
	var jobs []Job
	for _, p := range pose.Presets() {
		jobs = append(jobs, Job{Name: p.Name, Pose: p.Pose})
	}
	return jobs
}

// SavedJobs returns one job per saved pose, clamped to the joint limits.
func SavedJobs(saved []state.SavedPose) []Job {
	jobs := make([]Job, len(saved))
	for i, s := range saved {
		jobs[i] = Job{Name: s.Name, Pose: s.Pose.Clamped()}
	}
	return jobs
}

// Run processes all jobs using a bounded worker pool. Results are in job
// order. Cancelling ctx fails the jobs not yet started.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	names := uniqueSlugs(jobs)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					cfg.Log.Info("batch progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("per_sec", rate))
				}
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(cfg.Workers)
	for i := range jobs {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Name: jobs[i].Name, Error: err.Error()}
			} else {
				results[i] = processJob(cfg, jobs[i], names[i])
			}
			processed.Add(1)
		})
	}
	p.Wait()
	close(done)

	cfg.Log.Info("batch finished",
		zap.Int("total", total),
		zap.Duration("elapsed", time.Since(start)))
	return results
}

func processJob(cfg Config, job Job, slug string) Result {
	res := Result{Name: job.Name}

	rig := cfg.Rig.Clone()
	compose.New(cfg.Corrections).Pose(rig, job.Pose)
	baked, rep := skin.Bake(rig, cfg.Log)
	res.Baked, res.Skipped = len(rep.Baked), rep.Skipped
	if len(rep.Baked) == 0 {
		res.Error = "no skinned meshes to bake"
		return res
	}
	root := skin.ExportGroup(baked)

	data, err := glb.Encode(root)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Model = slug + ".glb"
	if err := glb.WriteFile(filepath.Join(cfg.OutputDir, res.Model), data); err != nil {
		res.Error = err.Error()
		return res
	}

	if cfg.ThumbnailSize > 0 {
		webp, err := raster.Thumbnail(root, cfg.ThumbnailSize, cfg.Supersample)
		if err != nil {
			res.Error = fmt.Sprintf("thumbnail: %v", err)
			return res
		}
		res.Thumbnail = slug + ".webp"
		if err := glb.WriteFile(filepath.Join(cfg.OutputDir, res.Thumbnail), webp); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

// uniqueSlugs names each job's files, suffixing repeats with -2, -3, ...
// Every emitted slug is reserved, so a suffixed name never collides with a
// job that already carries that name.
func uniqueSlugs(jobs []Job) []string {
	used := map[string]bool{}
	out := make([]string, len(jobs))
	for i, j := range jobs {
		base := glb.Slug(j.Name, "pose")
		s := base
		for n := 2; used[s]; n++ {
			s = fmt.Sprintf("%s-%d", base, n)
		}
		used[s] = true
		out[i] = s
	}
	return out
}
