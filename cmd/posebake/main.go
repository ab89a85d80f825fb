package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"pose-studio/internal/batch"
	"pose-studio/internal/config"
	"pose-studio/internal/joint"
	"pose-studio/internal/logging"
	"pose-studio/internal/modelstore"
	"pose-studio/internal/scene"
	"pose-studio/internal/storage/sqlite"
	"pose-studio/internal/studio"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	envFile := flag.String("env", ".env", "Optional .env file with POSE_STUDIO_* variables")
	dataDir := flag.String("data", "", "Data directory (default: user config dir)")
	modelsDir := flag.String("models", "", "Directory with the built-in .glb models")
	outputDir := flag.String("output", "", "Output directory (default: <data>/exports)")
	workers := flag.Int("workers", 0, "Worker goroutines for -all (default: NumCPU)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")

	modelID := flag.String("model", "", "Model id to pose (default: the saved selection)")
	presetID := flag.String("preset", "", "Pose with a built-in preset (tPose, aPose, standing, forwardReach)")
	poseFile := flag.String("pose", "", "Pose with a JSON file of joint rotations in degrees")
	savedID := flag.String("saved", "", "Pose with a saved pose id")
	name := flag.String("name", "", "Export name (default: posed-model)")
	all := flag.Bool("all", false, "Export every preset and saved pose")
	register := flag.Bool("register", false, "Also add the export to the light reference models")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config file and environment
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		ModelsDir: *modelsDir,
		OutputDir: *outputDir,
		Workers:   *workers,
		LogLevel:  *logLevel,
	})

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, options{
		modelID:  *modelID,
		presetID: *presetID,
		poseFile: *poseFile,
		savedID:  *savedID,
		name:     *name,
		all:      *all,
		register: *register,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	modelID, presetID, poseFile, savedID, name string
	all, register                              bool
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, opt options) error {
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	deps := studio.Deps{
		KV:            db,
		Models:        modelstore.New(db, cfg.MaxModelBytes, log),
		Log:           log,
		ModelsDir:     cfg.ModelsDir,
		Corrections:   joint.DefaultCorrections(),
		ThumbnailSize: cfg.ThumbnailSize,
		Supersample:   cfg.Supersample,
	}

	pc := studio.NewPoseCreator(deps)
	defer pc.Close()
	pc.Restore(ctx)
	if opt.modelID != "" {
		if _, err := pc.SelectModel(ctx, opt.modelID); err != nil {
			return err
		}
	}
	pc.WaitLoaded()

	res, ok := pc.Current()
	if !ok || res.Fallback {
		return fmt.Errorf("model %q could not be loaded: %v", pc.Selected().ID, res.Err)
	}

	fmt.Println("Pose Studio → GLB")
	fmt.Printf("Model: %s (%s)\n", pc.Selected().Name, pc.Selected().ID)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	if opt.all {
		return runAll(ctx, cfg, log, pc, res.Root)
	}

	switch {
	case opt.presetID != "":
		if err := pc.ApplyPreset(opt.presetID); err != nil {
			return err
		}
	case opt.savedID != "":
		if err := pc.ApplySavedPose(opt.savedID); err != nil {
			return err
		}
	case opt.poseFile != "":
		data, err := os.ReadFile(opt.poseFile)
		if err != nil {
			return err
		}
		var rot map[string]joint.Euler
		if err := json.Unmarshal(data, &rot); err != nil {
			return fmt.Errorf("%s: %w", opt.poseFile, err)
		}
		pc.LoadPose(rot)
	}
	if pr, ok := pc.CurrentPreset(); ok {
		fmt.Printf("Pose: %s\n", pr.Name)
	}

	out, err := pc.ExportToFile(ctx, cfg.OutputDir, opt.name)
	if err != nil {
		return err
	}
	fmt.Printf("Baked: %d meshes", len(out.Report.Baked))
	if len(out.Report.Skipped) > 0 {
		fmt.Printf(", skipped %v", out.Report.Skipped)
	}
	fmt.Println()
	fmt.Printf("Wrote: %s (%s)\n", out.Path, humanize.Bytes(uint64(len(out.Data))))

	if opt.register {
		lr := studio.NewLightReference(deps)
		defer lr.Close()
		lr.Restore(ctx)
		saved, err := pc.SaveToLightReference(ctx, lr, opt.name)
		if err != nil {
			return err
		}
		fmt.Printf("Light reference model: %s (%s)\n", saved.Model.Name, saved.Model.ID)
	}
	return nil
}

func runAll(ctx context.Context, cfg config.Config, log *zap.Logger, pc *studio.PoseCreator, rig *scene.Node) error {
	jobs := append(batch.PresetJobs(), batch.SavedJobs(pc.SavedPoses())...)
	fmt.Printf("Poses: %d, Workers: %d\n", len(jobs), cfg.Workers)

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		Rig:           rig,
		Corrections:   joint.DefaultCorrections(),
		OutputDir:     cfg.OutputDir,
		ThumbnailSize: cfg.ThumbnailSize,
		Supersample:   cfg.Supersample,
		Workers:       cfg.Workers,
		Log:           log,
	}, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Exported: %d/%d\n", len(results)-len(failed), len(results))
	for _, r := range failed {
		fmt.Printf("  %s: %s\n", r.Name, r.Error)
	}

	if err := batch.WriteManifest(cfg.OutputDir, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d poses failed", len(failed))
	}
	return nil
}
