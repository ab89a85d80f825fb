package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"pose-studio/internal/config"
	"pose-studio/internal/lighting"
	"pose-studio/internal/logging"
	"pose-studio/internal/modelstore"
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
	logLevel := flag.String("log-level", "", "debug, info, warn or error")

	modelID := flag.String("model", "", "Light reference model id (default: the saved selection)")
	preset := flag.String("preset", "", "Apply a lighting preset before rendering")
	size := flag.Int("size", 512, "Preview size in pixels")
	list := flag.Bool("list", false, "List lighting presets and models, then exit")

	flag.Parse()

	if *list {
		for _, p := range lighting.Presets() {
			fmt.Printf("%-10s %s\n", p.Name, p.Description)
		}
	}

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
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		ModelsDir: *modelsDir,
		OutputDir: *outputDir,
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

	if err := run(ctx, cfg, log, *modelID, *preset, *size, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, modelID, preset string, size int, list bool) error {
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	lr := studio.NewLightReference(studio.Deps{
		KV:            db,
		Models:        modelstore.New(db, cfg.MaxModelBytes, log),
		Log:           log,
		ModelsDir:     cfg.ModelsDir,
		ThumbnailSize: cfg.ThumbnailSize,
		Supersample:   cfg.Supersample,
	})
	defer lr.Close()
	lr.Restore(ctx)

	if list {
		fmt.Println("------------------------------------------------------------")
		for _, m := range lr.Models() {
			fmt.Printf("%-28s %-8s %s\n", m.ID, m.Category, m.Name)
		}
		return nil
	}

	if modelID != "" {
		if _, err := lr.SelectModel(ctx, modelID); err != nil {
			return err
		}
	}
	if preset != "" {
		if _, err := lr.ApplyLightPreset(ctx, preset); err != nil {
			return err
		}
	}
	lr.WaitLoaded()
	if res, ok := lr.Current(); ok && res.Fallback {
		log.Warn("rendering placeholder figure", zap.String("model", res.ID), zap.Error(res.Err))
	}

	rig := lr.Lights()
	fmt.Println("Pose Studio → light reference")
	fmt.Printf("Model: %s (%s)\n", lr.Selected().Name, lr.Selected().ID)
	fmt.Printf("Lighting: %s\n", rig.Preset)
	for _, id := range lighting.IDs {
		s := rig.Light(id)
		fmt.Printf("  %-4s az %6.1f el %4.1f d %4.1f  %s ×%.2f  on=%v\n", id,
			s.Position.Azimuth, s.Position.Elevation, s.Position.Distance, s.Color, s.Intensity, s.Enabled)
	}

	data, err := lr.Preview(size)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%s.webp", lr.Selected().ID, rig.Preset))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote: %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}
