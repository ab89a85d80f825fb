package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable the studio reads.
const EnvPrefix = "POSE_STUDIO_"

// Config holds storage locations, thumbnail and export settings.
type Config struct {
	// Paths
	DataDir      string `json:"data_dir" env:"DATA_DIR"`
	ModelsDir    string `json:"models_dir" env:"MODELS_DIR"`
	DatabasePath string `json:"database_path" env:"DATABASE_PATH"`
	OutputDir    string `json:"output_dir" env:"OUTPUT_DIR"`

	// Rendering and limits
	ThumbnailSize int   `json:"thumbnail_size" env:"THUMBNAIL_SIZE"`
	Supersample   int   `json:"supersample" env:"SUPERSAMPLE"`
	MaxModelBytes int64 `json:"max_model_bytes" env:"MAX_MODEL_BYTES"`
	Workers       int   `json:"workers" env:"WORKERS"`

	// Logging
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
	LogFile  string `json:"log_file" env:"LOG_FILE"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnv overlays POSE_STUDIO_* environment variables onto c. Variables
// from dotenv (if it exists) are loaded first without overriding the real
// environment. Unset variables leave fields untouched.
func (c *Config) LoadEnv(dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", dotenv, err)
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file and environment
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.ModelsDir != "" {
		c.ModelsDir = flags.ModelsDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}

	if c.ModelsDir == "" {
		c.ModelsDir = detectModelsDir(c.DataDir)
	} else if !filepath.IsAbs(c.ModelsDir) {
		c.ModelsDir = filepath.Join(c.DataDir, c.ModelsDir)
	}

	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "artist-reference-models.db")
	} else if !filepath.IsAbs(c.DatabasePath) {
		c.DatabasePath = filepath.Join(c.DataDir, c.DatabasePath)
	}

	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.DataDir, "exports")
	} else if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.DataDir, c.OutputDir)
	}

	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = 128
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.MaxModelBytes <= 0 {
		c.MaxModelBytes = 50 << 20
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	ModelsDir string
	OutputDir string
	Workers   int
	LogLevel  string
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pose-studio")
	}
	return ".pose-studio"
}

// detectModelsDir looks for the bundled models next to the executable,
// then under the working directory, then falls back to the data dir.
func detectModelsDir(dataDir string) string {
	var candidates []string
	if exe, _ := os.Executable(); exe != "" {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "models"),
			filepath.Join(dir, "..", "models"),
			filepath.Join(dir, "..", "..", "public", "models"),
		)
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		candidates = append(candidates,
			filepath.Join(cwd, "models"),
			filepath.Join(cwd, "public", "models"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(filepath.Join(c, "rigged-human.glb")); err == nil {
			return c
		}
	}
	return filepath.Join(dataDir, "models")
}
